package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// RFC 7986 / Apple calendar color property names.
const (
	propColor      = "COLOR"
	propAppleColor = "X-APPLE-CALENDAR-COLOR"
)

// ICSSource fetches events from an ICS/iCal URL.
type ICSSource struct {
	name     string
	url      string
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS calendar source.
func NewICSSource(name, url, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the display name of this calendar source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves events from the ICS feed within [start, end].
func (s *ICSSource) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, op: "fetch ICS"}
	}

	return s.parseICS(resp.Body, start, end)
}

// parseICS parses an ICS stream and returns events within the window.
func (s *ICSSource) parseICS(r io.Reader, start, end time.Time) ([]Event, error) {
	dec := ics.NewDecoder(r)

	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		calColor := calendarColor(cal.Props)

		for _, comp := range cal.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			parsed, err := s.parseEvent(comp, calColor, start, end)
			if err != nil {
				// Skip events we can't parse
				continue
			}

			for _, event := range parsed {
				if event.End.After(start) && event.Start.Before(end) {
					events = append(events, event)
				}
			}
		}
	}

	return events, nil
}

// parseEvent converts an ICS VEVENT component to our Event type. For
// recurring events, it expands occurrences within the window; every
// instance gets its own occurrence key.
func (s *ICSSource) parseEvent(comp *ics.Component, color Color, start, end time.Time) ([]Event, error) {
	base := Event{
		Source: s.name,
		Color:  color,
	}

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		base.UID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		base.Summary = prop.Value
	}
	if prop := comp.Props.Get(ics.PropLocation); prop != nil {
		base.Location = prop.Value
	}
	if prop := comp.Props.Get(propColor); prop != nil {
		if c, ok := parseColor(prop.Value); ok {
			base.Color = c
		}
	}

	// Start time
	var startTime time.Time
	var allDay bool
	if prop := comp.Props.Get(ics.PropDateTimeStart); prop != nil {
		allDay = isDateOnly(prop)
		t, err := prop.DateTime(time.Local)
		if err != nil {
			// Floating time or date-only value
			t, err = parseDateTime(prop.Value)
			if err != nil {
				t, err = parseDateOnly(prop.Value)
				if err != nil {
					return nil, fmt.Errorf("parse start time: %w", err)
				}
				allDay = true
			}
		}
		startTime = t.In(time.Local)
	}

	// End time / duration
	var duration time.Duration
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			t, err = parseDateTime(prop.Value)
			if err != nil {
				t, err = parseDateOnly(prop.Value)
				if err != nil {
					return nil, fmt.Errorf("parse end time: %w", err)
				}
			}
		}
		endTime := t.In(time.Local)
		if allDay {
			// A date-only DTEND is exclusive (RFC 5545); pull it back
			// inside the final day.
			endTime = endTime.Add(-time.Second)
		}
		duration = endTime.Sub(startTime)
	} else if allDay {
		duration = 24*time.Hour - time.Second
	} else {
		// Default to 1 hour duration
		duration = time.Hour
	}

	rset, err := comp.RecurrenceSet(time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence: %w", err)
	}

	if rset == nil {
		base.Start = startTime
		base.End = startTime.Add(duration)
		if allDay {
			base.Start, base.End = normalizeAllDaySpan(base.Start, base.End)
		}
		base.OccurrenceKey = NewOccurrenceKey(base.UID, base.Start)
		return []Event{base}, nil
	}

	return expandRecurring(base, rset, duration, start, end, allDay), nil
}

// isDateOnly reports whether a DTSTART/DTEND property carries a date
// value (VALUE=DATE, or an untyped 8-character YYYYMMDD value).
func isDateOnly(prop *ics.Prop) bool {
	switch prop.ValueType() {
	case ics.ValueDate:
		return true
	case ics.ValueDefault:
		return len(prop.Value) == len("20060102")
	}
	return false
}

// expandRecurring materializes a recurring event's occurrences within the
// window. The window start is pushed back by the event duration so an
// occurrence that began before the window but is still running is kept.
func expandRecurring(base Event, rset *rrule.Set, duration time.Duration, start, end time.Time, allDay bool) []Event {
	occurrences := rset.Between(start.Add(-duration), end, true)

	events := make([]Event, 0, len(occurrences))
	for _, occ := range occurrences {
		event := base
		event.Start = occ.In(time.Local)
		event.End = event.Start.Add(duration)
		if allDay {
			event.Start, event.End = normalizeAllDaySpan(event.Start, event.End)
		}
		event.HasRecurrence = true
		event.OccurrenceKey = NewOccurrenceKey(base.UID, event.Start)
		events = append(events, event)
	}

	return events
}

// calendarColor reads an RFC 7986 COLOR or Apple's calendar color
// property from calendar-level props.
func calendarColor(props ics.Props) Color {
	if prop := props.Get(propColor); prop != nil {
		if c, ok := parseColor(prop.Value); ok {
			return c
		}
	}
	if prop := props.Get(propAppleColor); prop != nil {
		if c, ok := parseColor(prop.Value); ok {
			return c
		}
	}
	return DefaultColor
}

// cssColors maps the CSS color names commonly seen in COLOR properties.
var cssColors = map[string]Color{
	"red":       {R: 1, G: 0, B: 0},
	"green":     {R: 0, G: 0.5, B: 0},
	"blue":      {R: 0, G: 0, B: 1},
	"orange":    {R: 1, G: 0.65, B: 0},
	"purple":    {R: 0.5, G: 0, B: 0.5},
	"turquoise": {R: 0.25, G: 0.88, B: 0.82},
	"gray":      {R: 0.5, G: 0.5, B: 0.5},
}

// parseColor parses "#RRGGBB" (optionally "#RRGGBBAA") or a CSS color
// name into a [0,1] RGB triple.
func parseColor(v string) (Color, bool) {
	v = strings.TrimSpace(v)
	if c, ok := cssColors[strings.ToLower(v)]; ok {
		return c, true
	}
	if !strings.HasPrefix(v, "#") || (len(v) != 7 && len(v) != 9) {
		return Color{}, false
	}
	parse := func(s string) (float64, bool) {
		n, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0, false
		}
		return float64(n) / 255, true
	}
	r, ok1 := parse(v[1:3])
	g, ok2 := parse(v[3:5])
	b, ok3 := parse(v[5:7])
	if !ok1 || !ok2 || !ok3 {
		return Color{}, false
	}
	return Color{R: r, G: g, B: b}, true
}

// parseDateOnly parses a date-only value (YYYYMMDD format).
func parseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// parseDateTime parses a datetime value without timezone
// (YYYYMMDDTHHmmss format), i.e. "floating time".
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("20060102T150405", s, time.Local)
}
