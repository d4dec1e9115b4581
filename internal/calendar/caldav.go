package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAVSource fetches events from a CalDAV server.
type CalDAVSource struct {
	name      string
	url       string
	username  string
	password  string
	calendars []string // Optional: restrict to specific calendars
}

// NewCalDAVSource creates a new CalDAV calendar source.
func NewCalDAVSource(name, url, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       url,
		username:  username,
		password:  password,
		calendars: calendars,
	}
}

// iCloudCalDAVURL is the base URL for iCloud CalDAV.
const iCloudCalDAVURL = "https://caldav.icloud.com"

// NewICloudSource creates a new iCloud calendar source. iCloud speaks
// CalDAV with a fixed server URL; use an app-specific password.
func NewICloudSource(name, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       iCloudCalDAVURL,
		username:  username,
		password:  password,
		calendars: calendars,
	}
}

// Name returns the display name of this calendar source.
func (s *CalDAVSource) Name() string {
	return s.name
}

// Fetch retrieves events from the CalDAV server within [start, end].
func (s *CalDAVSource) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, s.url)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var allEvents []Event
	for _, cal := range cals {
		if len(s.calendars) > 0 && !s.shouldSyncCalendar(cal.Name) {
			continue
		}

		events, err := s.fetchCalendarEvents(ctx, client, cal, start, end)
		if err != nil {
			// Log but continue with other calendars
			slog.Warn("failed to fetch calendar", "source", s.name, "calendar", cal.Name, "error", err)
			continue
		}

		allEvents = append(allEvents, events...)
	}

	return allEvents, nil
}

// shouldSyncCalendar checks if a calendar is in the configured allow list.
func (s *CalDAVSource) shouldSyncCalendar(name string) bool {
	for _, c := range s.calendars {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// fetchCalendarEvents fetches events from a single calendar.
func (s *CalDAVSource) fetchCalendarEvents(ctx context.Context, client *caldav.Client, cal caldav.Calendar, start, end time.Time) ([]Event, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name: "VEVENT",
				Props: []string{
					"SUMMARY",
					"DTSTART",
					"DTEND",
					"DURATION",
					"UID",
					"LOCATION",
					"RRULE",
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	// CalDAV has no standard per-query color; re-use the ICS parser so
	// recurring objects expand and calendar-level colors are honored.
	parser := &ICSSource{name: fmt.Sprintf("%s/%s", s.name, cal.Name)}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}

		color := calendarColor(obj.Data.Props)

		for _, comp := range obj.Data.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			parsed, err := parser.parseEvent(comp, color, start, end)
			if err != nil {
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

// basicAuthTransport adds basic auth to HTTP requests. Credential
// rejections are surfaced as statusError here so callers can tell a
// denial from an unreachable server regardless of how the CalDAV
// client wraps the failure.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, &statusError{status: resp.StatusCode, op: "caldav request"}
	}
	return resp, nil
}

// Ensure CalDAVSource implements Source.
var _ Source = (*CalDAVSource)(nil)
