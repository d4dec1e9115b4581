package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	ics "github.com/emersion/go-ical"
)

// Custom properties carried in the snapshot so a reload round-trips
// source attribution and calendar color.
const (
	propSnapshotSource = "X-EVENTUALLY-SOURCE"
	propSnapshotColor  = "X-EVENTUALLY-COLOR"
	propSnapshotRecurs = "X-EVENTUALLY-RECURS"
)

// Merge combines events from multiple sources into a single slice
// sorted by start time.
func Merge(eventLists ...[]Event) []Event {
	var total int
	for _, list := range eventLists {
		total += len(list)
	}

	merged := make([]Event, 0, total)
	for _, list := range eventLists {
		merged = append(merged, list...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})

	return merged
}

// SnapshotPath returns the on-disk location of the last-sync snapshot.
func SnapshotPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "eventually", "calendar.ics"), nil
}

// WriteSnapshot persists events as an iCalendar file so the next start
// can show data before the first sync completes. The write is atomic.
func WriteSnapshot(path string, events []Event) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//eventually//calendar snapshot//EN")

	for _, event := range events {
		ev := ics.NewEvent()
		ev.Props.SetText(ics.PropUID, event.UID)
		ev.Props.SetText(ics.PropSummary, event.Summary)
		ev.Props.SetDateTime(ics.PropDateTimeStart, event.Start)
		ev.Props.SetDateTime(ics.PropDateTimeEnd, event.End)
		ev.Props.SetDateTime(ics.PropDateTimeStamp, time.Now())
		if event.Location != "" {
			ev.Props.SetText(ics.PropLocation, event.Location)
		}
		if event.HasRecurrence {
			// Marker only; instances are stored pre-expanded.
			ev.Props.SetText(propSnapshotRecurs, "1")
		}
		ev.Props.SetText(propSnapshotSource, event.Source)
		ev.Props.SetText(propSnapshotColor, formatColor(event.Color))
		cal.Children = append(cal.Children, ev.Component)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".calendar-*.ics")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ics.NewEncoder(tmp).Encode(cal); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// ReadSnapshot loads events from a previously written snapshot.
// A missing file is not an error; it returns an empty slice.
func ReadSnapshot(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec := ics.NewDecoder(f)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err != nil {
			break
		}

		for _, child := range cal.Children {
			if child.Name != ics.CompEvent {
				continue
			}

			event := ics.Event{Component: child}
			summary, _ := event.Props.Text(ics.PropSummary)
			uid, _ := event.Props.Text(ics.PropUID)
			location, _ := event.Props.Text(ics.PropLocation)
			source, _ := event.Props.Text(propSnapshotSource)

			start, err := event.DateTimeStart(time.Local)
			if err != nil {
				continue
			}
			end, err := event.DateTimeEnd(time.Local)
			if err != nil {
				continue
			}

			color := DefaultColor
			if hex, err := event.Props.Text(propSnapshotColor); err == nil && hex != "" {
				if c, ok := parseColor(hex); ok {
					color = c
				}
			}

			recurs := false
			if v, err := event.Props.Text(propSnapshotRecurs); err == nil && v == "1" {
				recurs = true
			}

			events = append(events, Event{
				UID:           uid,
				OccurrenceKey: NewOccurrenceKey(uid, start),
				Summary:       summary,
				Start:         start,
				End:           end,
				HasRecurrence: recurs,
				Location:      location,
				Color:         color,
				Source:        source,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

// formatColor renders a color as a #RRGGBB hex string.
func formatColor(c Color) string {
	clamp := func(v float64) int {
		n := int(v*255 + 0.5)
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return n
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(c.R), clamp(c.G), clamp(c.B))
}
