package menu

import (
	"fmt"
	"time"

	"github.com/calrichards/eventually/internal/calendar"
	"github.com/calrichards/eventually/internal/links"
)

// Build assembles the full menu: quick actions for the highlighted
// event, the event list grouped by day, and the quit row.
func Build(c *calendar.Collection, now time.Time, dismissed map[string]struct{}) []Row {
	var rows []Row

	highlight := c.FindCurrentOrNext(now, dismissed)

	if highlight != nil {
		rows = append(rows, quickActions(highlight.Event)...)
		rows = append(rows, Row{Kind: RowSeparator})
	}

	if c.Len() == 0 {
		rows = append(rows, Row{Kind: RowPlaceholder, Title: "No events"})
	} else {
		rows = append(rows, dayGroups(c.Events(), highlight, now, dismissed)...)
	}

	rows = append(rows, Row{
		Kind:   RowAction,
		Title:  "Quit",
		Action: Action{Kind: ActionQuit},
	})

	return rows
}

// quickActions builds the join/open/dismiss rows for the highlighted
// event.
func quickActions(e *calendar.Event) []Row {
	var rows []Row

	if url, ok := links.Extract(e.Location); ok {
		service := links.Detect(url)
		rows = append(rows, Row{
			Kind:   RowAction,
			Title:  fmt.Sprintf("Join %s Event", service.Name()),
			Icon:   service.Icon(),
			Action: Action{Kind: ActionJoinURL, Payload: url},
		})
	}

	rows = append(rows, Row{
		Kind:   RowAction,
		Title:  "Open in Calendar",
		Icon:   "calendar",
		Action: Action{Kind: ActionOpenEvent, Payload: links.EventURL(e.UID, e.HasRecurrence)},
	})

	rows = append(rows, Row{
		Kind:   RowAction,
		Title:  "Dismiss Event",
		Icon:   "circle-x",
		Action: Action{Kind: ActionDismiss, Payload: e.OccurrenceKey},
	})

	return rows
}

// dayGroups renders events bucketed into the four fetched days, each
// under a header like "Today, 22 Nov". Empty days get no header.
func dayGroups(events []calendar.Event, highlight *calendar.Highlight, now time.Time, dismissed map[string]struct{}) []Row {
	var rows []Row

	for offset := 0; offset < 4; offset++ {
		date := now.AddDate(0, 0, offset)
		var dayEvents []calendar.Event
		for _, e := range events {
			if sameLocalDate(e.Start, date) {
				dayEvents = append(dayEvents, e)
			}
		}
		if len(dayEvents) == 0 {
			continue
		}

		rows = append(rows, Row{
			Kind:  RowHeader,
			Title: fmt.Sprintf("%s, %s", dayName(date, offset), date.Local().Format("02 Jan")),
			Bold:  true,
		})

		for i := range dayEvents {
			rows = append(rows, eventRow(&dayEvents[i], highlight, now, dismissed))
		}

		rows = append(rows, Row{Kind: RowSeparator})
	}

	return rows
}

// eventRow renders one event entry: a time prefix, the title, the
// calendar color dot, and emphasis state.
func eventRow(e *calendar.Event, highlight *calendar.Highlight, now time.Time, dismissed map[string]struct{}) Row {
	var prefix string
	if calendar.IsAllDay(e.Start, e.End) {
		prefix = "All day:"
	} else {
		prefix = fmt.Sprintf("%s - %s", calendar.FormatClock(e.Start), calendar.FormatClock(e.End))
	}

	_, isDismissed := dismissed[e.OccurrenceKey]
	isHighlight := highlight != nil && highlight.Event.OccurrenceKey == e.OccurrenceKey

	color := e.Color
	return Row{
		Kind:   RowEvent,
		Title:  fmt.Sprintf("%s %s", prefix, e.Summary),
		Bold:   isHighlight,
		Dim:    e.End.Before(now) || isDismissed,
		Icon:   "circle",
		Color:  &color,
		Action: Action{Kind: ActionOpenEvent, Payload: links.EventURL(e.UID, e.HasRecurrence)},
	}
}

// dayName labels the group header: Today, Tomorrow, then weekday names.
func dayName(date time.Time, offset int) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return date.Local().Format("Monday")
	}
}

func sameLocalDate(a, b time.Time) bool {
	al, bl := a.Local(), b.Local()
	return al.Year() == bl.Year() && al.YearDay() == bl.YearDay()
}
