// Package calendar provides calendar source interfaces, the event model,
// and the status resolution logic for the status bar.
package calendar

import (
	"context"
	"strconv"
	"time"
)

// Color is an RGB triple with components in [0, 1] identifying the
// calendar an event came from.
type Color struct {
	R, G, B float64
}

// DefaultColor is used when a source does not advertise a calendar color.
var DefaultColor = Color{R: 0.5, G: 0.5, B: 0.5}

// Event represents one concrete calendar occurrence. Events are built
// fresh on every fetch and are immutable afterwards.
type Event struct {
	// UID is the source-system identifier. Instances of a recurring
	// series share one UID; it may be empty.
	UID string

	// OccurrenceKey uniquely identifies this instance within a fetched
	// batch. It is the sole identity used for dismissal and highlight
	// checks, since UID alone is ambiguous for recurring events.
	OccurrenceKey string

	// Summary is the event title.
	Summary string

	// Start is when the event begins, in the local time zone.
	Start time.Time

	// End is when the event ends, in the local time zone.
	End time.Time

	// HasRecurrence is set when the event belongs to a recurring series.
	HasRecurrence bool

	// Location is the event location (may contain a meeting URL).
	Location string

	// Color identifies the source calendar.
	Color Color

	// Source is the name of the calendar source this event came from.
	Source string
}

// NewOccurrenceKey derives the per-instance identity from the series UID
// and the instance start time.
func NewOccurrenceKey(uid string, start time.Time) string {
	return uid + "|||" + strconv.FormatInt(start.Unix(), 10)
}

// IsOngoing reports whether the event is happening at the given instant.
// Both bounds are inclusive.
func (e *Event) IsOngoing(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.End)
}

// StartsIn returns how long until the event starts (negative if started).
func (e *Event) StartsIn(now time.Time) time.Duration {
	return e.Start.Sub(now)
}

// Duration returns the duration of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Source is the interface calendar sources implement.
type Source interface {
	// Name returns the display name of this calendar source.
	Name() string

	// Fetch retrieves events between start and end. Recurring events are
	// expanded into concrete occurrences within the window.
	Fetch(ctx context.Context, start, end time.Time) ([]Event, error)
}

// daysToFetch is the look-ahead of the fetch window.
const daysToFetch = 4

// FetchWindow returns the fixed fetch window: local midnight today
// through the end of day (23:59:59) four days out.
func FetchWindow(now time.Time) (start, end time.Time) {
	local := now.Local()
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	endDay := start.AddDate(0, 0, daysToFetch)
	end = time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, time.Local)
	return start, end
}
