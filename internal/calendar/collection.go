package calendar

import "time"

// Status tags the highlighted event as ongoing or not yet started.
type Status int

const (
	// StatusCurrent means now falls within the event's span.
	StatusCurrent Status = iota
	// StatusUpcoming means the event starts later today.
	StatusUpcoming
)

// Highlight is the event the status bar should feature right now.
type Highlight struct {
	Event  *Event
	Status Status
}

// Collection is an ordered sequence of events, sorted ascending by start
// time. It is created per fetch and read-only afterwards; dismissal is
// tracked externally by occurrence key.
type Collection struct {
	events []Event
}

// NewCollection wraps a pre-sorted event slice.
func NewCollection(events []Event) *Collection {
	return &Collection{events: events}
}

// Events returns the underlying slice.
func (c *Collection) Events() []Event {
	return c.events
}

// Len returns the number of events in the collection.
func (c *Collection) Len() int {
	return len(c.events)
}

// FindCurrentOrNext locates the event to highlight: among today's
// non-dismissed events in start order, the first one whose span contains
// now; otherwise the first one starting after now; otherwise nil.
func (c *Collection) FindCurrentOrNext(now time.Time, dismissed map[string]struct{}) *Highlight {
	today := localDate(now)
	var upcoming *Highlight

	for i := range c.events {
		e := &c.events[i]
		if !localDate(e.Start).Equal(today) {
			continue
		}
		if _, ok := dismissed[e.OccurrenceKey]; ok {
			continue
		}
		if e.IsOngoing(now) {
			return &Highlight{Event: e, Status: StatusCurrent}
		}
		if upcoming == nil && e.Start.After(now) {
			upcoming = &Highlight{Event: e, Status: StatusUpcoming}
		}
	}

	return upcoming
}

// Status-bar title templates and fallbacks.
const (
	currentTemplate  = "%s • %s left"
	upcomingTemplate = "%s • in %s"

	titleNoMoreEvents = "No more events today"
	titleNoEvents     = "No events today"
)

// StatusTitle renders the single-line status-bar title for the current
// state of the collection. Pure function of (events, now, dismissed).
func (c *Collection) StatusTitle(now time.Time, dismissed map[string]struct{}, opts TitleOptions) string {
	if h := c.FindCurrentOrNext(now, dismissed); h != nil {
		switch h.Status {
		case StatusCurrent:
			return FormatStatusTitle(h.Event.Summary, h.Event.End.Sub(now), currentTemplate, opts)
		default:
			return FormatStatusTitle(h.Event.Summary, h.Event.Start.Sub(now), upcomingTemplate, opts)
		}
	}

	if c.countOnDate(localDate(now)) == 0 {
		return titleNoEvents
	}
	return titleNoMoreEvents
}

// countOnDate counts events starting on the given local calendar date,
// regardless of dismissal.
func (c *Collection) countOnDate(date time.Time) int {
	n := 0
	for i := range c.events {
		if localDate(c.events[i].Start).Equal(date) {
			n++
		}
	}
	return n
}

// localDate truncates a timestamp to its local calendar date.
func localDate(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
