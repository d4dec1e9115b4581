// Package menu models the status menu as backend-neutral row and action
// descriptors. UI backends render rows; the app dispatches actions.
package menu

import "github.com/calrichards/eventually/internal/calendar"

// ActionKind enumerates everything a menu row can trigger. The set is
// closed; the app dispatches on it with a switch.
type ActionKind int

const (
	// ActionNone marks a non-interactive row (headers, separators).
	ActionNone ActionKind = iota
	// ActionJoinURL opens a meeting URL; payload is the URL.
	ActionJoinURL
	// ActionOpenEvent opens the event in the system calendar; payload
	// is a calendar URL for the event.
	ActionOpenEvent
	// ActionDismiss hides an occurrence for this session; payload is
	// the occurrence key.
	ActionDismiss
	// ActionQuit exits the app.
	ActionQuit
)

// Action pairs an action kind with its opaque payload.
type Action struct {
	Kind    ActionKind
	Payload string
}

// RowKind distinguishes row layouts for backends that render them
// differently.
type RowKind int

const (
	// RowAction is a clickable row (quick actions, quit).
	RowAction RowKind = iota
	// RowHeader is a disabled day-group header.
	RowHeader
	// RowEvent is an event entry.
	RowEvent
	// RowSeparator is a visual divider.
	RowSeparator
	// RowPlaceholder is a disabled informational row ("No events").
	RowPlaceholder
)

// Row is one rendered line of the status menu.
type Row struct {
	Kind  RowKind
	Title string

	// Bold marks the highlighted (current or next) event and the
	// day-name portion of headers.
	Bold bool
	// Dim marks past or dismissed events.
	Dim bool

	// Icon names a symbolic icon for backends that show one.
	Icon string
	// Color is the calendar color dot for event rows.
	Color *calendar.Color

	Action Action
}
