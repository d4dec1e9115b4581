// Package ui defines the interface rendered status-menu backends
// implement: a persistent status item or a dmenu-style launcher.
package ui

import (
	"context"

	"github.com/calrichards/eventually/internal/menu"
)

// UI is the interface for presenting the status title and menu.
type UI interface {
	// Init initializes the backend. Must be called before Run.
	Init() error

	// Run enters the backend's event loop and blocks until the context
	// is cancelled or the user quits.
	Run(ctx context.Context) error

	// SetTitle updates the status-bar title.
	SetTitle(title string)

	// SetRows replaces the menu contents.
	SetRows(rows []menu.Row)

	// OnAction sets the callback invoked when the user activates a row.
	OnAction(fn func(menu.Action))
}
