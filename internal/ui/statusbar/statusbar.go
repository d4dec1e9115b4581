// Package statusbar renders the menu as a system status item using the
// systray library.
package statusbar

import (
	"context"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/calrichards/eventually/internal/menu"
)

// itemPoolSize bounds how many menu items we pre-create. systray cannot
// remove items once added, so a fixed pool is allocated up front and
// unused items are hidden between renders.
const itemPoolSize = 64

// StatusBar implements ui.UI on top of systray.
type StatusBar struct {
	onAction func(menu.Action)

	mu    sync.Mutex
	title string
	rows  []menu.Row
	items []*systray.MenuItem
	ready bool
}

// New creates a status bar backend.
func New() *StatusBar {
	return &StatusBar{}
}

// Init is a no-op; systray initializes inside Run.
func (s *StatusBar) Init() error {
	return nil
}

// Run enters the systray main loop. It blocks until the context is
// cancelled or systray exits.
func (s *StatusBar) Run(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() {
		s.onReady(ctx)
	}, func() {
		close(done)
	})

	<-done
	return ctx.Err()
}

// onReady allocates the item pool and performs the first render.
func (s *StatusBar) onReady(ctx context.Context) {
	s.mu.Lock()
	for i := 0; i < itemPoolSize; i++ {
		item := systray.AddMenuItem("", "")
		item.Hide()
		s.items = append(s.items, item)
		go s.watchClicks(ctx, i, item)
	}
	s.ready = true
	title := s.title
	rows := s.rows
	s.mu.Unlock()

	if title != "" {
		systray.SetTitle(title)
	}
	if rows != nil {
		s.render(rows)
	}
}

// watchClicks forwards clicks on a pooled item to the action callback.
func (s *StatusBar) watchClicks(ctx context.Context, idx int, item *systray.MenuItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-item.ClickedCh:
			s.mu.Lock()
			var action menu.Action
			if idx < len(s.rows) {
				action = s.rows[idx].Action
			}
			fn := s.onAction
			s.mu.Unlock()

			if action.Kind == menu.ActionNone || fn == nil {
				continue
			}
			fn(action)
		}
	}
}

// SetTitle updates the status item title.
func (s *StatusBar) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	ready := s.ready
	s.mu.Unlock()

	if ready {
		systray.SetTitle(title)
	}
}

// SetRows replaces the menu contents.
func (s *StatusBar) SetRows(rows []menu.Row) {
	s.mu.Lock()
	s.rows = rows
	ready := s.ready
	s.mu.Unlock()

	if ready {
		s.render(rows)
	}
}

// OnAction sets the action callback.
func (s *StatusBar) OnAction(fn func(menu.Action)) {
	s.mu.Lock()
	s.onAction = fn
	s.mu.Unlock()
}

// render maps rows onto the pooled items. Rows beyond the pool are
// dropped with a warning.
func (s *StatusBar) render(rows []menu.Row) {
	s.mu.Lock()
	items := s.items
	s.mu.Unlock()

	if len(rows) > len(items) {
		slog.Warn("menu truncated", "rows", len(rows), "pool", len(items))
		rows = rows[:len(items)]
	}

	for i, item := range items {
		if i >= len(rows) {
			item.Hide()
			continue
		}

		row := rows[i]
		item.SetTitle(rowTitle(row))
		if row.Action.Kind == menu.ActionNone {
			item.Disable()
		} else {
			item.Enable()
		}
		item.Show()
	}
}

// rowTitle renders a row's display text. systray has no attributed
// strings, so emphasis is approximated with text markers.
func rowTitle(row menu.Row) string {
	switch row.Kind {
	case menu.RowSeparator:
		return "────────────"
	case menu.RowEvent:
		title := row.Title
		if row.Bold {
			title = "▶ " + title
		}
		return title
	default:
		return row.Title
	}
}
