package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/calrichards/eventually/internal/calendar"
	"github.com/calrichards/eventually/internal/config"
	"github.com/calrichards/eventually/internal/dismiss"
	"github.com/calrichards/eventually/internal/links"
	"github.com/calrichards/eventually/internal/menu"
	"github.com/calrichards/eventually/internal/notify"
	"github.com/calrichards/eventually/internal/sync"
	"github.com/calrichards/eventually/internal/ui"
	"github.com/calrichards/eventually/internal/ui/dmenu"
	"github.com/calrichards/eventually/internal/ui/statusbar"
)

// App is the main eventually application.
type App struct {
	cfg       *config.Config
	ui        ui.UI
	notifier  *notify.Notifier
	syncer    *sync.Syncer
	dismissed *dismiss.Set

	mu          gosync.RWMutex
	collection  *calendar.Collection
	lastSync    time.Time
	lastSyncErr error

	// notification dedup: occurrence key + threshold -> sent time
	notifiedEvents map[string]time.Time
	// notification id -> join URL for action callbacks
	notifJoinURLs map[uint32]string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the application from configuration.
func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:            cfg,
		dismissed:      dismiss.New(),
		collection:     calendar.NewCollection(nil),
		notifiedEvents: make(map[string]time.Time),
		notifJoinURLs:  make(map[uint32]string),
	}
}

// Run starts background loops and enters the UI main loop. It blocks
// until the user quits or a signal arrives.
func (a *App) Run() error {
	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()

	var err error
	a.syncer, err = sync.NewSyncer(a.cfg)
	if err != nil {
		return fmt.Errorf("create syncer: %w", err)
	}
	if a.syncer.SourceCount() == 0 {
		return fmt.Errorf("no calendar sources configured")
	}

	if err := a.checkAccess(); err != nil {
		return err
	}

	a.ui, err = a.createUI()
	if err != nil {
		return fmt.Errorf("create UI: %w", err)
	}
	if err := a.ui.Init(); err != nil {
		return fmt.Errorf("init UI: %w", err)
	}
	a.ui.OnAction(a.handleAction)

	// Show the last snapshot immediately; the first sync replaces it.
	a.preloadSnapshot()

	if a.cfg.Notifications.Enabled {
		a.notifier, err = notify.New("eventually")
		if err != nil {
			slog.Warn("failed to initialize notifications", "error", err)
		} else {
			a.notifier.WatchActions(a.handleNotificationAction)
		}
	}

	go a.syncer.Run(a.ctx, a.onSyncComplete)
	go a.refreshLoop()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			slog.Info("received signal, shutting down")
			a.cancel()
		case <-a.ctx.Done():
		}
	}()

	slog.Info("eventually running",
		"sources", a.syncer.SourceCount(),
		"sync_interval", a.syncer.Interval(),
	)

	err = a.ui.Run(a.ctx)
	a.cleanup()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// checkAccess probes every source once at startup. A credential
// rejection is fatal; an unreachable store is not, since the snapshot
// still works offline.
func (a *App) checkAccess() error {
	for _, src := range a.syncer.Sources() {
		err := calendar.RequestAccess(a.ctx, src, calendar.DefaultAccessTimeout)
		switch {
		case err == nil:
		case errors.Is(err, calendar.ErrAccessDenied):
			fmt.Fprintf(os.Stderr, "access to calendar source %q was denied\n", src.Name())
			fmt.Fprintln(os.Stderr, "check the source's credentials in the config file and any privacy settings on the account")
			return err
		case errors.Is(err, calendar.ErrStoreUnavailable):
			slog.Warn("calendar store unavailable, continuing with cached data", "source", src.Name(), "error", err)
		default:
			slog.Warn("access probe failed", "source", src.Name(), "error", err)
		}
	}
	return nil
}

// createUI picks the configured backend.
func (a *App) createUI() (ui.UI, error) {
	switch a.cfg.UI.Backend {
	case "", "statusbar":
		return statusbar.New(), nil
	case "dmenu":
		return dmenu.New(dmenu.Config{
			Program: a.cfg.UI.Program,
			Args:    a.cfg.UI.Args,
		})
	default:
		return nil, fmt.Errorf("unknown UI backend %q (use statusbar or dmenu)", a.cfg.UI.Backend)
	}
}

// preloadSnapshot loads the last-sync snapshot so the menu has content
// before the first fetch completes.
func (a *App) preloadSnapshot() {
	events, err := calendar.ReadSnapshot(a.cfg.Sync.Snapshot)
	if err != nil {
		slog.Warn("failed to read snapshot", "path", a.cfg.Sync.Snapshot, "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	a.mu.Lock()
	a.collection = calendar.NewCollection(events)
	a.mu.Unlock()

	slog.Debug("preloaded snapshot", "events", len(events))
	a.render()
}

// cleanup releases resources when the app is shutting down.
func (a *App) cleanup() {
	a.cancel()
	if a.notifier != nil {
		a.notifier.Close()
	}
}

// onSyncComplete is called after each sync completes.
func (a *App) onSyncComplete(events []calendar.Event, err error) {
	a.mu.Lock()
	if err != nil {
		slog.Warn("sync failed", "error", err)
		a.lastSyncErr = err
		// Keep old events on error
	} else {
		a.collection = calendar.NewCollection(events)
		a.lastSyncErr = nil
	}
	a.lastSync = time.Now()
	a.mu.Unlock()

	if err == nil {
		if werr := calendar.WriteSnapshot(a.cfg.Sync.Snapshot, events); werr != nil {
			slog.Warn("failed to write snapshot", "error", werr)
		}
	}

	a.render()
}

// render recomputes the status title and menu from current state.
func (a *App) render() {
	a.mu.RLock()
	c := a.collection
	a.mu.RUnlock()

	now := time.Now()
	dismissed := a.dismissed.Snapshot()
	opts := calendar.TitleOptions{
		Budget:     a.cfg.UI.TitleBudget,
		RoundHours: a.cfg.UI.RoundHours,
	}

	a.ui.SetTitle(c.StatusTitle(now, dismissed, opts))
	a.ui.SetRows(menu.Build(c, now, dismissed))
}

// handleAction dispatches a menu selection.
func (a *App) handleAction(action menu.Action) {
	slog.Debug("menu action", "kind", action.Kind, "payload", action.Payload)

	switch action.Kind {
	case menu.ActionJoinURL, menu.ActionOpenEvent:
		if err := links.Open(action.Payload); err != nil {
			slog.Warn("failed to open URL", "url", action.Payload, "error", err)
		}
	case menu.ActionDismiss:
		a.dismissed.Add(action.Payload)
		a.render()
	case menu.ActionQuit:
		a.cancel()
	}
}

// handleNotificationAction reacts to notification buttons.
func (a *App) handleNotificationAction(id uint32, actionKey string) {
	if actionKey != notify.ActionJoin {
		return
	}

	a.mu.Lock()
	url := a.notifJoinURLs[id]
	delete(a.notifJoinURLs, id)
	a.mu.Unlock()

	if url == "" {
		return
	}
	if err := links.Open(url); err != nil {
		slog.Warn("failed to open URL from notification", "url", url, "error", err)
	}
}

// refreshLoop re-renders every 30 seconds so countdowns stay current,
// and checks notification thresholds.
func (a *App) refreshLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.render()
			a.checkNotifications()
		case <-a.ctx.Done():
			return
		}
	}
}

// checkNotifications sends reminders for events crossing a configured
// threshold.
func (a *App) checkNotifications() {
	if a.notifier == nil || !a.cfg.Notifications.Enabled {
		return
	}

	a.mu.RLock()
	events := a.collection.Events()
	a.mu.RUnlock()

	now := time.Now()
	dismissed := a.dismissed.Snapshot()

	for i := range events {
		e := &events[i]
		if e.End.Before(now) {
			continue
		}
		if _, ok := dismissed[e.OccurrenceKey]; ok {
			continue
		}

		startsIn := e.Start.Sub(now)
		if startsIn < 0 {
			continue
		}

		for _, before := range a.cfg.Notifications.Before {
			if startsIn > before || startsIn <= before-time.Minute {
				continue
			}

			key := e.OccurrenceKey + "|" + before.String()
			if _, ok := a.notifiedEvents[key]; ok {
				continue
			}
			a.notifiedEvents[key] = now

			notif := notify.ForEvent(e, startsIn)
			id, err := a.notifier.Send(notif)
			if err != nil {
				slog.Warn("failed to send notification", "error", err)
				continue
			}

			if url, ok := links.Extract(e.Location); ok && id != 0 {
				a.mu.Lock()
				a.notifJoinURLs[id] = url
				a.mu.Unlock()
			}
		}
	}

	// Drop dedup entries older than a day.
	cutoff := now.Add(-24 * time.Hour)
	for k, t := range a.notifiedEvents {
		if t.Before(cutoff) {
			delete(a.notifiedEvents, k)
		}
	}
}
