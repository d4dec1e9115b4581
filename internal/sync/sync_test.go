package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calrichards/eventually/internal/calendar"
	"github.com/calrichards/eventually/internal/config"
	"github.com/calrichards/eventually/internal/filter"
)

type fakeSource struct {
	name   string
	events []calendar.Event
	err    error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	return f.events, f.err
}

func ev(summary string, start time.Time) calendar.Event {
	return calendar.Event{
		UID:           "uid-" + summary,
		OccurrenceKey: calendar.NewOccurrenceKey("uid-"+summary, start),
		Summary:       summary,
		Start:         start,
		End:           start.Add(30 * time.Minute),
	}
}

func newTestSyncer(t *testing.T, sources ...*fakeSource) *Syncer {
	t.Helper()
	s := &Syncer{interval: time.Minute}
	for _, src := range sources {
		f, err := filter.New(config.FilterConfig{})
		if err != nil {
			t.Fatal(err)
		}
		s.sources = append(s.sources, sourceWithFilter{source: src, filter: f})
	}
	return s
}

func TestSyncMergesSources(t *testing.T) {
	now := time.Now()
	a := &fakeSource{name: "a", events: []calendar.Event{ev("Later", now.Add(2 * time.Hour))}}
	b := &fakeSource{name: "b", events: []calendar.Event{ev("Sooner", now.Add(time.Hour))}}

	events, err := newTestSyncer(t, a, b).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Summary != "Sooner" || events[1].Summary != "Later" {
		t.Errorf("not sorted by start: %q, %q", events[0].Summary, events[1].Summary)
	}
}

func TestSyncPartialFailure(t *testing.T) {
	now := time.Now()
	ok := &fakeSource{name: "ok", events: []calendar.Event{ev("Standup", now.Add(time.Hour))}}
	broken := &fakeSource{name: "broken", err: errors.New("boom")}

	events, err := newTestSyncer(t, ok, broken).Sync(context.Background())
	if err != nil {
		t.Fatalf("partial failure should not error when events arrived: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Standup" {
		t.Errorf("got %v", events)
	}
}

func TestSyncTotalFailure(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	if _, err := newTestSyncer(t, broken).Sync(context.Background()); err == nil {
		t.Error("expected error when every source failed")
	}
}

func TestSyncPerSourceFilter(t *testing.T) {
	now := time.Now()
	src := &fakeSource{name: "work", events: []calendar.Event{
		ev("Standup", now.Add(time.Hour)),
		ev("Lunch", now.Add(2 * time.Hour)),
	}}

	s := newTestSyncer(t, src)
	f, err := filter.New(config.FilterConfig{
		Rules: []config.FilterRule{{Field: "title", Contains: "Standup"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	s.sources[0].filter = f

	events, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Standup" {
		t.Errorf("filter not applied: %v", events)
	}
}

func TestCreateSources(t *testing.T) {
	cfgs := []config.SourceConfig{
		{Name: "w", Type: "ics", URL: "https://example.com/cal.ics"},
		{Name: "c", Type: "caldav", URL: "https://cal.example.com", Username: "u", Password: "p"},
		{Name: "i", Type: "icloud", Username: "u", Password: "p"},
		{Name: "m", Type: "ms365"},
		{Name: "x", Type: "carrier-pigeon"},
	}

	sources, err := createSources(cfgs)
	if err != nil {
		t.Fatalf("createSources: %v", err)
	}
	// Unknown types are skipped, not fatal.
	if len(sources) != 4 {
		t.Errorf("got %d sources, want 4", len(sources))
	}
}
