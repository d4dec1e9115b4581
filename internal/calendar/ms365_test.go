package calendar

import (
	"testing"
	"time"
)

func TestConvertEvent(t *testing.T) {
	src := &MS365Source{name: "work365"}

	t.Run("timed event converts to local", func(t *testing.T) {
		ge := graphEvent{
			ID:      "evt-1",
			Subject: "Sprint Review",
			Start:   graphDateTime{DateTime: "2026-03-10T15:00:00.0000000", TimeZone: "UTC"},
			End:     graphDateTime{DateTime: "2026-03-10T16:00:00.0000000", TimeZone: "UTC"},
		}
		e, err := src.convertEvent(ge)
		if err != nil {
			t.Fatalf("convertEvent: %v", err)
		}
		wantStart := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
		if !e.Start.Equal(wantStart) {
			t.Errorf("start %v, want %v", e.Start, wantStart)
		}
		if e.End.Sub(e.Start) != time.Hour {
			t.Errorf("duration %v, want 1h", e.End.Sub(e.Start))
		}
		if e.OccurrenceKey != NewOccurrenceKey("evt-1", e.Start) {
			t.Errorf("occurrence key %q", e.OccurrenceKey)
		}
	})

	t.Run("series instance keys on the master", func(t *testing.T) {
		ge := graphEvent{
			ID:             "instance-3",
			SeriesMasterID: "series-1",
			Subject:        "Standup",
			Start:          graphDateTime{DateTime: "2026-03-10T09:00:00", TimeZone: "UTC"},
			End:            graphDateTime{DateTime: "2026-03-10T09:15:00", TimeZone: "UTC"},
		}
		e, err := src.convertEvent(ge)
		if err != nil {
			t.Fatalf("convertEvent: %v", err)
		}
		if e.UID != "series-1" {
			t.Errorf("uid %q, want series-1", e.UID)
		}
		if !e.HasRecurrence {
			t.Error("series instance not marked recurring")
		}
		if e.OccurrenceKey != NewOccurrenceKey("series-1", e.Start) {
			t.Errorf("occurrence key %q", e.OccurrenceKey)
		}
	})

	t.Run("all-day event spans local midnight to end of day", func(t *testing.T) {
		// Graph reports all-day events as UTC midnights with an
		// exclusive end, whatever the local zone.
		ge := graphEvent{
			ID:       "holiday-1",
			Subject:  "Public Holiday",
			IsAllDay: true,
			Start:    graphDateTime{DateTime: "2026-03-10T00:00:00.0000000", TimeZone: "UTC"},
			End:      graphDateTime{DateTime: "2026-03-11T00:00:00.0000000", TimeZone: "UTC"},
		}
		e, err := src.convertEvent(ge)
		if err != nil {
			t.Fatalf("convertEvent: %v", err)
		}
		wantStart := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
		wantEnd := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.Local)
		if !e.Start.Equal(wantStart) {
			t.Errorf("start %v, want %v", e.Start, wantStart)
		}
		if !e.End.Equal(wantEnd) {
			t.Errorf("end %v, want %v", e.End, wantEnd)
		}
		if !IsAllDay(e.Start, e.End) {
			t.Errorf("IsAllDay(%v, %v) = false", e.Start, e.End)
		}
	})

	t.Run("multi-day all-day event keeps its final day", func(t *testing.T) {
		ge := graphEvent{
			ID:       "offsite-1",
			Subject:  "Team Offsite",
			IsAllDay: true,
			Start:    graphDateTime{DateTime: "2026-03-10T00:00:00.0000000", TimeZone: "UTC"},
			End:      graphDateTime{DateTime: "2026-03-13T00:00:00.0000000", TimeZone: "UTC"},
		}
		e, err := src.convertEvent(ge)
		if err != nil {
			t.Fatalf("convertEvent: %v", err)
		}
		wantEnd := time.Date(2026, time.March, 12, 23, 59, 59, 0, time.Local)
		if !e.End.Equal(wantEnd) {
			t.Errorf("end %v, want %v", e.End, wantEnd)
		}
	})

	t.Run("online meeting fills empty location", func(t *testing.T) {
		ge := graphEvent{
			ID:            "evt-2",
			Subject:       "1:1",
			Start:         graphDateTime{DateTime: "2026-03-10T11:00:00", TimeZone: "UTC"},
			End:           graphDateTime{DateTime: "2026-03-10T11:30:00", TimeZone: "UTC"},
			OnlineMeeting: &graphOnlineMeeting{JoinURL: "https://teams.microsoft.com/l/meetup-join/abc"},
		}
		e, err := src.convertEvent(ge)
		if err != nil {
			t.Fatalf("convertEvent: %v", err)
		}
		if e.Location != "https://teams.microsoft.com/l/meetup-join/abc" {
			t.Errorf("location %q", e.Location)
		}
	})
}
