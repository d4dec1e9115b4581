package calendar

import (
	"strings"
	"testing"
	"time"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
X-APPLE-CALENDAR-COLOR:#FF0000
BEGIN:VEVENT
UID:meeting-1
SUMMARY:Team Standup
DTSTART:20260310T100000Z
DTEND:20260310T103000Z
LOCATION:https://zoom.us/j/123456
END:VEVENT
BEGIN:VEVENT
UID:daily-1
SUMMARY:Daily Check-in
DTSTART:20260309T140000Z
DTEND:20260309T141500Z
RRULE:FREQ=DAILY;COUNT=5
END:VEVENT
BEGIN:VEVENT
UID:colored-1
SUMMARY:Design Review
DTSTART:20260310T160000Z
DTEND:20260310T170000Z
COLOR:turquoise
END:VEVENT
END:VCALENDAR
`

func TestParseICS(t *testing.T) {
	src := &ICSSource{name: "work"}
	windowStart := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, time.March, 13, 23, 59, 59, 0, time.UTC)

	events, err := src.parseICS(strings.NewReader(sampleICS), windowStart, windowEnd)
	if err != nil {
		t.Fatalf("parseICS: %v", err)
	}

	byUID := make(map[string][]Event)
	for _, e := range events {
		byUID[e.UID] = append(byUID[e.UID], e)
	}

	t.Run("single event", func(t *testing.T) {
		got := byUID["meeting-1"]
		if len(got) != 1 {
			t.Fatalf("got %d events, want 1", len(got))
		}
		e := got[0]
		if e.Summary != "Team Standup" {
			t.Errorf("summary %q", e.Summary)
		}
		if e.Location != "https://zoom.us/j/123456" {
			t.Errorf("location %q", e.Location)
		}
		if e.HasRecurrence {
			t.Error("single event marked recurring")
		}
		if e.Source != "work" {
			t.Errorf("source %q", e.Source)
		}
		if d := e.Duration(); d != 30*time.Minute {
			t.Errorf("duration %v, want 30m", d)
		}
	})

	t.Run("recurring event expands into instances", func(t *testing.T) {
		got := byUID["daily-1"]
		if len(got) != 5 {
			t.Fatalf("got %d instances, want 5", len(got))
		}
		keys := make(map[string]struct{})
		for _, e := range got {
			if !e.HasRecurrence {
				t.Errorf("instance at %v not marked recurring", e.Start)
			}
			if _, dup := keys[e.OccurrenceKey]; dup {
				t.Errorf("duplicate occurrence key %q", e.OccurrenceKey)
			}
			keys[e.OccurrenceKey] = struct{}{}
		}
	})

	t.Run("occurrence key format", func(t *testing.T) {
		e := byUID["meeting-1"][0]
		want := NewOccurrenceKey("meeting-1", e.Start)
		if e.OccurrenceKey != want {
			t.Errorf("key %q, want %q", e.OccurrenceKey, want)
		}
	})

	t.Run("event color overrides calendar color", func(t *testing.T) {
		e := byUID["colored-1"][0]
		if e.Color == DefaultColor {
			t.Error("color not applied")
		}
		// turquoise, not the calendar-level red
		if e.Color.R > 0.5 {
			t.Errorf("got red-ish color %+v, want turquoise", e.Color)
		}
	})

	t.Run("calendar color applies when event has none", func(t *testing.T) {
		e := byUID["meeting-1"][0]
		if e.Color.R != 1 || e.Color.G != 0 || e.Color.B != 0 {
			t.Errorf("got %+v, want calendar red", e.Color)
		}
	})
}

const allDayICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:holiday-1
SUMMARY:Public Holiday
DTSTART;VALUE=DATE:20260310
DTEND;VALUE=DATE:20260311
END:VEVENT
BEGIN:VEVENT
UID:offsite-1
SUMMARY:Team Offsite
DTSTART;VALUE=DATE:20260310
DTEND;VALUE=DATE:20260313
END:VEVENT
BEGIN:VEVENT
UID:birthday-1
SUMMARY:Birthday
DTSTART;VALUE=DATE:20260311
END:VEVENT
END:VCALENDAR
`

func TestParseICSAllDay(t *testing.T) {
	src := &ICSSource{name: "personal"}
	windowStart := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(2026, time.March, 13, 23, 59, 59, 0, time.Local)

	events, err := src.parseICS(strings.NewReader(allDayICS), windowStart, windowEnd)
	if err != nil {
		t.Fatalf("parseICS: %v", err)
	}

	byUID := make(map[string]Event)
	for _, e := range events {
		byUID[e.UID] = e
	}

	tests := []struct {
		uid       string
		wantStart time.Time
		wantEnd   time.Time
	}{
		// Date-only DTEND is exclusive, so a one-day event ends at
		// 23:59:59 of its start day.
		{
			uid:       "holiday-1",
			wantStart: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2026, time.March, 10, 23, 59, 59, 0, time.Local),
		},
		{
			uid:       "offsite-1",
			wantStart: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2026, time.March, 12, 23, 59, 59, 0, time.Local),
		},
		// No DTEND: the event covers its start day.
		{
			uid:       "birthday-1",
			wantStart: time.Date(2026, time.March, 11, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2026, time.March, 11, 23, 59, 59, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			e, ok := byUID[tt.uid]
			if !ok {
				t.Fatal("event not parsed")
			}
			if !e.Start.Equal(tt.wantStart) {
				t.Errorf("start %v, want %v", e.Start, tt.wantStart)
			}
			if !e.End.Equal(tt.wantEnd) {
				t.Errorf("end %v, want %v", e.End, tt.wantEnd)
			}
			if !IsAllDay(e.Start, e.End) {
				t.Errorf("IsAllDay(%v, %v) = false", e.Start, e.End)
			}
		})
	}
}

func TestParseICSWindowFilter(t *testing.T) {
	src := &ICSSource{name: "work"}
	// Window covering only March 10; the event on the 9th must drop out
	// except where recurrence instances land inside.
	windowStart := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC)

	events, err := src.parseICS(strings.NewReader(sampleICS), windowStart, windowEnd)
	if err != nil {
		t.Fatalf("parseICS: %v", err)
	}

	for _, e := range events {
		if !e.End.After(windowStart) || !e.Start.Before(windowEnd) {
			t.Errorf("event %q (%v-%v) outside window", e.Summary, e.Start, e.End)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{in: "#FF0000", want: Color{R: 1, G: 0, B: 0}, ok: true},
		{in: "#00FF00", want: Color{R: 0, G: 1, B: 0}, ok: true},
		{in: "#0000FFCC", want: Color{R: 0, G: 0, B: 1}, ok: true},
		{in: "red", want: Color{R: 1, G: 0, B: 0}, ok: true},
		{in: "not-a-color", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseColor(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
