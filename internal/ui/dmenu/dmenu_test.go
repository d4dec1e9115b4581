package dmenu

import (
	"strings"
	"testing"

	"github.com/calrichards/eventually/internal/menu"
)

func TestFormatRows(t *testing.T) {
	rows := []menu.Row{
		{Kind: menu.RowAction, Title: "Join Zoom Event", Action: menu.Action{Kind: menu.ActionJoinURL, Payload: "https://zoom.us/j/1"}},
		{Kind: menu.RowSeparator},
		{Kind: menu.RowHeader, Title: "Today, 10 Mar"},
		{Kind: menu.RowEvent, Title: "10:00 - 10:30 Standup", Bold: true, Action: menu.Action{Kind: menu.ActionOpenEvent, Payload: "ical://x"}},
		{Kind: menu.RowEvent, Title: "08:00 - 08:30 Breakfast", Dim: true, Action: menu.Action{Kind: menu.ActionOpenEvent, Payload: "ical://y"}},
		{Kind: menu.RowAction, Title: "Quit", Action: menu.Action{Kind: menu.ActionQuit}},
	}

	lines, actions := formatRows(rows)

	if len(lines) != 5 {
		t.Fatalf("got %d lines %v, want separators dropped", len(lines), lines)
	}

	if !strings.Contains(lines[1], "━━━━ Today, 10 Mar ━━━━") {
		t.Errorf("header line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "▶ ") {
		t.Errorf("bold event line %q, want highlight marker", lines[2])
	}
	if !strings.HasPrefix(lines[3], "· ") {
		t.Errorf("dim event line %q, want dim marker", lines[3])
	}

	if a := actions[lines[0]]; a.Kind != menu.ActionJoinURL {
		t.Errorf("join action %+v", a)
	}
	if a := actions[lines[1]]; a.Kind != menu.ActionNone {
		t.Errorf("header action %+v, want none", a)
	}
	if a := actions[lines[4]]; a.Kind != menu.ActionQuit {
		t.Errorf("quit action %+v", a)
	}
}

func TestFormatRowsDuplicateTitles(t *testing.T) {
	rows := []menu.Row{
		{Kind: menu.RowEvent, Title: "10:00 - 10:30 Standup", Action: menu.Action{Kind: menu.ActionOpenEvent, Payload: "a"}},
		{Kind: menu.RowEvent, Title: "10:00 - 10:30 Standup", Action: menu.Action{Kind: menu.ActionOpenEvent, Payload: "b"}},
	}

	lines, actions := formatRows(rows)
	if len(lines) != 2 || lines[0] == lines[1] {
		t.Fatalf("duplicate lines not disambiguated: %v", lines)
	}
	if actions[lines[0]].Payload == actions[lines[1]].Payload {
		t.Error("duplicate lines map to the same action")
	}
}
