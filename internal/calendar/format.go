package calendar

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// endOfDaySecs is the time-of-day (in seconds since midnight) that marks
// the end bound of an all-day event. Calendar sources encode all-day
// events as midnight through 23:59:59 rather than with a flag.
const endOfDaySecs = 86399

// ellipsis terminates truncated titles.
const ellipsis = '…'

// IsAllDay reports whether an event spans exactly midnight to 23:59:59
// in local time.
func IsAllDay(start, end time.Time) bool {
	return secondsFromMidnight(start) == 0 && secondsFromMidnight(end) == endOfDaySecs
}

func secondsFromMidnight(t time.Time) int {
	local := t.Local()
	return local.Hour()*3600 + local.Minute()*60 + local.Second()
}

// normalizeAllDaySpan pins an all-day span to local midnight through
// 23:59:59 of its final day, the shape IsAllDay expects. Sources call
// this after converting to local time so the shape holds in any zone.
func normalizeAllDaySpan(start, end time.Time) (time.Time, time.Time) {
	y, m, d := start.Local().Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	y, m, d = end.Local().Date()
	end = time.Date(y, m, d, 23, 59, 59, 0, time.Local)
	return start, end
}

// FormatClock formats a timestamp as HH:MM in local time.
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04")
}

// TitleOptions control status-bar title rendering.
type TitleOptions struct {
	// Budget is the maximum rune count for the whole rendered title.
	Budget int

	// RoundHours rounds the hour label to the nearest hour (half up)
	// instead of truncating.
	RoundHours bool
}

// DefaultTitleOptions matches the canonical policy: a 30-rune budget and
// truncated hour labels.
var DefaultTitleOptions = TitleOptions{Budget: 30}

// FormatStatusTitle renders a status-bar line from an event title and a
// duration, using a template with two %s verbs (title, time label). The
// title is shortened so the whole line fits within the rune budget.
func FormatStatusTitle(title string, d time.Duration, template string, opts TitleOptions) string {
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultTitleOptions.Budget
	}

	timeStr := formatTimeLabel(d, opts.RoundHours)

	// Fixed template characters, minus the two %s verbs.
	overhead := utf8.RuneCountInString(template) - 4 + utf8.RuneCountInString(timeStr)
	maxTitle := budget - overhead
	if maxTitle < 0 {
		maxTitle = 0
	}

	return fmt.Sprintf(template, Truncate(title, maxTitle), timeStr)
}

// formatTimeLabel renders a duration as "Nm" up to an hour, "Nh" beyond.
func formatTimeLabel(d time.Duration, round bool) string {
	mins := int(d.Minutes())
	if mins <= 60 {
		return fmt.Sprintf("%dm", mins)
	}
	hours := mins / 60
	if round && mins%60 >= 30 {
		hours++
	}
	return fmt.Sprintf("%dh", hours)
}

// Truncate shortens a title to at most max runes, replacing the tail with
// an ellipsis when it does not fit. Counting runes rather than bytes
// avoids splitting multi-byte characters.
func Truncate(title string, max int) string {
	if utf8.RuneCountInString(title) <= max {
		return title
	}
	keep := max - 1
	if keep < 0 {
		keep = 0
	}
	runes := []rune(title)
	return string(runes[:keep]) + string(ellipsis)
}
