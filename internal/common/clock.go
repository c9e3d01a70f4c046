package common

import (
	"strings"
	"time"
)

// Day is the fixed elapsed-time bucket width. Buckets are not calendar aligned.
const Day = 24 * time.Hour

// timestampLayouts are tried in order when parsing server timestamps.
// Layouts without a zone are interpreted as UTC (the backend records utcnow()).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses a server timestamp. The bool is false for empty or
// unrecognised input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysAgo returns floor((reference - t) / 24h). The bool is false when t is
// the zero time, which callers treat as infinitely old.
func DaysAgo(reference, t time.Time) (int, bool) {
	if t.IsZero() {
		return 0, false
	}
	d := reference.Sub(t)
	days := d / Day
	if d < 0 && d%Day != 0 {
		days--
	}
	return int(days), true
}

// DayLabels returns short weekday names for the 7 calendar days ending on
// reference in loc, oldest first.
func DayLabels(reference time.Time, loc *time.Location) [7]string {
	if loc == nil {
		loc = time.Local
	}
	local := reference.In(loc)
	var labels [7]string
	for i := 0; i < 7; i++ {
		labels[6-i] = local.AddDate(0, 0, -i).Format("Mon")
	}
	return labels
}

// FormatClock renders t as a 24h HH:MM string in loc; the zero time renders empty.
func FormatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04")
}
