package utils

import (
	"fmt"
	"strings"
	"time"
)

var spanishDayNames = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

func DayName(weekday time.Weekday) string {
	return spanishDayNames[weekday]
}

// LoadLocation falls back to UTC when the zone database has no entry.
func LoadLocation(timezone string) *time.Location {
	if timezone == "" {
		timezone = DefaultTimeZone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDeliveryDate accepts "2006-01-02" (start of that day in loc) or an
// RFC 3339 timestamp (converted to loc).
func ParseDeliveryDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}

	if d, err := time.Parse(DateLayout, value); err == nil {
		year, month, day := d.Date()
		return StartOfDay(time.Date(year, month, day, 12, 0, 0, 0, loc)), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", value)
}

// StartOfDay returns the first instant of t's calendar day. Where a DST
// change skips midnight (America/Santiago in September) the day starts at
// the end of the gap, not on the evening before.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	for start.Day() != day {
		start = start.Add(30 * time.Minute)
	}
	return start
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
