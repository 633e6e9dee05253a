package models

import (
	"fmt"
	"strings"
	"time"
)

// CalendarDay is a (month, day) pair independent of the year. It is the key
// of special dates and renders as "MM-DD".
type CalendarDay struct {
	Month time.Month
	Day   int
}

func DayOf(t time.Time) CalendarDay {
	return CalendarDay{Month: t.Month(), Day: t.Day()}
}

func ParseCalendarDay(s string) (CalendarDay, error) {
	var month, day int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%02d-%02d", &month, &day); err != nil {
		return CalendarDay{}, fmt.Errorf("invalid calendar day %q: expected MM-DD", s)
	}
	cd := CalendarDay{Month: time.Month(month), Day: day}
	if !cd.Valid() {
		return CalendarDay{}, fmt.Errorf("invalid calendar day %q", s)
	}
	return cd, nil
}

// Valid reports whether the day exists in some year (02-29 included).
func (d CalendarDay) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	// 2024 is a leap year, so February allows 29 days.
	last := time.Date(2024, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d.Day <= last
}

func (d CalendarDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(d.Month), d.Day)
}

func (d CalendarDay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDay) UnmarshalText(text []byte) error {
	parsed, err := ParseCalendarDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a wall-clock time of day with minute precision ("HH:MM").
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(s string) (ClockTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%02d", &hour, &minute); err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns the moment this clock time happens on the calendar date of t,
// in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, t.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Weekday decodes lowercase English day names ("monday").
type Weekday time.Weekday

func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(time.Weekday(w).String())), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			*w = Weekday(d)
			return nil
		}
	}
	return fmt.Errorf("invalid weekday %q", text)
}

type TimeSlot struct {
	ID    string    `json:"id" yaml:"id"`
	Name  string    `json:"name" yaml:"name"`
	Start ClockTime `json:"start" yaml:"start"`
	End   ClockTime `json:"end" yaml:"end"`
}

type DaySchedule struct {
	Weekday      Weekday  `json:"weekday" yaml:"weekday"`
	Open         bool     `json:"open" yaml:"open"`
	Slots        []string `json:"slots" yaml:"slots"`
	ClosedReason string   `json:"closed_reason,omitempty" yaml:"closed_reason"`
}

type SpecialDate struct {
	Date          CalendarDay `json:"date" yaml:"date"`
	Name          string      `json:"name" yaml:"name"`
	Surcharge     int64       `json:"surcharge" yaml:"surcharge"`
	ExtendedHours bool        `json:"extended_hours" yaml:"extended_hours"`
}

type DeliverySchedule struct {
	MinAdvanceHours int           `json:"min_advance_hours" yaml:"min_advance_hours"`
	Slots           []TimeSlot    `json:"slots" yaml:"slots"`
	ExtendedSlots   []string      `json:"extended_slots" yaml:"extended_slots"`
	Days            []DaySchedule `json:"days" yaml:"days"`
	SpecialDates    []SpecialDate `json:"special_dates" yaml:"special_dates"`
}

type SpecialDateInfo struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	Surcharge     int64  `json:"surcharge"`
	ExtendedHours bool   `json:"extended_hours"`
}

type SlotStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Start     ClockTime `json:"start"`
	End       ClockTime `json:"end"`
	StartsAt  time.Time `json:"starts_at"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
	Extended  bool      `json:"extended,omitempty"`
}

type SlotAvailability struct {
	Date        string           `json:"date"`
	DayName     string           `json:"day_name"`
	Available   bool             `json:"available"`
	Reason      string           `json:"reason,omitempty"`
	Slots       []SlotStatus     `json:"slots"`
	SpecialDate *SpecialDateInfo `json:"special_date,omitempty"`
}

// Slot returns the status of the slot with the given id.
func (a *SlotAvailability) Slot(id string) (SlotStatus, bool) {
	for _, s := range a.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return SlotStatus{}, false
}
