package models

import (
	"strings"
	"time"
)

// Slot is the unit of booking exclusivity.
type Slot struct {
	Date time.Time
	Room string
	Hour string
}

// Valid reports whether the slot can take part in an overlap comparison.
func (s Slot) Valid() bool {
	if s.Date.IsZero() || s.Room == "" {
		return false
	}
	_, ok := NormalizeHour(s.Hour)
	return ok
}

// Key is a comparable form of the slot, with the hour normalised.
func (s Slot) Key() string {
	hour, ok := NormalizeHour(s.Hour)
	if !ok {
		hour = strings.TrimSpace(s.Hour)
	}
	return s.Date.Format(DateLayout) + "|" + strings.TrimSpace(s.Room) + "|" + hour
}

func (s Slot) Equal(o Slot) bool {
	if !s.Valid() || !o.Valid() {
		return false
	}
	return s.Key() == o.Key()
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate reads an archive date, accepting the timestamp forms older exports
// wrote. The result is midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}

// DateOf truncates t to its calendar day in its own location, returned as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeHour returns h as zero-padded HH:MM.
func NormalizeHour(h string) (string, bool) {
	h = strings.TrimSpace(h)
	for _, layout := range []string{HourLayout, "15:04:05"} {
		if t, err := time.Parse(layout, h); err == nil {
			return t.Format(HourLayout), true
		}
	}
	return "", false
}
