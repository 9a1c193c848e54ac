package models

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"
)

const (
	StatusBooked    = "Booked"
	StatusCancelled = "Cancelled"
)

type Booking struct {
	ID        string    `json:"id" yaml:"id"`
	Date      time.Time `json:"date" yaml:"date"`
	Doctor    string    `json:"doctor" yaml:"doctor"`
	Hour      string    `json:"hour" yaml:"hour"`
	Surgery   string    `json:"surgery" yaml:"surgery"`
	Room      string    `json:"room" yaml:"room"`
	Status    string    `json:"status" yaml:"status"` // Booked, Cancelled
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// RawDate holds the archived date text when it could not be parsed.
	RawDate string `json:"raw_date,omitempty" yaml:"raw_date,omitempty"`
}

// Active reports whether the booking still holds its slot. Rows written before
// the status column existed have an empty status and count as booked.
func (b *Booking) Active() bool {
	return !strings.EqualFold(strings.TrimSpace(b.Status), StatusCancelled)
}

func (b *Booking) Slot() Slot {
	return Slot{Date: b.Date, Room: strings.TrimSpace(b.Room), Hour: b.Hour}
}

// DateString is the archive form of Date. Unreadable dates come back as they were stored.
func (b *Booking) DateString() string {
	if b.Date.IsZero() {
		return b.RawDate
	}
	return b.Date.Format(DateLayout)
}

// StatusOrDefault maps the legacy empty status to StatusBooked.
func (b *Booking) StatusOrDefault() string {
	if strings.TrimSpace(b.Status) == "" {
		return StatusBooked
	}
	return b.Status
}
