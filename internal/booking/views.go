package booking

import (
	"context"
	"sort"
	"time"

	"operation-list/internal/models"
)

// DayGroup is one expandable day of the upcoming list.
type DayGroup struct {
	Date     time.Time
	Bookings []*models.Booking
}

// dedupe keeps the first active row of every slot, in archive order.
func dedupe(rows []*models.Booking) []*models.Booking {
	seen := make(map[string]bool, len(rows))
	var out []*models.Booking
	for _, b := range rows {
		if !b.Active() || b.Date.IsZero() {
			continue
		}
		key := b.Slot().Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

func byDateHour(rows []*models.Booking, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			if desc {
				return a.Date.After(b.Date)
			}
			return a.Date.Before(b.Date)
		}
		if desc {
			return a.Hour > b.Hour
		}
		return a.Hour < b.Hour
	})
}

// Upcoming returns the operations from today on, grouped by day.
func (s *Service) Upcoming(ctx context.Context) ([]DayGroup, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return upcoming(rows, s.Today()), nil
}

func upcoming(rows []*models.Booking, today time.Time) []DayGroup {
	var list []*models.Booking
	for _, b := range dedupe(rows) {
		if !b.Date.Before(today) {
			list = append(list, b)
		}
	}
	byDateHour(list, false)

	var groups []DayGroup
	for _, b := range list {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(b.Date) {
			groups[n-1].Bookings = append(groups[n-1].Bookings, b)
			continue
		}
		groups = append(groups, DayGroup{Date: b.Date, Bookings: []*models.Booking{b}})
	}
	return groups
}

// Archive returns the operations before today, most recent first.
func (s *Service) Archive(ctx context.Context) ([]*models.Booking, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return archive(rows, s.Today()), nil
}

func archive(rows []*models.Booking, today time.Time) []*models.Booking {
	var list []*models.Booking
	for _, b := range dedupe(rows) {
		if b.Date.Before(today) {
			list = append(list, b)
		}
	}
	byDateHour(list, true)
	return list
}

type CalendarDay struct {
	Date     time.Time
	InMonth  bool
	Today    bool
	Bookings []*models.Booking
}

type MonthView struct {
	Month time.Time // first day of the month
	Prev  time.Time
	Next  time.Time
	Weeks [][]CalendarDay
}

// Month lays out the given month as Sunday-first weeks, padded with the
// neighbouring months' days, with each day's active bookings.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return monthView(rows, year, month, s.Today()), nil
}

func monthView(rows []*models.Booking, year int, month time.Month, today time.Time) *MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))

	byDay := make(map[string][]*models.Booking)
	active := dedupe(rows)
	byDateHour(active, false)
	for _, b := range active {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		key := b.DateString()
		byDay[key] = append(byDay[key], b)
	}

	view := &MonthView{
		Month: first,
		Prev:  first.AddDate(0, -1, 0),
		Next:  first.AddDate(0, 1, 0),
	}
	var week []CalendarDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		week = append(week, CalendarDay{
			Date:     d,
			InMonth:  d.Month() == month,
			Today:    d.Equal(today),
			Bookings: byDay[d.Format(models.DateLayout)],
		})
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}
