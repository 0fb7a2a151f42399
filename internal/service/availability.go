package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nace129/booktable/internal/model"
)

// BookingWindow is the interval around a reservation time within
// which no other live reservation may occupy the same table. A table
// booked at 19:00 is blocked from 17:00 to 21:00.
const BookingWindow = 2 * time.Hour

// SearchWindow is the narrower interval used when deciding whether a
// restaurant counts as "available" in search results.
const SearchWindow = 30 * time.Minute

// ConflictCounter is the slice of the reservation store the engine
// needs: how many live reservations hold a given table inside a time
// interval.
type ConflictCounter interface {
	CountLiveForTable(ctx context.Context, restaurantID, tableID uint64, from, to time.Time) (int, error)
}

// AvailabilityEngine decides which table, if any, can host a party at
// a requested time. Selection is first fit over the restaurant's
// tables in stored order: a table of capacity 8 may be picked for a
// party of 2 when it comes first. The check-then-act gap between
// reading conflicts and inserting a reservation is closed by the
// booking service, which holds a per-restaurant lock around both.
type AvailabilityEngine struct {
	reservations ConflictCounter
}

// NewAvailabilityEngine returns an engine reading conflicts from the
// given store.
func NewAvailabilityEngine(reservations ConflictCounter) *AvailabilityEngine {
	return &AvailabilityEngine{reservations: reservations}
}

// FindTable returns the first table in stored order with sufficient
// capacity, marked available, and free of live reservations inside
// [at−BookingWindow, at+BookingWindow]. It returns (nil, nil) when no
// table qualifies; callers translate that into a business failure.
func (e *AvailabilityEngine) FindTable(ctx context.Context, rest *model.Restaurant, at time.Time, partySize int) (*model.Table, error) {
	from := at.Add(-BookingWindow)
	to := at.Add(BookingWindow)
	for i := range rest.Tables {
		t := &rest.Tables[i]
		if t.Capacity < partySize || !t.IsAvailable {
			continue
		}
		n, err := e.reservations.CountLiveForTable(ctx, rest.ID, t.ID, from, to)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return t, nil
		}
	}
	return nil, nil
}

// Available reports whether at least one capacity-fitting table is
// free of live reservations inside [at−window, at+window]. Search
// uses it with SearchWindow; unlike FindTable it ignores the
// is_available flag, matching the looser search-side check.
func (e *AvailabilityEngine) Available(ctx context.Context, rest *model.Restaurant, at time.Time, partySize int, window time.Duration) (bool, error) {
	from := at.Add(-window)
	to := at.Add(window)
	for i := range rest.Tables {
		t := &rest.Tables[i]
		if t.Capacity < partySize {
			continue
		}
		n, err := e.reservations.CountLiveForTable(ctx, rest.ID, t.ID, from, to)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return true, nil
		}
	}
	return false, nil
}

// hoursCover reports whether any opening-hours row covers the
// requested instant: same weekday, and open < t < close (strict on
// both ends, so a 10:00 open does not admit a 10:00 request).
func hoursCover(hours []model.OpeningHours, at time.Time) bool {
	minute := at.Hour()*60 + at.Minute()
	for _, h := range hours {
		if h.DayOfWeek != at.Weekday() {
			continue
		}
		open, okOpen := parseClock(h.OpenTime)
		close, okClose := parseClock(h.CloseTime)
		if okOpen && okClose && minute > open && minute < close {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
