package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nace129/booktable/internal/model"
)

// CompletionGrace is how long after its scheduled time a CONFIRMED
// reservation is left alone before the hourly sweep marks it
// COMPLETED.
const CompletionGrace = 3 * time.Hour

// SweepInterval is how often the completion sweep runs.
const SweepInterval = time.Hour

// SweepRestaurantStore is the slice of the restaurant store the
// sweeper needs.
type SweepRestaurantStore interface {
	ResetBookingCounts(ctx context.Context) (int64, error)
}

// SweepReservationStore is the slice of the reservation store the
// sweeper needs.
type SweepReservationStore interface {
	ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
}

// StatusSweeper advances reservation state on a schedule. It exposes
// two independent, idempotent, no-argument passes: the midnight reset
// of every restaurant's daily booking counter, and the hourly sweep
// that completes CONFIRMED reservations whose time plus the grace
// period has elapsed. No-shows are never detected automatically;
// NO_SHOW is a manual manager action.
type StatusSweeper struct {
	restaurants  SweepRestaurantStore
	reservations SweepReservationStore
	now          func() time.Time
}

// NewStatusSweeper wires the sweeper.
func NewStatusSweeper(restaurants SweepRestaurantStore, reservations SweepReservationStore) *StatusSweeper {
	return &StatusSweeper{restaurants: restaurants, reservations: reservations, now: time.Now}
}

// ResetDailyBookingCounts zeroes totalBookingsToday for every
// restaurant. Running it again with no bookings in between is a
// no-op.
func (s *StatusSweeper) ResetDailyBookingCounts(ctx context.Context) error {
	n, err := s.restaurants.ResetBookingCounts(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("restaurants", n).Info("daily booking counts reset")
	return nil
}

// CompleteElapsedReservations flips CONFIRMED reservations to
// COMPLETED once reservationDateTime + CompletionGrace < now. Each
// candidate is re-checked against the rule before the write, so a
// reservation two hours past its time stays CONFIRMED.
func (s *StatusSweeper) CompleteElapsedReservations(ctx context.Context) error {
	now := s.now()
	candidates, err := s.reservations.ListConfirmedScheduledBefore(ctx, now.Add(-CompletionGrace))
	if err != nil {
		return err
	}
	completed := 0
	for i := range candidates {
		res := &candidates[i]
		if !res.ReservationDateTime.Add(CompletionGrace).Before(now) {
			continue
		}
		res.Status = model.StatusCompleted
		if err := s.reservations.Update(ctx, res); err != nil {
			logrus.WithError(err).WithField("reservation_id", res.ID).
				Warn("failed to mark reservation completed")
			continue
		}
		completed++
	}
	if completed > 0 {
		logrus.WithField("completed", completed).Info("completion sweep finished")
	}
	return nil
}

// Run drives both passes until ctx is cancelled: the completion sweep
// every SweepInterval, the counter reset aligned to the next UTC
// midnight and every 24h after. Intended to run in its own goroutine.
func (s *StatusSweeper) Run(ctx context.Context) {
	hourly := time.NewTicker(SweepInterval)
	defer hourly.Stop()

	midnight := time.NewTimer(untilNextMidnight(s.now()))
	defer midnight.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hourly.C:
			if err := s.CompleteElapsedReservations(ctx); err != nil {
				logrus.WithError(err).Error("completion sweep failed")
			}
		case <-midnight.C:
			if err := s.ResetDailyBookingCounts(ctx); err != nil {
				logrus.WithError(err).Error("daily booking count reset failed")
			}
			midnight.Reset(untilNextMidnight(s.now()))
		}
	}
}

// untilNextMidnight returns the duration from now to the next UTC
// midnight.
func untilNextMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
