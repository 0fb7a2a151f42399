package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

// BookingRestaurantStore is the slice of the restaurant store the
// booking service needs.
type BookingRestaurantStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
	IncrementBookingsToday(ctx context.Context, id uint64) error
}

// ReservationStore persists reservations.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error)
}

// UserGetter resolves user ids to accounts (for email recipients and
// greetings).
type UserGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// BookingService drives the reservation lifecycle: create, read,
// update and cancel, with permission checks against the explicit
// caller. Creation and any update that moves a reservation re-run the
// availability engine.
//
// The engine's check-then-act sequence is racy on its own: two
// concurrent requests for the same table and window could both see
// zero conflicts. The service serializes check-and-insert per
// restaurant with a keyed mutex, so within a process no two bookings
// for one restaurant interleave between the conflict read and the
// insert.
type BookingService struct {
	restaurants  BookingRestaurantStore
	reservations ReservationStore
	users        UserGetter
	engine       *AvailabilityEngine
	notifier     Notifier

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex

	now func() time.Time
}

// NewBookingService wires the booking service. notifier may be nil,
// in which case no emails are attempted.
func NewBookingService(restaurants BookingRestaurantStore, reservations ReservationStore, users UserGetter, engine *AvailabilityEngine, notifier Notifier) *BookingService {
	return &BookingService{
		restaurants:  restaurants,
		reservations: reservations,
		users:        users,
		engine:       engine,
		notifier:     notifier,
		locks:        make(map[uint64]*sync.Mutex),
		now:          time.Now,
	}
}

// lockRestaurant returns the mutex serializing bookings for one
// restaurant, creating it on first use.
func (s *BookingService) lockRestaurant(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// CreateInput carries the customer's booking request.
type CreateInput struct {
	RestaurantID    uint64
	DateTime        time.Time
	PartySize       int
	SpecialRequests string
}

// Create books a table. The restaurant must be approved and active,
// the time strictly in the future, and the party size positive. The
// first free fitting table is assigned; if the booking lands on
// today's date the restaurant's daily counter is bumped atomically.
// The confirmation email is best effort: a send failure is logged and
// never fails the booking.
func (s *BookingService) Create(ctx context.Context, caller Caller, in CreateInput) (*model.Reservation, error) {
	rest, err := s.restaurants.GetByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !rest.Visible() {
		return nil, fmt.Errorf("%w: restaurant is not available for reservations", ErrInvalidRequest)
	}
	if in.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", ErrInvalidRequest)
	}
	now := s.now()
	if !in.DateTime.After(now) {
		return nil, fmt.Errorf("%w: reservation time must be in the future", ErrInvalidRequest)
	}

	lock := s.lockRestaurant(rest.ID)
	lock.Lock()
	defer lock.Unlock()

	table, err := s.engine.FindTable(ctx, rest, in.DateTime, in.PartySize)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("%w: no available tables for the requested time and party size", ErrInvalidRequest)
	}

	res := &model.Reservation{
		RestaurantID:        rest.ID,
		UserID:              caller.ID,
		TableID:             table.ID,
		ConfirmationCode:    uuid.NewString(),
		ReservationDateTime: in.DateTime,
		PartySize:           in.PartySize,
		SpecialRequests:     in.SpecialRequests,
		Status:              model.StatusConfirmed,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	if sameDate(res.ReservationDateTime, now) {
		if err := s.restaurants.IncrementBookingsToday(ctx, rest.ID); err != nil {
			logrus.WithError(err).WithField("restaurant_id", rest.ID).
				Warn("failed to increment daily booking count")
		}
	}

	s.sendConfirmation(ctx, res, rest)
	return res, nil
}

// Get returns a reservation to its owner, the restaurant's manager or
// an admin; everyone else gets ErrPermissionDenied.
func (s *BookingService) Get(ctx context.Context, caller Caller, id uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	rest, err := s.restaurants.GetByID(ctx, res.RestaurantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if caller.ID != res.UserID && caller.ID != rest.ManagerID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: you don't have permission to view this reservation", ErrPermissionDenied)
	}
	return res, nil
}

// ListForUser returns the caller's own reservations.
func (s *BookingService) ListForUser(ctx context.Context, caller Caller) ([]model.Reservation, error) {
	return s.reservations.ListByUser(ctx, caller.ID)
}

// ListForRestaurant returns a restaurant's reservations to its
// manager or an admin.
func (s *BookingService) ListForRestaurant(ctx context.Context, caller Caller, restaurantID uint64) ([]model.Reservation, error) {
	rest, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if caller.ID != rest.ManagerID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: you don't have permission to view reservations for this restaurant", ErrPermissionDenied)
	}
	return s.reservations.ListByRestaurant(ctx, restaurantID)
}

// UpdateInput carries a partial reservation update; nil fields are
// left unchanged.
type UpdateInput struct {
	DateTime        *time.Time
	PartySize       *int
	SpecialRequests *string
	Status          *model.ReservationStatus
}

// Update applies a partial update. Owner and manager may update;
// customers may not set COMPLETED or NO_SHOW. Changing the time or
// party size re-runs the availability engine under the restaurant
// lock and reassigns the table; when nothing is free the reservation
// is left untouched and the whole update is rejected.
func (s *BookingService) Update(ctx context.Context, caller Caller, id uint64, in UpdateInput) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	rest, err := s.restaurants.GetByID(ctx, res.RestaurantID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	isOwner := caller.ID == res.UserID
	isManager := caller.ID == rest.ManagerID
	if !isOwner && !isManager {
		return nil, fmt.Errorf("%w: you don't have permission to update this reservation", ErrPermissionDenied)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, string(*in.Status))
		}
		if !isManager && (*in.Status == model.StatusCompleted || *in.Status == model.StatusNoShow) {
			return nil, fmt.Errorf("%w: you don't have permission to set this status", ErrPermissionDenied)
		}
	}

	newTime := res.ReservationDateTime
	if in.DateTime != nil {
		newTime = *in.DateTime
	}
	newSize := res.PartySize
	if in.PartySize != nil {
		newSize = *in.PartySize
	}
	if newSize < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", ErrInvalidRequest)
	}

	moved := !newTime.Equal(res.ReservationDateTime) || newSize != res.PartySize
	if moved {
		lock := s.lockRestaurant(rest.ID)
		lock.Lock()
		defer lock.Unlock()

		table, err := s.engine.FindTable(ctx, rest, newTime, newSize)
		if err != nil {
			return nil, err
		}
		if table == nil {
			return nil, fmt.Errorf("%w: no available tables for the requested time and party size", ErrInvalidRequest)
		}
		res.TableID = table.ID
	}

	res.ReservationDateTime = newTime
	res.PartySize = newSize
	if in.SpecialRequests != nil {
		res.SpecialRequests = *in.SpecialRequests
	}
	if in.Status != nil {
		res.Status = *in.Status
	}
	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel moves the reservation to CANCELLED. Only the owning customer
// may cancel, and only while the reservation is neither COMPLETED nor
// already CANCELLED. The cancellation email is best effort.
func (s *BookingService) Cancel(ctx context.Context, caller Caller, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if caller.ID != res.UserID {
		return fmt.Errorf("%w: you don't have permission to cancel this reservation", ErrPermissionDenied)
	}
	if res.Status == model.StatusCompleted || res.Status == model.StatusCancelled {
		return fmt.Errorf("%w: cannot cancel a reservation that is already %s", ErrInvalidRequest, res.Status)
	}
	res.Status = model.StatusCancelled
	if err := s.reservations.Update(ctx, res); err != nil {
		return err
	}
	s.sendCancellation(ctx, res)
	return nil
}

func (s *BookingService) sendConfirmation(ctx context.Context, res *model.Reservation, rest *model.Restaurant) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.GetByID(ctx, res.UserID)
	if err != nil {
		logrus.WithError(err).WithField("reservation_id", res.ID).
			Warn("failed to load user for confirmation email")
		return
	}
	subject := "Reservation Confirmation - " + rest.Name
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your reservation at %s has been confirmed.\n"+
			"Reservation details:\n"+
			"- Date and Time: %s\n"+
			"- Party Size: %d\n"+
			"- Confirmation Code: %s\n\n"+
			"If you need to make any changes, please log in to your account.\n\n"+
			"Thank you for choosing %s!\n\n"+
			"Best regards,\n"+
			"The BookTable Team",
		user.FirstName, rest.Name,
		res.ReservationDateTime.Format(time.RFC1123),
		res.PartySize, res.ConfirmationCode, rest.Name)
	if err := s.notifier.SendEmail(ctx, user.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("reservation_id", res.ID).
			Warn("failed to send confirmation email")
	}
}

func (s *BookingService) sendCancellation(ctx context.Context, res *model.Reservation) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.GetByID(ctx, res.UserID)
	if err != nil {
		logrus.WithError(err).WithField("reservation_id", res.ID).
			Warn("failed to load user for cancellation email")
		return
	}
	rest, err := s.restaurants.GetByID(ctx, res.RestaurantID)
	if err != nil {
		logrus.WithError(err).WithField("reservation_id", res.ID).
			Warn("failed to load restaurant for cancellation email")
		return
	}
	subject := "Reservation Cancellation - " + rest.Name
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your reservation at %s for %s has been cancelled.\n\n"+
			"If you did not request this cancellation, please contact us immediately.\n\n"+
			"Best regards,\n"+
			"The BookTable Team",
		user.FirstName, rest.Name,
		res.ReservationDateTime.Format(time.RFC1123))
	if err := s.notifier.SendEmail(ctx, user.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("reservation_id", res.ID).
			Warn("failed to send cancellation email")
	}
}

// sameDate reports whether two instants fall on the same UTC date.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// mapNotFound converts repository not-found sentinels into the
// service's ErrNotFound kind; other errors pass through unchanged.
func mapNotFound(err error) error {
	switch {
	case errors.Is(err, repository.ErrRestaurantNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	return err
}
