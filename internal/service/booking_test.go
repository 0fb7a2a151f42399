package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nace129/booktable/internal/model"
)

func newBookingFixture(t *testing.T) (*BookingService, *fakeRestaurants, *fakeReservations, *fakeNotifier) {
	t.Helper()
	restaurants := newFakeRestaurants()
	reservations := newFakeReservations()
	users := newFakeUsers()
	users.add(model.User{ID: 7, Email: "diner@example.com", FirstName: "Dana", Roles: []string{model.RoleCustomer}, Enabled: true})
	users.add(model.User{ID: 2, Email: "boss@example.com", FirstName: "Morgan", Roles: []string{model.RoleManager}, Enabled: true})
	notifier := &fakeNotifier{}
	svc := NewBookingService(restaurants, reservations, users, NewAvailabilityEngine(reservations), notifier)
	return svc, restaurants, reservations, notifier
}

func TestCreateBooking(t *testing.T) {
	svc, restaurants, _, notifier := newBookingFixture(t)
	restaurants.add(testRestaurant(2))

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	res, err := svc.Create(context.Background(), Caller{ID: 7, Roles: []string{model.RoleCustomer}}, CreateInput{
		RestaurantID: 1,
		DateTime:     now.Add(7 * time.Hour),
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", res.Status)
	}
	if res.TableID != 1 {
		t.Fatalf("table = %d, want first-fit table 1", res.TableID)
	}
	if res.ConfirmationCode == "" {
		t.Fatal("confirmation code missing")
	}
	if notifier.count() != 1 {
		t.Fatalf("emails sent = %d, want 1", notifier.count())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	hidden := testRestaurant(2)
	hidden.Approved = false
	restaurants.add(hidden)            // id 1, not visible
	restaurants.add(testRestaurant(2)) // id 2, visible

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	caller := Caller{ID: 7, Roles: []string{model.RoleCustomer}}

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"unknown restaurant", CreateInput{RestaurantID: 99, DateTime: now.Add(time.Hour), PartySize: 2}, ErrNotFound},
		{"unapproved restaurant", CreateInput{RestaurantID: 1, DateTime: now.Add(time.Hour), PartySize: 2}, ErrInvalidRequest},
		{"zero party", CreateInput{RestaurantID: 2, DateTime: now.Add(time.Hour), PartySize: 0}, ErrInvalidRequest},
		{"past time", CreateInput{RestaurantID: 2, DateTime: now.Add(-time.Hour), PartySize: 2}, ErrInvalidRequest},
		{"exactly now", CreateInput{RestaurantID: 2, DateTime: now, PartySize: 2}, ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), caller, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateBookingWindowRejection(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	rest := testRestaurant(2)
	rest.Tables = rest.Tables[:1] // single two-seater
	restaurants.add(rest)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	caller := Caller{ID: 7, Roles: []string{model.RoleCustomer}}
	at := now.Add(7 * time.Hour)

	if _, err := svc.Create(context.Background(), caller, CreateInput{RestaurantID: 1, DateTime: at, PartySize: 2}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// 90 minutes later falls inside the two hour window.
	_, err := svc.Create(context.Background(), caller, CreateInput{RestaurantID: 1, DateTime: at.Add(90 * time.Minute), PartySize: 2})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("overlapping booking err = %v, want invalid request", err)
	}
	// Just past the window succeeds.
	if _, err := svc.Create(context.Background(), caller, CreateInput{RestaurantID: 1, DateTime: at.Add(2*time.Hour + time.Minute), PartySize: 2}); err != nil {
		t.Fatalf("booking past window: %v", err)
	}
}

func TestCreateBookingCountsSameDayOnly(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	restaurants.add(testRestaurant(2))

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	caller := Caller{ID: 7, Roles: []string{model.RoleCustomer}}

	// Same day: counter bumps.
	if _, err := svc.Create(context.Background(), caller, CreateInput{RestaurantID: 1, DateTime: now.Add(6 * time.Hour), PartySize: 2}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if restaurants.bookings[1] != 1 {
		t.Fatalf("bookings today = %d, want 1", restaurants.bookings[1])
	}
	// Tomorrow: counter untouched.
	if _, err := svc.Create(context.Background(), caller, CreateInput{RestaurantID: 1, DateTime: now.Add(26 * time.Hour), PartySize: 2}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if restaurants.bookings[1] != 1 {
		t.Fatalf("bookings today = %d, want still 1", restaurants.bookings[1])
	}
}

func TestGetBookingPermissions(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	restaurants.add(testRestaurant(2))
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	owner := Caller{ID: 7, Roles: []string{model.RoleCustomer}}
	res, err := svc.Create(context.Background(), owner, CreateInput{RestaurantID: 1, DateTime: now.Add(time.Hour), PartySize: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		name   string
		caller Caller
		wantOK bool
	}{
		{"owner", owner, true},
		{"manager", Caller{ID: 2, Roles: []string{model.RoleManager}}, true},
		{"admin", Caller{ID: 99, Roles: []string{model.RoleAdmin}}, true},
		{"stranger", Caller{ID: 50, Roles: []string{model.RoleCustomer}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tc.caller, res.ID)
			if tc.wantOK && err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !tc.wantOK && !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("err = %v, want permission denied", err)
			}
		})
	}
}

func TestUpdateBookingStatusPermissions(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	restaurants.add(testRestaurant(2))
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	owner := Caller{ID: 7, Roles: []string{model.RoleCustomer}}
	res, err := svc.Create(context.Background(), owner, CreateInput{RestaurantID: 1, DateTime: now.Add(time.Hour), PartySize: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	noShow := model.StatusNoShow
	if _, err := svc.Update(context.Background(), owner, res.ID, UpdateInput{Status: &noShow}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("customer setting NO_SHOW: err = %v, want permission denied", err)
	}
	manager := Caller{ID: 2, Roles: []string{model.RoleManager}}
	got, err := svc.Update(context.Background(), manager, res.ID, UpdateInput{Status: &noShow})
	if err != nil {
		t.Fatalf("manager setting NO_SHOW: %v", err)
	}
	if got.Status != model.StatusNoShow {
		t.Fatalf("status = %s, want NO_SHOW", got.Status)
	}

	bogus := model.ReservationStatus("SEATED")
	if _, err := svc.Update(context.Background(), manager, res.ID, UpdateInput{Status: &bogus}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown status: err = %v, want invalid request", err)
	}
}

func TestUpdateBookingMoveReassignsTable(t *testing.T) {
	svc, restaurants, _, _ := newBookingFixture(t)
	restaurants.add(testRestaurant(2))
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	owner := Caller{ID: 7, Roles: []string{model.RoleCustomer}}

	res, err := svc.Create(context.Background(), owner, CreateInput{RestaurantID: 1, DateTime: now.Add(time.Hour), PartySize: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.TableID != 1 {
		t.Fatalf("initial table = %d, want 1", res.TableID)
	}

	// Growing the party forces a move to the six-seater.
	four := 4
	got, err := svc.Update(context.Background(), owner, res.ID, UpdateInput{PartySize: &four})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.TableID != 2 {
		t.Fatalf("table after growth = %d, want 2", got.TableID)
	}

	// Growing beyond every table fails and leaves the row unchanged.
	ten := 10
	if _, err := svc.Update(context.Background(), owner, res.ID, UpdateInput{PartySize: &ten}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("oversize update err = %v, want invalid request", err)
	}
	cur, err := svc.Get(context.Background(), owner, res.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cur.PartySize != 4 || cur.TableID != 2 {
		t.Fatalf("reservation changed by failed update: %+v", cur)
	}
}

func TestCancelBooking(t *testing.T) {
	svc, restaurants, _, notifier := newBookingFixture(t)
	restaurants.add(testRestaurant(2))
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	owner := Caller{ID: 7, Roles: []string{model.RoleCustomer}}

	res, err := svc.Create(context.Background(), owner, CreateInput{RestaurantID: 1, DateTime: now.Add(time.Hour), PartySize: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Cancel(context.Background(), Caller{ID: 50}, res.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger cancel err = %v, want permission denied", err)
	}
	if err := svc.Cancel(context.Background(), owner, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := svc.Cancel(context.Background(), owner, res.ID); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("double cancel err = %v, want invalid request", err)
	}
	if notifier.count() != 2 { // confirmation + cancellation
		t.Fatalf("emails sent = %d, want 2", notifier.count())
	}

	// The cancelled slot is free again.
	if _, err := svc.Create(context.Background(), owner, CreateInput{RestaurantID: 1, DateTime: res.ReservationDateTime, PartySize: 2}); err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
}
