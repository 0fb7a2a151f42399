package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

func newDirectoryFixture() (*RestaurantService, *fakeRestaurants, *fakeReservations) {
	restaurants := newFakeRestaurants()
	reservations := newFakeReservations()
	return NewRestaurantService(restaurants, NewAvailabilityEngine(reservations)), restaurants, reservations
}

func TestCreateRestaurant(t *testing.T) {
	svc, _, _ := newDirectoryFixture()
	manager := Caller{ID: 2, Roles: []string{model.RoleManager}}

	rest, err := svc.Create(context.Background(), manager, RestaurantInput{
		Name:       "Casa Nueva",
		PriceRange: 3,
		Tables:     []model.Table{{Name: "T1", Capacity: 4, IsAvailable: false}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rest.ManagerID != 2 {
		t.Fatalf("manager = %d, want caller", rest.ManagerID)
	}
	if rest.Approved || !rest.Active {
		t.Fatalf("new restaurant approved=%v active=%v, want pending+active", rest.Approved, rest.Active)
	}
	if !rest.Tables[0].IsAvailable {
		t.Fatal("new tables must start available")
	}

	if _, err := svc.Create(context.Background(), manager, RestaurantInput{PriceRange: 2}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("nameless err = %v, want invalid request", err)
	}
	if _, err := svc.Create(context.Background(), manager, RestaurantInput{Name: "X", PriceRange: 5}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("price range err = %v, want invalid request", err)
	}
}

func TestGetRestaurantVisibility(t *testing.T) {
	svc, restaurants, _ := newDirectoryFixture()
	pending := testRestaurant(2)
	pending.Approved = false
	restaurants.add(pending)

	if _, err := svc.Get(context.Background(), Caller{ID: 7, Roles: []string{model.RoleCustomer}}, 1); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("customer viewing pending err = %v, want permission denied", err)
	}
	if _, err := svc.Get(context.Background(), Caller{ID: 2, Roles: []string{model.RoleManager}}, 1); err != nil {
		t.Fatalf("manager viewing own pending: %v", err)
	}
	if _, err := svc.Get(context.Background(), Caller{ID: 1, Roles: []string{model.RoleAdmin}}, 1); err != nil {
		t.Fatalf("admin viewing pending: %v", err)
	}
}

func TestUpdateRestaurantPartial(t *testing.T) {
	svc, restaurants, _ := newDirectoryFixture()
	restaurants.add(testRestaurant(2))
	manager := Caller{ID: 2, Roles: []string{model.RoleManager}}

	name := "Trattoria Due"
	got, err := svc.Update(context.Background(), manager, 1, RestaurantUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Trattoria Due" {
		t.Fatalf("name = %q", got.Name)
	}
	// Omitted child slices survive the update.
	if len(got.Tables) != 2 || len(got.OpeningHours) != 7 {
		t.Fatalf("children dropped: tables=%d hours=%d", len(got.Tables), len(got.OpeningHours))
	}

	// Provided child slices replace wholesale.
	got, err = svc.Update(context.Background(), manager, 1, RestaurantUpdate{
		Tables: []model.Table{{ID: 9, Name: "Patio", Capacity: 8, IsAvailable: true}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Tables) != 1 || got.Tables[0].Name != "Patio" {
		t.Fatalf("tables = %+v", got.Tables)
	}

	if _, err := svc.Update(context.Background(), Caller{ID: 50}, 1, RestaurantUpdate{Name: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger update err = %v, want permission denied", err)
	}
}

func TestUpdateTableRemovalConflict(t *testing.T) {
	svc, restaurants, _ := newDirectoryFixture()
	restaurants.add(testRestaurant(2))
	restaurants.updateErr = repository.ErrTableInUse

	_, err := svc.Update(context.Background(), Caller{ID: 2, Roles: []string{model.RoleManager}}, 1, RestaurantUpdate{
		Tables: []model.Table{{ID: 1, Name: "T1", Capacity: 2, IsAvailable: true}},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestApproveAndDeleteRestaurant(t *testing.T) {
	svc, restaurants, _ := newDirectoryFixture()
	pending := testRestaurant(2)
	pending.Approved = false
	restaurants.add(pending)
	adminCaller := Caller{ID: 1, Roles: []string{model.RoleAdmin}}

	if _, err := svc.Approve(context.Background(), Caller{ID: 2, Roles: []string{model.RoleManager}}, 1); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("manager approve err = %v, want permission denied", err)
	}
	got, err := svc.Approve(context.Background(), adminCaller, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !got.Approved {
		t.Fatal("still pending after approve")
	}
	if len(got.Tables) != 2 {
		t.Fatalf("approve dropped tables: %d", len(got.Tables))
	}

	if err := svc.Delete(context.Background(), Caller{ID: 2, Roles: []string{model.RoleManager}}, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stored, _ := restaurants.GetByID(context.Background(), 1)
	if stored.Active {
		t.Fatal("soft delete left restaurant active")
	}
}

func TestSearchRestaurants(t *testing.T) {
	svc, restaurants, _ := newDirectoryFixture()

	sj := testRestaurant(2) // San Jose, Italian, open 10:00-22:00
	restaurants.add(sj)     // id 1

	sushi := testRestaurant(2)
	sushi.Name = "Kaiten"
	sushi.CuisineTypes = []string{"Japanese"}
	restaurants.add(sushi) // id 2

	sf := testRestaurant(2)
	sf.Name = "North Beach"
	sf.Address = model.Address{City: "San Francisco", State: "CA", ZipCode: "94133"}
	restaurants.add(sf) // id 3

	at := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

	names := func(rs []model.Restaurant) map[string]bool {
		out := make(map[string]bool, len(rs))
		for _, r := range rs {
			out[r.Name] = true
		}
		return out
	}

	// City filter.
	got, err := svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at, PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := names(got); len(got) != 2 || !n["Trattoria Uno"] || !n["Kaiten"] {
		t.Fatalf("city search = %v", n)
	}

	// Zip takes precedence over city.
	got, err = svc.Search(context.Background(), SearchInput{City: "San Jose", ZipCode: "94133", DateTime: at, PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "North Beach" {
		t.Fatalf("zip search = %+v", got)
	}

	// Cuisine filter.
	got, err = svc.Search(context.Background(), SearchInput{State: "CA", CuisineType: "Japanese", DateTime: at, PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Kaiten" {
		t.Fatalf("cuisine search = %+v", got)
	}

	// Closed at the requested hour.
	got, err = svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at.Add(6 * time.Hour), PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("after-hours search = %+v", got)
	}

	// Party too big for any table.
	got, err = svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at, PartySize: 8})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("oversize search = %+v", got)
	}

	if _, err := svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at, PartySize: 0}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("zero party err = %v, want invalid request", err)
	}
}

func TestSearchExcludesFullyBooked(t *testing.T) {
	svc, restaurants, reservations := newDirectoryFixture()
	rest := testRestaurant(2)
	rest.Tables = rest.Tables[:1] // single two-seater
	restaurants.add(rest)

	at := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	_ = reservations.Create(context.Background(), &model.Reservation{
		RestaurantID: 1, UserID: 9, TableID: 1,
		ReservationDateTime: at, PartySize: 2, Status: model.StatusConfirmed,
	})

	// Inside the ±30m search window: gone from results.
	got, err := svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at.Add(20 * time.Minute), PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("booked restaurant still listed: %+v", got)
	}

	// 45 minutes out: outside the search window, listed again.
	got, err = svc.Search(context.Background(), SearchInput{City: "San Jose", DateTime: at.Add(45 * time.Minute), PartySize: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("free slot not listed: %+v", got)
	}
}
