package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

// AdminUserStore is the slice of the user store the admin service
// needs.
type AdminUserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRoles(ctx context.Context, id uint64, roles []string) error
	SetEnabled(ctx context.Context, id uint64, enabled bool) error
}

// adminReservationLister feeds the analytics report.
type adminReservationLister interface {
	ListSince(ctx context.Context, since time.Time) ([]model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error)
}

// adminRestaurantGetter resolves restaurant names and cuisines for the
// analytics report.
type adminRestaurantGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// AdminService covers user administration and the platform analytics
// report. Every operation requires the ADMIN role.
type AdminService struct {
	users        AdminUserStore
	reservations adminReservationLister
	restaurants  adminRestaurantGetter
	now          func() time.Time
}

// NewAdminService wires the admin service.
func NewAdminService(users AdminUserStore, reservations adminReservationLister, restaurants adminRestaurantGetter) *AdminService {
	return &AdminService{users: users, reservations: reservations, restaurants: restaurants, now: time.Now}
}

// ListUsers returns every account.
func (s *AdminService) ListUsers(ctx context.Context, caller Caller) ([]model.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return s.users.List(ctx)
}

// AddRole grants a role to a user. The role must be one of the three
// application roles and not already held.
func (s *AdminService) AddRole(ctx context.Context, caller Caller, userID uint64, role string) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	if !model.KnownRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if user.HasRole(role) {
		return nil, fmt.Errorf("%w: user already has the role %s", ErrInvalidRequest, role)
	}
	user.Roles = append(user.Roles, role)
	if err := s.users.UpdateRoles(ctx, userID, user.Roles); err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// RemoveRole revokes a role from a user. A user always keeps at least
// one role.
func (s *AdminService) RemoveRole(ctx context.Context, caller Caller, userID uint64, role string) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	if !model.KnownRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !user.HasRole(role) {
		return nil, fmt.Errorf("%w: user does not have the role %s", ErrInvalidRequest, role)
	}
	if len(user.Roles) <= 1 {
		return nil, fmt.Errorf("%w: cannot remove the only role from a user", ErrInvalidRequest)
	}
	kept := user.Roles[:0]
	for _, r := range user.Roles {
		if r != role {
			kept = append(kept, r)
		}
	}
	user.Roles = kept
	if err := s.users.UpdateRoles(ctx, userID, user.Roles); err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// SetUserEnabled enables or disables an account. Disabled accounts
// cannot authenticate.
func (s *AdminService) SetUserEnabled(ctx context.Context, caller Caller, userID uint64, enabled bool) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := s.users.SetEnabled(ctx, userID, enabled); err != nil {
		return nil, mapNotFound(err)
	}
	user.Enabled = enabled
	return user, nil
}

// Analytics is the 30-day reservation report.
type Analytics struct {
	TotalReservations     int            `json:"total_reservations"`
	ConfirmedReservations int            `json:"confirmed_reservations"`
	CancelledReservations int            `json:"cancelled_reservations"`
	CompletedReservations int            `json:"completed_reservations"`
	NoShowReservations    int            `json:"no_show_reservations"`
	ReservationsPerDay    map[string]int `json:"reservations_per_day"`
	TopRestaurants        map[string]int `json:"top_restaurants"`
	ReservationsByCuisine map[string]int `json:"reservations_by_cuisine"`
}

// ReservationAnalytics builds the report over the last 30 days. When
// restaurantID is non-zero the report covers that restaurant only.
// Restaurants that have since disappeared are counted under "Unknown
// Restaurant" and skipped for the cuisine breakdown.
func (s *AdminService) ReservationAnalytics(ctx context.Context, caller Caller, restaurantID uint64) (*Analytics, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	now := s.now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	var (
		reservations []model.Reservation
		err          error
	)
	if restaurantID != 0 {
		all, lerr := s.reservations.ListByRestaurant(ctx, restaurantID)
		if lerr != nil {
			return nil, lerr
		}
		for _, res := range all {
			if !res.ReservationDateTime.Before(since) {
				reservations = append(reservations, res)
			}
		}
	} else {
		reservations, err = s.reservations.ListSince(ctx, since)
		if err != nil {
			return nil, err
		}
	}

	report := &Analytics{
		TotalReservations:     len(reservations),
		ReservationsPerDay:    make(map[string]int, 30),
		TopRestaurants:        make(map[string]int),
		ReservationsByCuisine: make(map[string]int),
	}
	for i := 0; i < 30; i++ {
		report.ReservationsPerDay[now.AddDate(0, 0, -i).Format("2006-01-02")] = 0
	}

	byRestaurant := make(map[uint64]int)
	for _, res := range reservations {
		switch res.Status {
		case model.StatusConfirmed:
			report.ConfirmedReservations++
		case model.StatusCancelled:
			report.CancelledReservations++
		case model.StatusCompleted:
			report.CompletedReservations++
		case model.StatusNoShow:
			report.NoShowReservations++
		}
		day := res.ReservationDateTime.UTC().Format("2006-01-02")
		if _, ok := report.ReservationsPerDay[day]; ok {
			report.ReservationsPerDay[day]++
		}
		byRestaurant[res.RestaurantID]++
	}

	type restCount struct {
		id uint64
		n  int
	}
	ranked := make([]restCount, 0, len(byRestaurant))
	for id, n := range byRestaurant {
		ranked = append(ranked, restCount{id, n})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].n > ranked[j].n })
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	// A restaurant that has vanished is reported, not an error; any
	// other lookup failure aborts the report.
	names := make(map[uint64]*model.Restaurant, len(byRestaurant))
	lookup := func(id uint64) (*model.Restaurant, error) {
		if rest, ok := names[id]; ok {
			return rest, nil
		}
		rest, err := s.restaurants.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, repository.ErrRestaurantNotFound) {
				return nil, err
			}
			rest = nil
		}
		names[id] = rest
		return rest, nil
	}

	for _, rc := range ranked {
		rest, err := lookup(rc.id)
		if err != nil {
			return nil, err
		}
		name := "Unknown Restaurant"
		if rest != nil {
			name = rest.Name
		}
		report.TopRestaurants[name] = rc.n
	}
	for _, res := range reservations {
		rest, err := lookup(res.RestaurantID)
		if err != nil {
			return nil, err
		}
		if rest == nil {
			continue
		}
		for _, cuisine := range rest.CuisineTypes {
			report.ReservationsByCuisine[cuisine]++
		}
	}
	return report, nil
}
