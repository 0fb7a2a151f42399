package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

// RestaurantStore persists restaurants and their child rows.
type RestaurantStore interface {
	Create(ctx context.Context, rest *model.Restaurant) error
	Update(ctx context.Context, rest *model.Restaurant) error
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
	ListApproved(ctx context.Context) ([]model.Restaurant, error)
	ListPending(ctx context.Context) ([]model.Restaurant, error)
	ListByManager(ctx context.Context, managerID uint64) ([]model.Restaurant, error)
	SearchByLocation(ctx context.Context, city, state, zip string) ([]model.Restaurant, error)
}

// RestaurantService owns the restaurant directory: registration,
// updates, approval moderation and the customer-facing search that
// combines opening hours with table availability.
type RestaurantService struct {
	restaurants RestaurantStore
	engine      *AvailabilityEngine
}

// NewRestaurantService wires the directory service.
func NewRestaurantService(restaurants RestaurantStore, engine *AvailabilityEngine) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, engine: engine}
}

// RestaurantInput carries a create request; the caller becomes the
// manager and the restaurant starts unapproved but active.
type RestaurantInput struct {
	Name         string
	Description  string
	Address      model.Address
	PhoneNumber  string
	Email        string
	Website      string
	CuisineTypes []string
	PriceRange   int
	OpeningHours []model.OpeningHours
	Tables       []model.Table
}

// Create registers a new restaurant owned by the caller. New tables
// are always created available.
func (s *RestaurantService) Create(ctx context.Context, caller Caller, in RestaurantInput) (*model.Restaurant, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: restaurant name is required", ErrInvalidRequest)
	}
	if in.PriceRange < 1 || in.PriceRange > 4 {
		return nil, fmt.Errorf("%w: price range must be between 1 and 4", ErrInvalidRequest)
	}
	tables := make([]model.Table, len(in.Tables))
	copy(tables, in.Tables)
	for i := range tables {
		tables[i].IsAvailable = true
	}
	rest := &model.Restaurant{
		Name:         in.Name,
		Description:  in.Description,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
		Email:        in.Email,
		Website:      in.Website,
		CuisineTypes: in.CuisineTypes,
		PriceRange:   in.PriceRange,
		OpeningHours: in.OpeningHours,
		Tables:       tables,
		ManagerID:    caller.ID,
		Approved:     false,
		Active:       true,
	}
	if err := s.restaurants.Create(ctx, rest); err != nil {
		return nil, err
	}
	return rest, nil
}

// Get returns one restaurant. Unapproved restaurants are visible only
// to their manager and admins.
func (s *RestaurantService) Get(ctx context.Context, caller Caller, id uint64) (*model.Restaurant, error) {
	rest, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !rest.Approved && caller.ID != rest.ManagerID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: you don't have permission to view this restaurant", ErrPermissionDenied)
	}
	return rest, nil
}

// ListApproved returns restaurants visible to customers.
func (s *RestaurantService) ListApproved(ctx context.Context) ([]model.Restaurant, error) {
	return s.restaurants.ListApproved(ctx)
}

// ListPending returns restaurants awaiting approval (admin only).
func (s *RestaurantService) ListPending(ctx context.Context, caller Caller) ([]model.Restaurant, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return s.restaurants.ListPending(ctx)
}

// ListMine returns the caller's own restaurants.
func (s *RestaurantService) ListMine(ctx context.Context, caller Caller) ([]model.Restaurant, error) {
	return s.restaurants.ListByManager(ctx, caller.ID)
}

// RestaurantUpdate carries a partial update; nil fields keep their
// current value. When provided, OpeningHours replace the stored rows
// wholesale and Tables are reconciled by id; removing a table that
// still has reservations is a conflict.
type RestaurantUpdate struct {
	Name         *string
	Description  *string
	Address      *model.Address
	PhoneNumber  *string
	Email        *string
	Website      *string
	CuisineTypes []string
	PriceRange   *int
	OpeningHours []model.OpeningHours
	Tables       []model.Table
	Active       *bool
}

// Update applies a partial update. Only the manager or an admin may
// update.
func (s *RestaurantService) Update(ctx context.Context, caller Caller, id uint64, in RestaurantUpdate) (*model.Restaurant, error) {
	rest, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if caller.ID != rest.ManagerID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: you don't have permission to update this restaurant", ErrPermissionDenied)
	}
	if in.Name != nil {
		rest.Name = *in.Name
	}
	if in.Description != nil {
		rest.Description = *in.Description
	}
	if in.Address != nil {
		rest.Address = *in.Address
	}
	if in.PhoneNumber != nil {
		rest.PhoneNumber = *in.PhoneNumber
	}
	if in.Email != nil {
		rest.Email = *in.Email
	}
	if in.Website != nil {
		rest.Website = *in.Website
	}
	if in.CuisineTypes != nil {
		rest.CuisineTypes = in.CuisineTypes
	}
	if in.PriceRange != nil {
		if *in.PriceRange < 1 || *in.PriceRange > 4 {
			return nil, fmt.Errorf("%w: price range must be between 1 and 4", ErrInvalidRequest)
		}
		rest.PriceRange = *in.PriceRange
	}
	if in.Active != nil {
		rest.Active = *in.Active
	}
	rest.OpeningHours = in.OpeningHours // nil leaves child rows untouched
	rest.Tables = in.Tables
	if err := s.restaurants.Update(ctx, rest); err != nil {
		if errors.Is(err, repository.ErrTableInUse) {
			return nil, fmt.Errorf("%w: a removed table still has reservations", ErrConflict)
		}
		return nil, mapNotFound(err)
	}
	return s.restaurants.GetByID(ctx, id)
}

// Delete soft-deletes by flipping active to false. Manager or admin
// only.
func (s *RestaurantService) Delete(ctx context.Context, caller Caller, id uint64) error {
	rest, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if caller.ID != rest.ManagerID && !caller.IsAdmin() {
		return fmt.Errorf("%w: you don't have permission to delete this restaurant", ErrPermissionDenied)
	}
	rest.Active = false
	rest.OpeningHours = nil
	rest.Tables = nil
	return s.restaurants.Update(ctx, rest)
}

// Approve marks a restaurant approved (admin only).
func (s *RestaurantService) Approve(ctx context.Context, caller Caller, id uint64) (*model.Restaurant, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	rest, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	rest.Approved = true
	rest.OpeningHours = nil
	rest.Tables = nil
	if err := s.restaurants.Update(ctx, rest); err != nil {
		return nil, err
	}
	return s.restaurants.GetByID(ctx, id)
}

// SearchInput carries a customer search: a location filter (zip over
// city over state), an optional cuisine filter, and the desired
// seating time and party size.
type SearchInput struct {
	City        string
	State       string
	ZipCode     string
	CuisineType string
	DateTime    time.Time
	PartySize   int
}

// Search returns approved, active restaurants that match the location
// and cuisine filters, are open at the requested time, and have at
// least one fitting table free of live reservations within
// ±SearchWindow of it.
func (s *RestaurantService) Search(ctx context.Context, in SearchInput) ([]model.Restaurant, error) {
	if in.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", ErrInvalidRequest)
	}
	candidates, err := s.restaurants.SearchByLocation(ctx, in.City, in.State, in.ZipCode)
	if err != nil {
		return nil, err
	}
	out := make([]model.Restaurant, 0, len(candidates))
	for i := range candidates {
		rest := &candidates[i]
		if in.CuisineType != "" && !containsString(rest.CuisineTypes, in.CuisineType) {
			continue
		}
		if !hoursCover(rest.OpeningHours, in.DateTime) {
			continue
		}
		ok, err := s.engine.Available(ctx, rest, in.DateTime, in.PartySize, SearchWindow)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *rest)
		}
	}
	return out, nil
}

func containsString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
