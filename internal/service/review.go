package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, rev *model.Review) error
	GetByID(ctx context.Context, id uint64) (*model.Review, error)
	Update(ctx context.Context, rev *model.Review) error
	Delete(ctx context.Context, id uint64) error
	FindByUserAndReservation(ctx context.Context, userID, reservationID uint64) (*model.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Review, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Review, error)
}

// reviewReservationGetter resolves reservations for ownership checks.
type reviewReservationGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
}

// reviewRestaurantGetter verifies the reviewed restaurant exists.
type reviewRestaurantGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// ReviewService manages customer reviews. Every mutation triggers a
// synchronous recompute of the restaurant's rating aggregates.
type ReviewService struct {
	reviews      ReviewStore
	reservations reviewReservationGetter
	restaurants  reviewRestaurantGetter
	aggregator   *RatingAggregator
}

// NewReviewService wires the review service.
func NewReviewService(reviews ReviewStore, reservations reviewReservationGetter, restaurants reviewRestaurantGetter, aggregator *RatingAggregator) *ReviewService {
	return &ReviewService{reviews: reviews, reservations: reservations, restaurants: restaurants, aggregator: aggregator}
}

// ReviewInput carries a review create request.
type ReviewInput struct {
	RestaurantID  uint64
	ReservationID uint64
	Rating        int
	Comment       string
}

// Create adds a review. The caller must own the named reservation,
// the reservation must belong to the named restaurant, the rating
// must be 1..5 and the reservation must not have been reviewed by
// this user before.
func (s *ReviewService) Create(ctx context.Context, caller Caller, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRequest)
	}
	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, mapNotFound(err)
	}
	res, err := s.reservations.GetByID(ctx, in.ReservationID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if res.UserID != caller.ID {
		return nil, fmt.Errorf("%w: you can only review your own reservations", ErrPermissionDenied)
	}
	if res.RestaurantID != in.RestaurantID {
		return nil, fmt.Errorf("%w: reservation is not for the specified restaurant", ErrInvalidRequest)
	}
	if _, err := s.reviews.FindByUserAndReservation(ctx, caller.ID, in.ReservationID); err == nil {
		return nil, fmt.Errorf("%w: you have already reviewed this reservation", ErrConflict)
	} else if !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, err
	}

	rev := &model.Review{
		RestaurantID:  in.RestaurantID,
		UserID:        caller.ID,
		ReservationID: in.ReservationID,
		Rating:        in.Rating,
		Comment:       in.Comment,
	}
	if err := s.reviews.Create(ctx, rev); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, fmt.Errorf("%w: you have already reviewed this reservation", ErrConflict)
		}
		return nil, err
	}
	if err := s.aggregator.Recompute(ctx, in.RestaurantID); err != nil {
		return nil, err
	}
	return rev, nil
}

// UpdateReviewInput carries a partial review update; nil fields keep
// their current value.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// Update edits a review's rating or comment. Only the author may
// update.
func (s *ReviewService) Update(ctx context.Context, caller Caller, id uint64, in UpdateReviewInput) (*model.Review, error) {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if rev.UserID != caller.ID {
		return nil, fmt.Errorf("%w: you can only update your own reviews", ErrPermissionDenied)
	}
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRequest)
		}
		rev.Rating = *in.Rating
	}
	if in.Comment != nil {
		rev.Comment = *in.Comment
	}
	if err := s.reviews.Update(ctx, rev); err != nil {
		return nil, err
	}
	if err := s.aggregator.Recompute(ctx, rev.RestaurantID); err != nil {
		return nil, err
	}
	return rev, nil
}

// Delete removes a review. The author or an admin may delete.
func (s *ReviewService) Delete(ctx context.Context, caller Caller, id uint64) error {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if rev.UserID != caller.ID && !caller.IsAdmin() {
		return fmt.Errorf("%w: you don't have permission to delete this review", ErrPermissionDenied)
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return s.aggregator.Recompute(ctx, rev.RestaurantID)
}

// ListForRestaurant returns a restaurant's reviews, newest first.
func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID uint64) ([]model.Review, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.reviews.ListByRestaurant(ctx, restaurantID)
}

// ListForUser returns the caller's own reviews.
func (s *ReviewService) ListForUser(ctx context.Context, caller Caller) ([]model.Review, error) {
	return s.reviews.ListByUser(ctx, caller.ID)
}
