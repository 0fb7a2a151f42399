package service

import (
	"context"
	"math"
	"testing"

	"github.com/nace129/booktable/internal/model"
)

func TestRecomputeWeightedMean(t *testing.T) {
	reviews := newFakeReviews()
	restaurants := newFakeRestaurants()
	restaurants.add(testRestaurant(2))
	agg := NewRatingAggregator(reviews, restaurants)

	ratings := []int{5, 5, 4, 3}
	for i, r := range ratings {
		_ = reviews.Create(context.Background(), &model.Review{
			RestaurantID: 1, UserID: uint64(10 + i), ReservationID: uint64(100 + i), Rating: r,
		})
	}

	if err := agg.Recompute(context.Background(), 1); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if restaurants.lastTotal != 4 {
		t.Fatalf("total = %d, want 4", restaurants.lastTotal)
	}
	if restaurants.lastAvg != 4.25 {
		t.Fatalf("avg = %v, want 4.25", restaurants.lastAvg)
	}

	// Dropping the 3 shifts the mean to 14/3.
	_ = reviews.Delete(context.Background(), 4)
	if err := agg.Recompute(context.Background(), 1); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if restaurants.lastTotal != 3 {
		t.Fatalf("total = %d, want 3", restaurants.lastTotal)
	}
	if math.Abs(restaurants.lastAvg-14.0/3.0) > 1e-9 {
		t.Fatalf("avg = %v, want %v", restaurants.lastAvg, 14.0/3.0)
	}
}

func TestRecomputeNoReviews(t *testing.T) {
	reviews := newFakeReviews()
	restaurants := newFakeRestaurants()
	restaurants.add(testRestaurant(2))
	agg := NewRatingAggregator(reviews, restaurants)

	if err := agg.Recompute(context.Background(), 1); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if restaurants.lastAvg != 0 || restaurants.lastTotal != 0 {
		t.Fatalf("empty recompute wrote avg=%v total=%d, want zeroes", restaurants.lastAvg, restaurants.lastTotal)
	}
}
