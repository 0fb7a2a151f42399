package model

import "time"

// Review is a customer's rating of a restaurant, tied to one of the
// customer's own reservations at that restaurant. A user may review a
// given reservation at most once. Every review mutation triggers a
// full recompute of the restaurant's rating aggregates.
//
// Fields:
//  ID            – primary key identifier.
//  RestaurantID  – reviewed restaurant.
//  UserID        – review author (must own the reservation).
//  ReservationID – reservation the review refers to.
//  Rating        – 1..5.
//  Comment       – optional free-form text.
type Review struct {
	ID            uint64    // reviews.id
	RestaurantID  uint64    // reviews.restaurant_id
	UserID        uint64    // reviews.user_id
	ReservationID uint64    // reviews.reservation_id
	Rating        int       // reviews.rating
	Comment       string    // reviews.comment
	CreatedAt     time.Time // reviews.created_at
	UpdatedAt     time.Time // reviews.updated_at
}
