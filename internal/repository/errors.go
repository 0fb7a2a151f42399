// Package repository implements MySQL-backed storage for the booking
// service. This file defines sentinel errors shared across the
// repositories so that the service layer can distinguish failure
// scenarios without inspecting driver errors. For example,
// ErrEmailExists signals a duplicate unique email on insert, while
// the per-entity not-found errors wrap sql.ErrNoRows lookups.
package repository

import "errors"

// ErrEmailExists is returned when a user insert collides with the
// unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateReview is returned when a review insert collides with
// the unique (user_id, reservation_id) index.
var ErrDuplicateReview = errors.New("review already exists for reservation")

// ErrTableInUse is returned when removing a table would orphan
// reservation rows that reference it.
var ErrTableInUse = errors.New("table has reservations")

// Not-found sentinels returned instead of raw sql.ErrNoRows so the
// service layer does not import database/sql.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReviewNotFound      = errors.New("review not found")
)
