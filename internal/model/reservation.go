package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// PENDING exists in the enum for schema compatibility but bookings are
// created directly as CONFIRMED; no approval flow produces it.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusNoShow    ReservationStatus = "NO_SHOW"
)

// Valid reports whether s is one of the declared status values.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Live reports whether the reservation still occupies its table slot.
// Only CANCELLED reservations release the slot.
func (s ReservationStatus) Live() bool { return s != StatusCancelled }

// Reservation records a customer's booking of one table at a
// restaurant for a specific time. Two live reservations may never
// share a table with reservation times closer than the two hour
// booking window.
//
// Fields:
//  ID                  – primary key identifier.
//  RestaurantID        – booked restaurant.
//  UserID              – booking customer.
//  TableID             – table assigned by the availability engine.
//  ConfirmationCode    – opaque code included in the confirmation email.
//  ReservationDateTime – scheduled seating time (UTC).
//  PartySize           – number of guests, at least 1.
//  SpecialRequests     – optional free-form note for the restaurant.
//  Status              – lifecycle state.
type Reservation struct {
	ID                  uint64            // reservations.id
	RestaurantID        uint64            // reservations.restaurant_id
	UserID              uint64            // reservations.user_id
	TableID             uint64            // reservations.table_id
	ConfirmationCode    string            // reservations.confirmation_code
	ReservationDateTime time.Time         // reservations.reservation_datetime
	PartySize           int               // reservations.party_size
	SpecialRequests     string            // reservations.special_requests
	Status              ReservationStatus // reservations.status
	CreatedAt           time.Time         // reservations.created_at
	UpdatedAt           time.Time         // reservations.updated_at
}
