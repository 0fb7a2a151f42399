package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nace129/booktable/internal/model"
)

// ReservationRepo provides CRUD and window queries for reservations.
// All timestamps are stored as UTC DATETIME values. The window count
// query backs the availability engine: it counts live (non-CANCELLED)
// reservations for one table inside a time interval.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, restaurant_id, user_id, table_id, confirmation_code,
	reservation_datetime, party_size, special_requests, status, created_at, updated_at`

// Create inserts a new reservation and populates the generated ID
// and timestamps.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (restaurant_id, user_id, table_id, confirmation_code,
	            reservation_datetime, party_size, special_requests, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.RestaurantID, res.UserID, res.TableID, res.ConfirmationCode,
		res.ReservationDateTime.UTC(), res.PartySize, res.SpecialRequests, string(res.Status))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Read the row back so defaults and timestamps are populated.
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	got, err := scanReservation(r.db.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID returns the reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// Update rewrites the mutable reservation fields.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET table_id = ?, reservation_datetime = ?, party_size = ?,
	            special_requests = ?, status = ?, updated_at = NOW()
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		res.TableID, res.ReservationDateTime.UTC(), res.PartySize,
		res.SpecialRequests, string(res.Status), res.ID)
	return err
}

// CountLiveForTable counts non-CANCELLED reservations for the exact
// (restaurant, table) pair whose scheduled time falls inside
// [from, to]. This is the overlap check behind first-fit assignment.
func (r *ReservationRepo) CountLiveForTable(ctx context.Context, restaurantID, tableID uint64, from, to time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE restaurant_id = ? AND table_id = ? AND status <> 'CANCELLED'
	             AND reservation_datetime BETWEEN ? AND ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, restaurantID, tableID, from.UTC(), to.UTC()).Scan(&n)
	return n, err
}

// ListByUser returns the user's reservations, latest seating first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE user_id = ? ORDER BY reservation_datetime DESC`
	return r.queryMany(ctx, q, userID)
}

// ListByRestaurant returns a restaurant's reservations, latest
// seating first.
func (r *ReservationRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE restaurant_id = ? ORDER BY reservation_datetime DESC`
	return r.queryMany(ctx, q, restaurantID)
}

// ListConfirmedScheduledBefore returns CONFIRMED reservations whose
// scheduled time is before the cutoff. Used by the completion sweep;
// the sweeper re-checks the grace period per row before flipping.
func (r *ReservationRepo) ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE status = 'CONFIRMED' AND reservation_datetime < ?
	           ORDER BY reservation_datetime`
	return r.queryMany(ctx, q, cutoff.UTC())
}

// ListSince returns reservations created in the window [since, now];
// used by admin analytics.
func (r *ReservationRepo) ListSince(ctx context.Context, since time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE reservation_datetime >= ? ORDER BY reservation_datetime DESC`
	return r.queryMany(ctx, q, since.UTC())
}

func (r *ReservationRepo) queryMany(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res    model.Reservation
		status string
	)
	err := row.Scan(&res.ID, &res.RestaurantID, &res.UserID, &res.TableID,
		&res.ConfirmationCode, &res.ReservationDateTime, &res.PartySize,
		&res.SpecialRequests, &status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}
