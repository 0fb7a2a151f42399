package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/nace129/booktable/internal/model"
)

// ReviewRepo provides CRUD operations for reviews plus the
// per-rating-bucket count the rating aggregator scans. The unique
// (user_id, reservation_id) index enforces the one-review-per-
// reservation invariant at the storage layer.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, restaurant_id, user_id, reservation_id, rating, comment, created_at, updated_at`

// Create inserts a review; a duplicate (user, reservation) pair is
// reported as ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	const q = `INSERT INTO reviews (restaurant_id, user_id, reservation_id, rating, comment)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rev.RestaurantID, rev.UserID, rev.ReservationID, rev.Rating, rev.Comment)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrDuplicateReview
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	return nil
}

// GetByID returns the review or ErrReviewNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	rev, err := scanReview(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	return rev, err
}

// Update rewrites the rating and comment.
func (r *ReviewRepo) Update(ctx context.Context, rev *model.Review) error {
	const q = `UPDATE reviews SET rating = ?, comment = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, rev.Rating, rev.Comment, rev.ID)
	return err
}

// Delete removes the review row.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// FindByUserAndReservation returns the user's review of a
// reservation, or ErrReviewNotFound when none exists.
func (r *ReviewRepo) FindByUserAndReservation(ctx context.Context, userID, reservationID uint64) (*model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = ? AND reservation_id = ? LIMIT 1`
	rev, err := scanReview(r.db.QueryRowContext(ctx, q, userID, reservationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	return rev, err
}

// ListByRestaurant returns a restaurant's reviews, newest first.
func (r *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE restaurant_id = ? ORDER BY created_at DESC`
	return r.queryMany(ctx, q, restaurantID)
}

// ListByUser returns a user's reviews, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryMany(ctx, q, userID)
}

// CountByRestaurantAndRating counts a restaurant's reviews holding
// the exact rating value. The aggregator calls this for each bucket
// 1..5 when recomputing the weighted mean.
func (r *ReviewRepo) CountByRestaurantAndRating(ctx context.Context, restaurantID uint64, rating int) (int, error) {
	const q = `SELECT COUNT(*) FROM reviews WHERE restaurant_id = ? AND rating = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, restaurantID, rating).Scan(&n)
	return n, err
}

func (r *ReviewRepo) queryMany(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rev)
	}
	return out, rows.Err()
}

func scanReview(row rowScanner) (*model.Review, error) {
	var rev model.Review
	err := row.Scan(&rev.ID, &rev.RestaurantID, &rev.UserID, &rev.ReservationID,
		&rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
