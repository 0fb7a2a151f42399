package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/nace129/booktable/internal/model"
)

// RestaurantRepo provides CRUD and query operations for restaurants
// together with their tables and opening hours. Tables and hours live
// in child tables and are loaded eagerly: the availability engine
// needs the full table list in stored order, and search needs the
// weekly hours. Derived columns (rating aggregates and the daily
// booking counter) are written through dedicated single-statement
// methods so concurrent writers never read-modify-write them.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a RestaurantRepo bound to the given database.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantColumns = `id, name, description, street, city, state, zip_code,
	phone_number, email, website, cuisine_types, price_range, manager_id,
	approved, active, average_rating, total_reviews, total_bookings_today,
	created_at, updated_at`

// Create inserts the restaurant along with its tables and opening
// hours inside one transaction and populates all generated IDs.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO restaurants (name, description, street, city, state, zip_code,
	            phone_number, email, website, cuisine_types, price_range, manager_id,
	            approved, active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rest.Name, rest.Description,
		rest.Address.Street, rest.Address.City, rest.Address.State, rest.Address.ZipCode,
		rest.PhoneNumber, rest.Email, rest.Website,
		strings.Join(rest.CuisineTypes, ","), rest.PriceRange, rest.ManagerID,
		rest.Approved, rest.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	if err := insertTablesTx(ctx, tx, rest.ID, rest.Tables); err != nil {
		return err
	}
	if err := insertHoursTx(ctx, tx, rest.ID, rest.OpeningHours); err != nil {
		return err
	}
	for i := range rest.Tables {
		rest.Tables[i].RestaurantID = rest.ID
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites the restaurant row and, when tables or hours are
// provided, reconciles the child rows within the same transaction.
// Passing nil for Tables/OpeningHours leaves the existing child rows
// untouched. Tables are diffed by id rather than rewritten: rows keep
// their ids (reservations and the stored first-fit order reference
// them), and removing a table that still has reservations fails with
// ErrTableInUse. Opening hours carry no foreign keys and are replaced
// wholesale.
func (r *RestaurantRepo) Update(ctx context.Context, rest *model.Restaurant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE restaurants SET name = ?, description = ?, street = ?, city = ?,
	            state = ?, zip_code = ?, phone_number = ?, email = ?, website = ?,
	            cuisine_types = ?, price_range = ?, approved = ?, active = ?,
	            updated_at = NOW()
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		rest.Name, rest.Description,
		rest.Address.Street, rest.Address.City, rest.Address.State, rest.Address.ZipCode,
		rest.PhoneNumber, rest.Email, rest.Website,
		strings.Join(rest.CuisineTypes, ","), rest.PriceRange,
		rest.Approved, rest.Active, rest.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// The row may exist with identical values; verify before failing.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM restaurants WHERE id = ?`, rest.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRestaurantNotFound
			}
			return err
		}
	}

	if rest.Tables != nil {
		if err := syncTablesTx(ctx, tx, rest.ID, rest.Tables); err != nil {
			return err
		}
	}
	if rest.OpeningHours != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM opening_hours WHERE restaurant_id = ?`, rest.ID); err != nil {
			return err
		}
		if err := insertHoursTx(ctx, tx, rest.ID, rest.OpeningHours); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func insertTablesTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, tables []model.Table) error {
	const q = `INSERT INTO restaurant_tables (restaurant_id, name, capacity, is_available) VALUES (?, ?, ?, ?)`
	for i := range tables {
		res, err := tx.ExecContext(ctx, q, restaurantID, tables[i].Name, tables[i].Capacity, tables[i].IsAvailable)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		tables[i].ID = uint64(id)
		tables[i].RestaurantID = restaurantID
	}
	return nil
}

// syncTablesTx reconciles the stored table rows with the desired set:
// rows with a matching id are updated in place, rows with id zero are
// inserted, and stored rows absent from the desired set are deleted.
// A delete blocked by fk_reservations_table (MySQL error 1451) maps
// to ErrTableInUse.
func syncTablesTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, tables []model.Table) error {
	existing := make(map[uint64]bool)
	rows, err := tx.QueryContext(ctx, `SELECT id FROM restaurant_tables WHERE restaurant_id = ?`, restaurantID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	keep := make(map[uint64]bool, len(tables))
	const uq = `UPDATE restaurant_tables SET name = ?, capacity = ?, is_available = ? WHERE id = ? AND restaurant_id = ?`
	const iq = `INSERT INTO restaurant_tables (restaurant_id, name, capacity, is_available) VALUES (?, ?, ?, ?)`
	for i := range tables {
		t := &tables[i]
		if t.ID != 0 && existing[t.ID] {
			if _, err := tx.ExecContext(ctx, uq, t.Name, t.Capacity, t.IsAvailable, t.ID, restaurantID); err != nil {
				return err
			}
		} else {
			res, err := tx.ExecContext(ctx, iq, restaurantID, t.Name, t.Capacity, t.IsAvailable)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			t.ID = uint64(id)
		}
		t.RestaurantID = restaurantID
		keep[t.ID] = true
	}

	for id := range existing {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1451 {
				return ErrTableInUse
			}
			return err
		}
	}
	return nil
}

func insertHoursTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, hours []model.OpeningHours) error {
	const q = `INSERT INTO opening_hours (restaurant_id, day_of_week, open_time, close_time) VALUES (?, ?, ?, ?)`
	for _, h := range hours {
		if _, err := tx.ExecContext(ctx, q, restaurantID, int(h.DayOfWeek), h.OpenTime, h.CloseTime); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns one restaurant with tables and hours populated, or
// ErrRestaurantNotFound.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = ?`
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if err := r.attachChildren(ctx, []*model.Restaurant{rest}); err != nil {
		return nil, err
	}
	return rest, nil
}

// ListApproved returns restaurants visible to customers
// (approved and active), newest first.
func (r *RestaurantRepo) ListApproved(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, `WHERE approved = TRUE AND active = TRUE`)
}

// ListPending returns active restaurants awaiting admin approval.
func (r *RestaurantRepo) ListPending(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, `WHERE approved = FALSE AND active = TRUE`)
}

// ListByManager returns every restaurant the manager owns, including
// unapproved and inactive ones.
func (r *RestaurantRepo) ListByManager(ctx context.Context, managerID uint64) ([]model.Restaurant, error) {
	return r.list(ctx, `WHERE manager_id = ?`, managerID)
}

// SearchByLocation returns approved, active restaurants filtered by
// zip code, city or state. Zip takes precedence over city, city over
// state; with no location given all visible restaurants are returned.
func (r *RestaurantRepo) SearchByLocation(ctx context.Context, city, state, zip string) ([]model.Restaurant, error) {
	switch {
	case zip != "":
		return r.list(ctx, `WHERE approved = TRUE AND active = TRUE AND zip_code = ?`, zip)
	case city != "":
		return r.list(ctx, `WHERE approved = TRUE AND active = TRUE AND city = ?`, city)
	case state != "":
		return r.list(ctx, `WHERE approved = TRUE AND active = TRUE AND state = ?`, state)
	default:
		return r.ListApproved(ctx)
	}
}

func (r *RestaurantRepo) list(ctx context.Context, where string, args ...any) ([]model.Restaurant, error) {
	q := `SELECT ` + restaurantColumns + ` FROM restaurants ` + where + ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restaurant, 0)
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Addresses are taken only after the slice has stopped growing;
	// appending above may reallocate the backing array and strand
	// earlier pointers.
	refs := make([]*model.Restaurant, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachChildren(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachChildren loads tables and opening hours for the given
// restaurants in two batched queries. Tables come back ordered by id,
// which is the stored order the first-fit engine relies on.
func (r *RestaurantRepo) attachChildren(ctx context.Context, rests []*model.Restaurant) error {
	if len(rests) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Restaurant, len(rests))
	ids := make([]any, 0, len(rests))
	placeholders := make([]string, 0, len(rests))
	for _, rest := range rests {
		index[rest.ID] = rest
		ids = append(ids, rest.ID)
		placeholders = append(placeholders, "?")
	}
	in := strings.Join(placeholders, ",")

	tq := `SELECT id, restaurant_id, name, capacity, is_available
	       FROM restaurant_tables WHERE restaurant_id IN (` + in + `) ORDER BY id`
	trows, err := r.db.QueryContext(ctx, tq, ids...)
	if err != nil {
		return err
	}
	defer trows.Close()
	for trows.Next() {
		var t model.Table
		if err := trows.Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Capacity, &t.IsAvailable); err != nil {
			return err
		}
		if rest, ok := index[t.RestaurantID]; ok {
			rest.Tables = append(rest.Tables, t)
		}
	}
	if err := trows.Err(); err != nil {
		return err
	}

	hq := `SELECT restaurant_id, day_of_week, open_time, close_time
	       FROM opening_hours WHERE restaurant_id IN (` + in + `) ORDER BY day_of_week`
	hrows, err := r.db.QueryContext(ctx, hq, ids...)
	if err != nil {
		return err
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			rid uint64
			day int
			h   model.OpeningHours
		)
		if err := hrows.Scan(&rid, &day, &h.OpenTime, &h.CloseTime); err != nil {
			return err
		}
		h.DayOfWeek = time.Weekday(day)
		if rest, ok := index[rid]; ok {
			rest.OpeningHours = append(rest.OpeningHours, h)
		}
	}
	return hrows.Err()
}

// IncrementBookingsToday bumps the daily booking counter with a
// single atomic UPDATE. Never read-then-save this column.
func (r *RestaurantRepo) IncrementBookingsToday(ctx context.Context, id uint64) error {
	const q = `UPDATE restaurants SET total_bookings_today = total_bookings_today + 1 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ResetBookingCounts zeroes the daily counter for every restaurant
// and returns the number of rows that actually changed. Re-running
// with all counters already at zero affects no rows.
func (r *RestaurantRepo) ResetBookingCounts(ctx context.Context) (int64, error) {
	const q = `UPDATE restaurants SET total_bookings_today = 0 WHERE total_bookings_today <> 0`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetRating writes both rating aggregates in one statement so readers
// never observe the average without the matching count.
func (r *RestaurantRepo) SetRating(ctx context.Context, id uint64, avg float64, total int) error {
	const q = `UPDATE restaurants SET average_rating = ?, total_reviews = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, avg, total, id)
	return err
}

func scanRestaurant(row rowScanner) (*model.Restaurant, error) {
	var (
		rest     model.Restaurant
		cuisines string
	)
	err := row.Scan(&rest.ID, &rest.Name, &rest.Description,
		&rest.Address.Street, &rest.Address.City, &rest.Address.State, &rest.Address.ZipCode,
		&rest.PhoneNumber, &rest.Email, &rest.Website,
		&cuisines, &rest.PriceRange, &rest.ManagerID,
		&rest.Approved, &rest.Active,
		&rest.AverageRating, &rest.TotalReviews, &rest.TotalBookingsToday,
		&rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cuisines != "" {
		rest.CuisineTypes = strings.Split(cuisines, ",")
	}
	return &rest, nil
}
