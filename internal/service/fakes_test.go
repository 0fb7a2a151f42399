package service

import (
	"context"
	"sync"
	"time"

	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/repository"
)

// In-memory stores backing the service tests. They mirror the SQL
// repositories' observable behavior: copies in and out, sentinel
// errors for missing rows, inclusive BETWEEN semantics for the
// conflict count.

type fakeReservations struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Reservation
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{nextID: 1, rows: make(map[uint64]model.Reservation)}
}

func (f *fakeReservations) Create(ctx context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res.ID = f.nextID
	f.nextID++
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservations) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &row, nil
}

func (f *fakeReservations) Update(ctx context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[res.ID]; !ok {
		return repository.ErrReservationNotFound
	}
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservations) CountLiveForTable(ctx context.Context, restaurantID, tableID uint64, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.RestaurantID != restaurantID || row.TableID != tableID || !row.Status.Live() {
			continue
		}
		if !row.ReservationDateTime.Before(from) && !row.ReservationDateTime.After(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservations) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReservations) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, row := range f.rows {
		if row.RestaurantID == restaurantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReservations) ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, row := range f.rows {
		if row.Status == model.StatusConfirmed && row.ReservationDateTime.Before(cutoff) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReservations) ListSince(ctx context.Context, since time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, row := range f.rows {
		if !row.ReservationDateTime.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeRestaurants struct {
	mu         sync.Mutex
	nextID     uint64
	rows       map[uint64]model.Restaurant
	bookings   map[uint64]int // total_bookings_today
	updateErr  error          // forced Update failure when set
	lastAvg    float64
	lastTotal  int
	lastRated  uint64
	ratedCalls int
}

func newFakeRestaurants() *fakeRestaurants {
	return &fakeRestaurants{
		nextID:   1,
		rows:     make(map[uint64]model.Restaurant),
		bookings: make(map[uint64]int),
	}
}

func (f *fakeRestaurants) add(rest model.Restaurant) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rest.ID == 0 {
		rest.ID = f.nextID
		f.nextID++
	} else if rest.ID >= f.nextID {
		f.nextID = rest.ID + 1
	}
	f.rows[rest.ID] = rest
	return rest.ID
}

func (f *fakeRestaurants) Create(ctx context.Context, rest *model.Restaurant) error {
	rest.ID = f.add(*rest)
	return nil
}

func (f *fakeRestaurants) Update(ctx context.Context, rest *model.Restaurant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cur, ok := f.rows[rest.ID]
	if !ok {
		return repository.ErrRestaurantNotFound
	}
	next := *rest
	// nil child slices leave the stored children untouched, matching
	// the SQL repository.
	if next.Tables == nil {
		next.Tables = cur.Tables
	}
	if next.OpeningHours == nil {
		next.OpeningHours = cur.OpeningHours
	}
	f.rows[rest.ID] = next
	return nil
}

func (f *fakeRestaurants) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrRestaurantNotFound
	}
	row.TotalBookingsToday = f.bookings[id]
	return &row, nil
}

func (f *fakeRestaurants) ListApproved(ctx context.Context) ([]model.Restaurant, error) {
	return f.filter(func(r *model.Restaurant) bool { return r.Approved && r.Active }), nil
}

func (f *fakeRestaurants) ListPending(ctx context.Context) ([]model.Restaurant, error) {
	return f.filter(func(r *model.Restaurant) bool { return !r.Approved && r.Active }), nil
}

func (f *fakeRestaurants) ListByManager(ctx context.Context, managerID uint64) ([]model.Restaurant, error) {
	return f.filter(func(r *model.Restaurant) bool { return r.ManagerID == managerID }), nil
}

func (f *fakeRestaurants) SearchByLocation(ctx context.Context, city, state, zip string) ([]model.Restaurant, error) {
	return f.filter(func(r *model.Restaurant) bool {
		if !r.Approved || !r.Active {
			return false
		}
		switch {
		case zip != "":
			return r.Address.ZipCode == zip
		case city != "":
			return r.Address.City == city
		case state != "":
			return r.Address.State == state
		}
		return true
	}), nil
}

func (f *fakeRestaurants) filter(keep func(*model.Restaurant) bool) []model.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Restaurant
	for _, row := range f.rows {
		if keep(&row) {
			out = append(out, row)
		}
	}
	return out
}

func (f *fakeRestaurants) IncrementBookingsToday(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[id]++
	return nil
}

func (f *fakeRestaurants) ResetBookingCounts(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, count := range f.bookings {
		if count != 0 {
			f.bookings[id] = 0
			n++
		}
	}
	return n, nil
}

func (f *fakeRestaurants) SetRating(ctx context.Context, id uint64, avg float64, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRated = id
	f.lastAvg = avg
	f.lastTotal = total
	f.ratedCalls++
	if row, ok := f.rows[id]; ok {
		row.AverageRating = avg
		row.TotalReviews = total
		f.rows[id] = row
	}
	return nil
}

type fakeUsers struct {
	mu   sync.Mutex
	rows map[uint64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[uint64]model.User)}
}

func (f *fakeUsers) add(u model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[u.ID] = u
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	roles := make([]string, len(row.Roles))
	copy(roles, row.Roles)
	row.Roles = roles
	return &row, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeUsers) UpdateRoles(ctx context.Context, id uint64, roles []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	row.Roles = append([]string(nil), roles...)
	f.rows[id] = row
	return nil
}

func (f *fakeUsers) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	row.Enabled = enabled
	f.rows[id] = row
	return nil
}

type fakeReviews struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{nextID: 1, rows: make(map[uint64]model.Review)}
}

func (f *fakeReviews) Create(ctx context.Context, rev *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == rev.UserID && row.ReservationID == rev.ReservationID {
			return repository.ErrDuplicateReview
		}
	}
	rev.ID = f.nextID
	f.nextID++
	f.rows[rev.ID] = *rev
	return nil
}

func (f *fakeReviews) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return &row, nil
}

func (f *fakeReviews) Update(ctx context.Context, rev *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[rev.ID]; !ok {
		return repository.ErrReviewNotFound
	}
	f.rows[rev.ID] = *rev
	return nil
}

func (f *fakeReviews) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeReviews) FindByUserAndReservation(ctx context.Context, userID, reservationID uint64) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID && row.ReservationID == reservationID {
			return &row, nil
		}
	}
	return nil, repository.ErrReviewNotFound
}

func (f *fakeReviews) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Review
	for _, row := range f.rows {
		if row.RestaurantID == restaurantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReviews) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Review
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReviews) CountByRestaurantAndRating(ctx context.Context, restaurantID uint64, rating int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.RestaurantID == restaurantID && row.Rating == rating {
			n++
		}
	}
	return n, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // subjects, in order
}

func (f *fakeNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, subject)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// testRestaurant builds a visible two-table restaurant open every day
// 10:00-22:00. Table 1 seats two, table 2 seats six.
func testRestaurant(managerID uint64) model.Restaurant {
	hours := make([]model.OpeningHours, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours = append(hours, model.OpeningHours{DayOfWeek: d, OpenTime: "10:00", CloseTime: "22:00"})
	}
	return model.Restaurant{
		Name:         "Trattoria Uno",
		Address:      model.Address{City: "San Jose", State: "CA", ZipCode: "95113"},
		CuisineTypes: []string{"Italian"},
		PriceRange:   2,
		ManagerID:    managerID,
		Approved:     true,
		Active:       true,
		OpeningHours: hours,
		Tables: []model.Table{
			{ID: 1, Name: "T1", Capacity: 2, IsAvailable: true},
			{ID: 2, Name: "T2", Capacity: 6, IsAvailable: true},
		},
	}
}
