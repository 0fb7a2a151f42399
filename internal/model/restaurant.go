package model

import "time"

// Restaurant represents a venue registered by a restaurant manager.
// A restaurant stays invisible to customers until an admin approves
// it; soft deletion flips the active flag instead of removing the
// row. The rating and booking-count columns are derived values
// maintained by the rating aggregator and the booking service.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – restaurant name.
//  Description       – optional free-form description.
//  Address           – embedded street/city/state/zip.
//  PhoneNumber       – contact phone.
//  Email             – contact email.
//  Website           – optional website URL.
//  CuisineTypes      – cuisine labels (stored comma separated).
//  PriceRange        – 1..4 indicating $ to $$$$.
//  OpeningHours      – weekly opening hours rows.
//  Tables            – bookable tables in stored (insertion) order.
//  ManagerID         – user ID of the owning manager.
//  Approved          – set by an admin; gates customer visibility.
//  Active            – false after soft delete.
//  AverageRating     – derived, weighted mean of review ratings.
//  TotalReviews      – derived, number of reviews.
//  TotalBookingsToday – derived, reset by the daily sweep.
type Restaurant struct {
	ID                 uint64         // restaurants.id
	Name               string         // restaurants.name
	Description        string         // restaurants.description
	Address            Address        // restaurants.street/city/state/zip
	PhoneNumber        string         // restaurants.phone_number
	Email              string         // restaurants.email
	Website            string         // restaurants.website
	CuisineTypes       []string       // restaurants.cuisine_types (CSV)
	PriceRange         int            // restaurants.price_range
	OpeningHours       []OpeningHours // opening_hours rows
	Tables             []Table        // restaurant_tables rows
	ManagerID          uint64         // restaurants.manager_id
	Approved           bool           // restaurants.approved
	Active             bool           // restaurants.active
	AverageRating      float64        // restaurants.average_rating
	TotalReviews       int            // restaurants.total_reviews
	TotalBookingsToday int            // restaurants.total_bookings_today
	CreatedAt          time.Time      // restaurants.created_at
	UpdatedAt          time.Time      // restaurants.updated_at
}

// Visible reports whether customers may see and book the restaurant.
func (r *Restaurant) Visible() bool { return r.Approved && r.Active }

// Address holds the location fields used by location search.
type Address struct {
	Street  string // restaurants.street
	City    string // restaurants.city
	State   string // restaurants.state
	ZipCode string // restaurants.zip_code
}

// Table is a single bookable table inside a restaurant. Tables are
// iterated in stored order by the availability engine (first fit).
//
// Fields:
//  ID           – primary key identifier, unique across restaurants.
//  RestaurantID – owning restaurant.
//  Name         – label shown to the manager ("Window 2" etc.).
//  Capacity     – maximum party size the table seats.
//  IsAvailable  – managers can pull a table out of rotation.
type Table struct {
	ID           uint64 // restaurant_tables.id
	RestaurantID uint64 // restaurant_tables.restaurant_id
	Name         string // restaurant_tables.name
	Capacity     int    // restaurant_tables.capacity
	IsAvailable  bool   // restaurant_tables.is_available
}

// OpeningHours describes one weekday's open interval. Times are
// stored as "HH:MM" strings in 24h local restaurant time.
type OpeningHours struct {
	DayOfWeek time.Weekday // opening_hours.day_of_week (0=Sunday)
	OpenTime  string       // opening_hours.open_time
	CloseTime string       // opening_hours.close_time
}
