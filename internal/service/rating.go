package service

import "context"

// RatingCounter is the slice of the review store the aggregator scans.
type RatingCounter interface {
	CountByRestaurantAndRating(ctx context.Context, restaurantID uint64, rating int) (int, error)
}

// RatingWriter writes both rating aggregates in one shot.
type RatingWriter interface {
	SetRating(ctx context.Context, id uint64, avg float64, total int) error
}

// RatingAggregator recomputes a restaurant's average rating and
// review count from scratch on every review mutation. The recompute
// scans the five rating buckets and takes the weighted mean, which
// keeps the result exact regardless of interleaved edits; at current
// scale the full scan is cheap and simpler than incremental caching.
type RatingAggregator struct {
	reviews     RatingCounter
	restaurants RatingWriter
}

// NewRatingAggregator wires the aggregator.
func NewRatingAggregator(reviews RatingCounter, restaurants RatingWriter) *RatingAggregator {
	return &RatingAggregator{reviews: reviews, restaurants: restaurants}
}

// Recompute rebuilds averageRating and totalReviews for the
// restaurant: sum(i * count_i) / sum(count_i) over buckets 1..5, zero
// when there are no reviews. Both fields are written in a single
// statement so they never diverge.
func (a *RatingAggregator) Recompute(ctx context.Context, restaurantID uint64) error {
	var (
		weighted float64
		total    int
	)
	for rating := 1; rating <= 5; rating++ {
		n, err := a.reviews.CountByRestaurantAndRating(ctx, restaurantID, rating)
		if err != nil {
			return err
		}
		weighted += float64(rating) * float64(n)
		total += n
	}
	avg := 0.0
	if total > 0 {
		avg = weighted / float64(total)
	}
	return a.restaurants.SetRating(ctx, restaurantID, avg, total)
}
