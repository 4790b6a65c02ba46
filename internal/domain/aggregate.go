package domain

import (
	"fmt"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// AggregateScope names the entity an aggregate is derived for.
type AggregateScope string

const (
	ScopeGig    AggregateScope = "gig"
	ScopeSeller AggregateScope = "seller"
)

// Aggregate is the rating and review count derived from a review set.
// Version increases with every recomputation.
type Aggregate struct {
	Scope        AggregateScope `json:"scope"`
	ID           string         `json:"id"`
	Rating       float64        `json:"rating"`
	TotalReviews int            `json:"total_reviews"`
	Version      int64          `json:"version"`
}

// RecomputeAggregate derives the aggregate from the sum and count of the
// scope's review ratings. Totals that no valid review set can produce are an
// integrity violation and must abort the write.
func RecomputeAggregate(scope AggregateScope, id string, ratingSum, count int64) (Aggregate, error) {
	switch {
	case count < 0:
		return Aggregate{}, apperrors.IntegrityViolation(fmt.Sprintf("%s %s: negative review count %d", scope, id, count))
	case ratingSum < count*MinRating || ratingSum > count*MaxRating:
		return Aggregate{}, apperrors.IntegrityViolation(fmt.Sprintf("%s %s: rating sum %d out of range for %d reviews", scope, id, ratingSum, count))
	}

	agg := Aggregate{Scope: scope, ID: id, TotalReviews: int(count)}
	if count > 0 {
		agg.Rating = float64(ratingSum) / float64(count)
	}
	return agg, nil
}
