package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/pkg/database"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// aggregateTarget maps a scope to the table holding its aggregate and the
// reviews column that selects its review set.
type aggregateTarget struct {
	table        string
	reviewColumn string
}

var aggregateTargets = map[domain.AggregateScope]aggregateTarget{
	domain.ScopeGig:    {table: "gigs", reviewColumn: "gig_id"},
	domain.ScopeSeller: {table: "users", reviewColumn: "seller_id"},
}

func notFound(scope domain.AggregateScope, id string) error {
	if scope == domain.ScopeGig {
		return domain.ErrGigNotFound(id)
	}
	return apperrors.NotFound("seller", id)
}

// lockAggregates takes row locks on the gig and then the seller. Every
// writer locks in this order, so recomputations of the same gig or seller
// never interleave and never deadlock.
func lockAggregates(ctx context.Context, tx pgx.Tx, gigID, sellerID string) error {
	for _, key := range []struct {
		scope domain.AggregateScope
		id    string
	}{
		{domain.ScopeGig, gigID},
		{domain.ScopeSeller, sellerID},
	} {
		target := aggregateTargets[key.scope]
		query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, target.table)

		var locked string
		if err := tx.QueryRow(ctx, query, key.id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound(key.scope, key.id)
			}
			return fmt.Errorf("lock %s %s: %w", key.scope, key.id, err)
		}
	}
	return nil
}

// recompute rescans the scope's full review set and writes the derived
// rating and count. It must run under lockAggregates.
func recompute(ctx context.Context, tx pgx.Tx, scope domain.AggregateScope, id string) (domain.Aggregate, error) {
	target := aggregateTargets[scope]

	var sum, count int64
	scanQuery := fmt.Sprintf(`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE %s = $1`, target.reviewColumn)
	if err := tx.QueryRow(ctx, scanQuery, id).Scan(&sum, &count); err != nil {
		return domain.Aggregate{}, fmt.Errorf("scan %s reviews: %w", scope, err)
	}

	agg, err := domain.RecomputeAggregate(scope, id, sum, count)
	if err != nil {
		return domain.Aggregate{}, err
	}

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET rating = $1, total_reviews = $2, aggregate_version = aggregate_version + 1
		WHERE id = $3
		RETURNING aggregate_version`, target.table)

	if err := tx.QueryRow(ctx, updateQuery, agg.Rating, agg.TotalReviews, id).Scan(&agg.Version); err != nil {
		return domain.Aggregate{}, fmt.Errorf("write %s aggregate: %w", scope, err)
	}
	return agg, nil
}

// recomputeBoth refreshes the gig then the seller aggregate.
func recomputeBoth(ctx context.Context, tx pgx.Tx, gigID, sellerID string) (repository.Aggregates, error) {
	gig, err := recompute(ctx, tx, domain.ScopeGig, gigID)
	if err != nil {
		return repository.Aggregates{}, err
	}
	seller, err := recompute(ctx, tx, domain.ScopeSeller, sellerID)
	if err != nil {
		return repository.Aggregates{}, err
	}
	return repository.Aggregates{Gig: gig, Seller: seller}, nil
}

// AggregateRepository implements repository.AggregateRepository.
type AggregateRepository struct {
	pool database.DBTX
}

// NewAggregateRepository creates a new PostgreSQL-backed aggregate reader.
func NewAggregateRepository(pool database.DBTX) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

// Get reads the stored aggregate of a gig or seller.
func (r *AggregateRepository) Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error) {
	target, ok := aggregateTargets[scope]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown aggregate scope %q", scope))
	}

	query := fmt.Sprintf(`SELECT rating, total_reviews, aggregate_version FROM %s WHERE id = $1`, target.table)

	agg := domain.Aggregate{Scope: scope, ID: id}
	if err := r.pool.QueryRow(ctx, query, id).Scan(&agg.Rating, &agg.TotalReviews, &agg.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(scope, id)
		}
		return nil, fmt.Errorf("read %s aggregate: %w", scope, err)
	}
	return &agg, nil
}
