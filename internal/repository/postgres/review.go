package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/pkg/database"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

const reviewOrderUnique = "reviews_order_id_key"

const reviewColumns = `id, order_id, gig_id, reviewer_id, seller_id, rating, comment, is_public, created_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts the review and recomputes the gig and seller aggregates
// under their row locks, all in one transaction. The order row is share-locked
// first so a dispute cannot move it out of COMPLETED before the insert lands.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (aggs repository.Aggregates, err error) {
	insertQuery := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "reviews.create", insertQuery)
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockCompletedOrder(ctx, tx, rv.OrderID); err != nil {
			return err
		}
		if err := lockAggregates(ctx, tx, rv.GigID, rv.SellerID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, insertQuery,
			rv.ID,
			rv.OrderID,
			rv.GigID,
			rv.ReviewerID,
			rv.SellerID,
			rv.Rating,
			rv.Comment,
			rv.IsPublic,
			rv.CreatedAt,
		)
		if err != nil {
			if constraint, ok := database.UniqueViolation(err); ok && constraint == reviewOrderUnique {
				return domain.ErrAlreadyReviewed(rv.OrderID)
			}
			return fmt.Errorf("insert review: %w", err)
		}

		aggs, err = recomputeBoth(ctx, tx, rv.GigID, rv.SellerID)
		return err
	})
	if err != nil {
		return repository.Aggregates{}, err
	}
	return aggs, nil
}

func lockCompletedOrder(ctx context.Context, tx pgx.Tx, orderID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR SHARE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound(orderID)
		}
		return fmt.Errorf("lock order %s: %w", orderID, err)
	}
	if domain.OrderStatus(status) != domain.OrderStatusCompleted {
		return domain.ErrOrderNotCompleted(orderID)
	}
	return nil
}

// Delete removes the review and recomputes the affected aggregates in one
// transaction.
func (r *ReviewRepository) Delete(ctx context.Context, rv *domain.Review) (aggs repository.Aggregates, err error) {
	deleteQuery := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews.delete", deleteQuery)
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAggregates(ctx, tx, rv.GigID, rv.SellerID); err != nil {
			return err
		}

		ct, err := tx.Exec(ctx, deleteQuery, rv.ID)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrReviewNotFound(rv.ID)
		}

		aggs, err = recomputeBoth(ctx, tx, rv.GigID, rv.SellerID)
		return err
	})
	if err != nil {
		return repository.Aggregates{}, err
	}
	return aggs, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.OrderID, &rv.GigID, &rv.ReviewerID, &rv.SellerID,
		&rv.Rating, &rv.Comment, &rv.IsPublic, &rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotFound(id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}

// ExistsForOrder reports whether the order already has a review.
func (r *ReviewRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// ListPublicByGig returns a page of the gig's public reviews, newest first.
func (r *ReviewRepository) ListPublicByGig(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error) {
	query := `
		SELECT ` + reviewColumns + `, count(*) OVER() AS total_count
		FROM reviews
		WHERE gig_id = $1 AND is_public
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, gigID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.OrderID, &rv.GigID, &rv.ReviewerID, &rv.SellerID,
			&rv.Rating, &rv.Comment, &rv.IsPublic, &rv.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}
