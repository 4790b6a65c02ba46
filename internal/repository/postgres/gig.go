package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/pkg/database"
)

// GigRepository implements repository.GigRepository using PostgreSQL.
type GigRepository struct {
	pool database.DBTX
}

// NewGigRepository creates a new PostgreSQL-backed gig repository.
func NewGigRepository(pool database.DBTX) *GigRepository {
	return &GigRepository{pool: pool}
}

// GetByID retrieves a gig with its packages.
func (r *GigRepository) GetByID(ctx context.Context, id string) (_ *domain.Gig, err error) {
	query := `
		SELECT id, seller_id, title, packages, rating, total_reviews
		FROM gigs
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "gigs.get", query)
	defer func() { end(err) }()

	var (
		g            domain.Gig
		packagesJSON []byte
	)
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.SellerID,
		&g.Title,
		&packagesJSON,
		&g.Rating,
		&g.TotalReviews,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGigNotFound(id)
		}
		return nil, fmt.Errorf("scan gig: %w", err)
	}

	if len(packagesJSON) > 0 && string(packagesJSON) != "null" {
		if err := json.Unmarshal(packagesJSON, &g.Packages); err != nil {
			return nil, fmt.Errorf("unmarshal gig packages: %w", err)
		}
	}

	return &g, nil
}
