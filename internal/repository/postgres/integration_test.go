//go:build integration

package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/migrations"
	"github.com/utafrali/gigmarket/pkg/database"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16",
		tcpostgres.WithDatabase("gigmarket"),
		tcpostgres.WithUsername("gigmarket"),
		tcpostgres.WithPassword("gigmarket"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.RunMigrations(ctx, pool, migrations.FS, logger))
	return pool
}

// seedCompletedOrders creates a seller, a gig and n completed orders from
// distinct buyers.
func seedCompletedOrders(t *testing.T, pool *pgxpool.Pool, n int) (gig *domain.Gig, orders []*domain.Order) {
	t.Helper()
	ctx := context.Background()

	sellerID := "seller-" + uuid.NewString()
	gig = &domain.Gig{ID: uuid.NewString(), SellerID: sellerID, Title: "Logo design"}

	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, sellerID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO gigs (id, seller_id, title, packages) VALUES ($1, $2, $3, $4)`,
		gig.ID, sellerID, gig.Title, []byte(`[{"type":"BASIC","price":"50","delivery_time":"3 days","revisions":1}]`))
	require.NoError(t, err)

	orderRepo := NewOrderRepository(pool)
	now := time.Now().UTC()
	quote, err := domain.NewQuote([]domain.Package{{Type: domain.PackageBasic, Price: domain.FromCents(5000), DeliveryTime: "3 days"}}, domain.PackageBasic, now)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		o := domain.NewOrder(uuid.NewString(), gig, fmt.Sprintf("buyer-%d", i), quote, nil, "", now)
		o.Status = domain.OrderStatusCompleted
		o.CompletedAt = &now
		require.NoError(t, orderRepo.Create(ctx, o, domain.NewOrderPayment(uuid.NewString(), o)))
		orders = append(orders, o)
	}
	return gig, orders
}

func TestIntegration_ConcurrentReviewsConverge(t *testing.T) {
	pool := startPostgres(t)
	const n = 24
	gig, orders := seedCompletedOrders(t, pool, n)

	reviews := NewReviewRepository(pool)
	aggregates := NewAggregateRepository(pool)

	var g errgroup.Group
	wantSum := 0
	for i, o := range orders {
		rating := i%domain.MaxRating + 1
		wantSum += rating
		rv := domain.NewReview(uuid.NewString(), o, rating, "Solid work, delivered on time", true, time.Now().UTC())
		g.Go(func() error {
			_, err := reviews.Create(context.Background(), rv)
			return err
		})
	}
	require.NoError(t, g.Wait())

	gigAgg, err := aggregates.Get(context.Background(), domain.ScopeGig, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, n, gigAgg.TotalReviews)
	assert.InDelta(t, float64(wantSum)/n, gigAgg.Rating, 1e-9)
	assert.Equal(t, int64(n), gigAgg.Version)

	sellerAgg, err := aggregates.Get(context.Background(), domain.ScopeSeller, gig.SellerID)
	require.NoError(t, err)
	assert.Equal(t, n, sellerAgg.TotalReviews)
	assert.InDelta(t, float64(wantSum)/n, sellerAgg.Rating, 1e-9)
}

func TestIntegration_DuplicateReviewLeavesAggregatesUnchanged(t *testing.T) {
	pool := startPostgres(t)
	gig, orders := seedCompletedOrders(t, pool, 1)

	reviews := NewReviewRepository(pool)
	first := domain.NewReview(uuid.NewString(), orders[0], 5, "Fantastic, would hire again", true, time.Now().UTC())
	aggs, err := reviews.Create(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, 5.0, aggs.Gig.Rating)
	assert.Equal(t, 1, aggs.Gig.TotalReviews)

	second := domain.NewReview(uuid.NewString(), orders[0], 1, "Changed my mind entirely", true, time.Now().UTC())
	_, err = reviews.Create(context.Background(), second)
	assert.Equal(t, domain.CodeAlreadyReviewed, codeOf(err))

	agg, err := NewAggregateRepository(pool).Get(context.Background(), domain.ScopeGig, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, agg.Rating)
	assert.Equal(t, 1, agg.TotalReviews)

	_, err = reviews.Delete(context.Background(), first)
	require.NoError(t, err)
	agg, err = NewAggregateRepository(pool).Get(context.Background(), domain.ScopeGig, gig.ID)
	require.NoError(t, err)
	assert.Zero(t, agg.Rating)
	assert.Zero(t, agg.TotalReviews)
}
