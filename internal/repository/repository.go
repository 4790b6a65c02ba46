package repository

import (
	"context"
	"errors"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

// ErrDuplicateIdempotencyKey is returned by OrderRepository.Create when the
// buyer already has an order under the same idempotency key.
var ErrDuplicateIdempotencyKey = errors.New("order with this idempotency key already exists")

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	BuyerID  *string
	SellerID *string
	Status   *domain.OrderStatus
	Page     pagination.Params
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts the order and its payment ledger entry atomically.
	Create(ctx context.Context, order *domain.Order, payment *domain.Payment) error

	// GetByID retrieves an order by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByIdempotencyKey finds the buyer's order created under key. It
	// returns an error wrapping apperrors.ErrNotFound when there is none.
	GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus persists the order's status and completion time if its
	// stored status still equals expected.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error
}

// GigRepository reads gig listings.
type GigRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Gig, error)
}

// DisputeRepository defines persistence for disputes.
type DisputeRepository interface {
	// Open inserts the dispute and moves its order to DISPUTED atomically.
	Open(ctx context.Context, dispute *domain.Dispute) error

	ListByOrder(ctx context.Context, orderID string) ([]domain.Dispute, error)
}

// Aggregates are the gig and seller aggregates written by one review change.
type Aggregates struct {
	Gig    domain.Aggregate
	Seller domain.Aggregate
}

// ReviewRepository persists reviews. Create and Delete recompute the gig and
// seller aggregates in the same transaction, holding row locks on both.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (Aggregates, error)
	Delete(ctx context.Context, review *domain.Review) (Aggregates, error)
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)
	ListPublicByGig(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error)
}

// AggregateRepository reads the stored aggregates.
type AggregateRepository interface {
	Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error)
}
