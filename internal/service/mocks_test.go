package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

// --- Mock Repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	args := m.Called(ctx, order, payment)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	args := m.Called(ctx, buyerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	args := m.Called(ctx, order, expected)
	return args.Error(0)
}

type mockGigRepository struct {
	mock.Mock
}

func (m *mockGigRepository) GetByID(ctx context.Context, id string) (*domain.Gig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Gig), args.Error(1)
}

type mockDisputeRepository struct {
	mock.Mock
}

func (m *mockDisputeRepository) Open(ctx context.Context, d *domain.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDisputeRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Dispute, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Dispute), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, rv *domain.Review) (repository.Aggregates, error) {
	args := m.Called(ctx, rv)
	return args.Get(0).(repository.Aggregates), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, rv *domain.Review) (repository.Aggregates, error) {
	args := m.Called(ctx, rv)
	return args.Get(0).(repository.Aggregates), args.Error(1)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) ListPublicByGig(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, gigID, page)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type mockAggregateRepository struct {
	mock.Mock
}

func (m *mockAggregateRepository) Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aggregate), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aggregate), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, agg domain.Aggregate) (bool, error) {
	args := m.Called(ctx, agg)
	return args.Bool(0), args.Error(1)
}

// --- Event and notification fakes ---

type recordedEvent struct {
	name    string
	subject string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEvents) record(name, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: name, subject: subject})
	return f.err
}

func (f *fakeEvents) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.name)
	}
	return out
}

func (f *fakeEvents) PublishOrderCreated(_ context.Context, o *domain.Order) error {
	return f.record("order.created", o.ID)
}

func (f *fakeEvents) PublishOrderStatusChanged(_ context.Context, orderID string, _, newStatus domain.OrderStatus, _ string, _ domain.Role) error {
	return f.record("order.status_changed:"+string(newStatus), orderID)
}

func (f *fakeEvents) PublishDisputeOpened(_ context.Context, d *domain.Dispute, _ domain.OrderStatus) error {
	return f.record("dispute.opened", d.OrderID)
}

func (f *fakeEvents) PublishReviewSubmitted(_ context.Context, rv *domain.Review, _, _ domain.Aggregate) error {
	return f.record("review.submitted", rv.ID)
}

func (f *fakeEvents) PublishReviewDeleted(_ context.Context, rv *domain.Review, _, _ domain.Aggregate) error {
	return f.record("review.deleted", rv.ID)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.UserID)
	}
	return out
}

// --- Test Helpers ---

const testTimeout = 5 * time.Second

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleGig() *domain.Gig {
	return &domain.Gig{
		ID:       "7d6f3f4e-3b7a-4c1e-9b1d-2f0c8e6a5b40",
		SellerID: "seller-1",
		Title:    "Logo design",
		Packages: []domain.Package{
			{Type: domain.PackageBasic, Price: dec("50"), DeliveryTime: "3 days", Revisions: 1},
			{Type: domain.PackageStandard, Price: dec("120.55"), DeliveryTime: "5-7 days", Revisions: 3},
		},
	}
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:            "0c9a1d7e-5f2b-4e8a-a3c6-1b2d3e4f5a6b",
		GigID:         "7d6f3f4e-3b7a-4c1e-9b1d-2f0c8e6a5b40",
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		PackageType:   domain.PackageBasic,
		Price:         dec("50"),
		ServiceFee:    dec("5"),
		TotalAmount:   dec("55"),
		Status:        status,
		PaymentStatus: domain.PaymentStatusCompleted,
		DeliveryDate:  now.AddDate(0, 0, 3),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var (
	buyer  = domain.Actor{UserID: "buyer-1"}
	seller = domain.Actor{UserID: "seller-1"}
	admin  = domain.Actor{UserID: "admin-1", IsAdmin: true}
	other  = domain.Actor{UserID: "stranger"}
)
