package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/internal/service"
	"github.com/utafrali/gigmarket/pkg/middleware"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

// --- Mock Services ---

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) CreateOrder(ctx context.Context, input service.CreateOrderInput) (*domain.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id string, actor domain.Actor) (*domain.Order, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, actor domain.Actor, input service.ListOrdersInput) ([]domain.Order, int, error) {
	args := m.Called(ctx, actor, input)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderService) TransitionOrderStatus(ctx context.Context, orderID string, actor domain.Actor, target string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, actor, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockDisputeService struct {
	mock.Mock
}

func (m *mockDisputeService) CreateDispute(ctx context.Context, input service.CreateDisputeInput) (*domain.Dispute, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *mockDisputeService) ListDisputes(ctx context.Context, orderID string, actor domain.Actor) ([]domain.Dispute, error) {
	args := m.Called(ctx, orderID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dispute), args.Error(1)
}

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*domain.Review, repository.Aggregates, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, repository.Aggregates{}, args.Error(2)
	}
	return args.Get(0).(*domain.Review), args.Get(1).(repository.Aggregates), args.Error(2)
}

func (m *mockReviewService) DeleteReview(ctx context.Context, reviewID string, actor domain.Actor) (repository.Aggregates, error) {
	args := m.Called(ctx, reviewID, actor)
	return args.Get(0).(repository.Aggregates), args.Error(1)
}

func (m *mockReviewService) GetGigRating(ctx context.Context, gigID string) (*domain.Aggregate, error) {
	args := m.Called(ctx, gigID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aggregate), args.Error(1)
}

func (m *mockReviewService) GetSellerRating(ctx context.Context, sellerID string) (*domain.Aggregate, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aggregate), args.Error(1)
}

func (m *mockReviewService) ListGigReviews(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, gigID, page)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

// --- Test Helpers ---

const (
	orderID = "550e8400-e29b-41d4-a716-446655440001"
	gigID   = "550e8400-e29b-41d4-a716-446655440002"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type handlers struct {
	orders   *mockOrderService
	disputes *mockDisputeService
	reviews  *mockReviewService
	router   http.Handler
}

// setupRouter mounts the handlers like NewRouter does, with claims injected
// directly instead of a bearer token.
func setupRouter(claims *middleware.Claims) *handlers {
	h := &handlers{
		orders:   new(mockOrderService),
		disputes: new(mockDisputeService),
		reviews:  new(mockReviewService),
	}
	orderHandler := NewOrderHandler(h.orders, h.disputes, testLogger())
	reviewHandler := NewReviewHandler(h.reviews, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
		})
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/orders", orderHandler.CreateOrder)
		r.Get("/orders", orderHandler.ListOrders)
		r.Get("/orders/{id}", orderHandler.GetOrder)
		r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
		r.Post("/orders/{id}/disputes", orderHandler.CreateDispute)
		r.Get("/orders/{id}/disputes", orderHandler.ListDisputes)
		r.Post("/orders/{id}/review", reviewHandler.SubmitReview)
		r.Delete("/reviews/{id}", reviewHandler.DeleteReview)
		r.Get("/gigs/{id}/reviews", reviewHandler.ListGigReviews)
		r.Get("/gigs/{id}/rating", reviewHandler.GetGigRating)
		r.Get("/sellers/{id}/rating", reviewHandler.GetSellerRating)
	})
	h.router = r
	return h
}

func newRequest(method, path, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(h, newRequest(method, path, body))
}

// envelope decodes {"data":...,"error":...} keeping data raw.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:            orderID,
		GigID:         gigID,
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		PackageType:   domain.PackageBasic,
		Price:         decimal.RequireFromString("50"),
		ServiceFee:    decimal.RequireFromString("5"),
		TotalAmount:   decimal.RequireFromString("55"),
		Status:        status,
		PaymentStatus: domain.PaymentStatusCompleted,
		DeliveryDate:  now.AddDate(0, 0, 3),
		MaxRevisions:  1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var (
	buyerClaims  = &middleware.Claims{UserID: "buyer-1", Role: "user"}
	sellerClaims = &middleware.Claims{UserID: "seller-1", Role: "user"}
	adminClaims  = &middleware.Claims{UserID: "admin-1", Role: middleware.RoleAdmin}
)
