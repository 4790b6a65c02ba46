package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/service"
	"github.com/utafrali/gigmarket/pkg/httputil"
	"github.com/utafrali/gigmarket/pkg/pagination"
	"github.com/utafrali/gigmarket/pkg/validator"
)

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderService is the order behavior the handlers depend on.
type OrderService interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string, actor domain.Actor) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, input service.ListOrdersInput) ([]domain.Order, int, error)
	TransitionOrderStatus(ctx context.Context, orderID string, actor domain.Actor, target string) (*domain.Order, error)
}

// DisputeService is the dispute behavior the handlers depend on.
type DisputeService interface {
	CreateDispute(ctx context.Context, input service.CreateDisputeInput) (*domain.Dispute, error)
	ListDisputes(ctx context.Context, orderID string, actor domain.Actor) ([]domain.Dispute, error)
}

// OrderHandler handles HTTP requests for orders and their disputes.
type OrderHandler struct {
	orders   OrderService
	disputes DisputeService
	logger   *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders OrderService, disputes DisputeService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		disputes: disputes,
		logger:   logger,
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderInput{
		GigID:          req.GigID,
		BuyerID:        actorFrom(r.Context()).UserID,
		PackageType:    domain.PackageType(req.PackageType),
		Requirements:   req.Requirements,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toOrderResponse(order)})
}

// ListOrders handles GET /api/v1/orders?as=buyer|seller&status=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()

	orders, total, err := h.orders.ListOrders(r.Context(), actorFrom(r.Context()), service.ListOrdersInput{
		As:     q.Get("as"),
		Status: q.Get("status"),
		Page:   params,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(out, total, params))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id.String(), actorFrom(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toOrderResponse(order)})
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.TransitionOrderStatus(r.Context(), id.String(), actorFrom(r.Context()), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toOrderResponse(order)})
}

// CreateDispute handles POST /api/v1/orders/{id}/disputes
func (h *OrderHandler) CreateDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateDisputeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	dispute, err := h.disputes.CreateDispute(r.Context(), service.CreateDisputeInput{
		OrderID:     id.String(),
		ActorID:     actorFrom(r.Context()).UserID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: dispute})
}

// ListDisputes handles GET /api/v1/orders/{id}/disputes
func (h *OrderHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	disputes, err := h.disputes.ListDisputes(r.Context(), id.String(), actorFrom(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if disputes == nil {
		disputes = []domain.Dispute{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: disputes})
}
