package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/internal/repository"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

const maxIdempotencyKeyLength = 255

// OrderEvents publishes order domain events.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, o *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.OrderStatus, actorID string, role domain.Role) error
}

// OrderService implements order creation and the status lifecycle.
type OrderService struct {
	orders   repository.OrderRepository
	gigs     repository.GigRepository
	events   OrderEvents
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOrderService creates a new order service. timeout bounds the
// persistence work of each call.
func NewOrderService(
	orders repository.OrderRepository,
	gigs repository.GigRepository,
	events OrderEvents,
	notifier Notifier,
	timeout time.Duration,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		gigs:     gigs,
		events:   events,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	GigID          string
	BuyerID        string
	PackageType    domain.PackageType
	Requirements   map[string]string
	IdempotencyKey string
}

// CreateOrder prices the requested package and records a paid, in-progress
// order together with its payment ledger entry. A repeated call with the
// same idempotency key returns the order created by the first call.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if input.BuyerID == "" {
		return nil, apperrors.InvalidInput("buyer_id is required")
	}
	if input.GigID == "" {
		return nil, apperrors.InvalidInput("gig_id is required")
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("idempotency key must be at most %d characters", maxIdempotencyKeyLength))
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if key != "" {
		existing, err := s.findByIdempotencyKey(ctx, input.BuyerID, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.InfoContext(ctx, "order creation replayed",
				slog.String("order_id", existing.ID),
				slog.String("buyer_id", existing.BuyerID),
			)
			return existing, nil
		}
	}

	gig, err := s.gigs.GetByID(ctx, input.GigID)
	if err != nil {
		return nil, fmt.Errorf("get gig: %w", err)
	}
	if gig.SellerID == input.BuyerID {
		return nil, apperrors.Forbidden("you cannot order your own gig")
	}

	createdAt := now()
	quote, err := domain.NewQuote(gig.Packages, input.PackageType, createdAt)
	if err != nil {
		return nil, err
	}

	order := domain.NewOrder(uuid.New().String(), gig, input.BuyerID, quote, input.Requirements, key, createdAt)
	payment := domain.NewOrderPayment(uuid.New().String(), order)

	if err := s.orders.Create(ctx, order, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			// A concurrent retry won the insert; answer with its order.
			existing, gerr := s.orders.GetByIdempotencyKey(ctx, input.BuyerID, key)
			if gerr != nil {
				return nil, fmt.Errorf("get order by idempotency key: %w", gerr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	ordersCreatedTotal.WithLabelValues(string(order.PackageType)).Inc()

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.notifier.Send(ctx, notify.Notification{
		UserID:  order.SellerID,
		Type:    notify.TypeNewOrder,
		Title:   "New order received",
		Message: fmt.Sprintf("You received a %s order for %q.", strings.ToLower(string(order.PackageType)), gig.Title),
		Link:    orderLink(order.ID),
	})

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("gig_id", order.GigID),
		slog.String("buyer_id", order.BuyerID),
		slog.String("total_amount", order.TotalAmount.StringFixed(2)),
	)

	return order, nil
}

func (s *OrderService) findByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	existing, err := s.orders.GetByIdempotencyKey(ctx, buyerID, key)
	switch {
	case err == nil:
		return existing, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("get order by idempotency key: %w", err)
	}
}

// GetOrder returns an order to one of its participants or an admin.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor domain.Actor) (*domain.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if _, err := order.RoleOf(actor); err != nil {
		return nil, err
	}
	return order, nil
}

// Order list perspectives.
const (
	ListAsBuyer  = "buyer"
	ListAsSeller = "seller"
)

// ListOrdersInput holds the parameters for listing the actor's orders.
type ListOrdersInput struct {
	As     string
	Status string
	Page   pagination.Params
}

// ListOrders returns a page of the orders the actor placed (as buyer) or
// received (as seller), with the total number of matches.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, input ListOrdersInput) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{Page: normalizePage(input.Page)}

	switch input.As {
	case "", ListAsBuyer:
		filter.BuyerID = &actor.UserID
	case ListAsSeller:
		filter.SellerID = &actor.UserID
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("as must be one of: %s, %s", ListAsBuyer, ListAsSeller))
	}

	if input.Status != "" {
		if !domain.IsValidStatus(input.Status) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", input.Status))
		}
		status := domain.OrderStatus(input.Status)
		filter.Status = &status
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionOrderStatus moves the order to target on behalf of actor. The
// actor's role on the order and the order's current status must both be
// admitted by the transition table. The write only succeeds if no other
// request changed the status in the meantime.
func (s *OrderService) TransitionOrderStatus(ctx context.Context, orderID string, actor domain.Actor, target string) (*domain.Order, error) {
	action, err := domain.ActionForTarget(target)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	role, err := order.RoleOf(actor)
	if err != nil {
		orderTransitionsTotal.WithLabelValues(string(action), "forbidden").Inc()
		return nil, err
	}

	previous := order.Status
	if err := order.Apply(action, role, now()); err != nil {
		orderTransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order, previous); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	orderTransitionsTotal.WithLabelValues(string(action), "applied").Inc()

	if err := s.events.PublishOrderStatusChanged(ctx, order.ID, previous, order.Status, actor.UserID, role); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	for _, userID := range []string{order.BuyerID, order.SellerID} {
		if userID == actor.UserID {
			continue
		}
		s.notifier.Send(ctx, notify.Notification{
			UserID:  userID,
			Type:    notify.TypeOrderStatusChanged,
			Title:   "Order status updated",
			Message: fmt.Sprintf("Order status changed from %s to %s.", previous, order.Status),
			Link:    orderLink(order.ID),
		})
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("old_status", string(previous)),
		slog.String("new_status", string(order.Status)),
		slog.String("role", role.String()),
	)

	return order, nil
}
