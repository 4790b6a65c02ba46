package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/internal/repository"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// DisputeEvents publishes dispute domain events.
type DisputeEvents interface {
	PublishDisputeOpened(ctx context.Context, d *domain.Dispute, previous domain.OrderStatus) error
}

// DisputeService opens disputes on orders.
type DisputeService struct {
	orders   repository.OrderRepository
	disputes repository.DisputeRepository
	events   DisputeEvents
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDisputeService creates a new dispute service.
func NewDisputeService(
	orders repository.OrderRepository,
	disputes repository.DisputeRepository,
	events DisputeEvents,
	notifier Notifier,
	timeout time.Duration,
	logger *slog.Logger,
) *DisputeService {
	return &DisputeService{
		orders:   orders,
		disputes: disputes,
		events:   events,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// CreateDisputeInput holds the parameters for opening a dispute.
type CreateDisputeInput struct {
	OrderID     string
	ActorID     string
	Reason      string
	Description string
}

// CreateDispute records a dispute raised by the buyer or seller and forces
// the order into DISPUTED, whatever its current status.
func (s *DisputeService) CreateDispute(ctx context.Context, input CreateDisputeInput) (*domain.Dispute, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order for dispute: %w", err)
	}
	if !order.IsParticipant(input.ActorID) {
		return nil, apperrors.Forbidden("only the buyer or seller can dispute an order")
	}

	dispute, err := domain.NewDispute(uuid.New().String(), order.ID, input.ActorID, input.Reason, input.Description, now())
	if err != nil {
		return nil, err
	}

	if err := s.disputes.Open(ctx, dispute); err != nil {
		return nil, fmt.Errorf("open dispute: %w", err)
	}
	disputesOpenedTotal.Inc()

	previous := order.Status
	if previous.IsTerminal() {
		s.logger.WarnContext(ctx, "dispute opened on a closed order",
			slog.String("order_id", order.ID),
			slog.String("status", string(previous)),
		)
	}

	if err := s.events.PublishDisputeOpened(ctx, dispute, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish dispute.opened event",
			slog.String("dispute_id", dispute.ID),
			slog.String("error", err.Error()),
		)
	}

	s.notifier.Send(ctx, notify.Notification{
		UserID:  order.Counterparty(input.ActorID),
		Type:    notify.TypeDisputeOpened,
		Title:   "Dispute opened",
		Message: fmt.Sprintf("A dispute was opened on your order: %s", dispute.Reason),
		Link:    orderLink(order.ID),
	})

	s.logger.InfoContext(ctx, "dispute opened",
		slog.String("dispute_id", dispute.ID),
		slog.String("order_id", order.ID),
		slog.String("initiator_id", dispute.InitiatorID),
		slog.String("previous_status", string(previous)),
	)

	return dispute, nil
}

// ListDisputes returns the disputes of an order to its participants or an
// admin, oldest first.
func (s *DisputeService) ListDisputes(ctx context.Context, orderID string, actor domain.Actor) ([]domain.Dispute, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for disputes: %w", err)
	}
	if _, err := order.RoleOf(actor); err != nil {
		return nil, err
	}

	disputes, err := s.disputes.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	return disputes, nil
}
