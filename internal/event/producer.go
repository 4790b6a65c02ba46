package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/gigmarket/internal/domain"
	pkgkafka "github.com/utafrali/gigmarket/pkg/kafka"
	"github.com/utafrali/gigmarket/pkg/logger"
)

// Kafka topics for gigmarket domain events.
var (
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicDisputeOpened      = pkgkafka.Topic("dispute", "opened")
	TopicReviewSubmitted    = pkgkafka.Topic("review", "submitted")
	TopicReviewDeleted      = pkgkafka.Topic("review", "deleted")
)

// Aggregate types.
const (
	AggregateTypeOrder  = "order"
	AggregateTypeReview = "review"
)

// SourceOrderService identifies events originating from this service.
const SourceOrderService = "gigmarket-order-service"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID      string             `json:"order_id"`
	GigID        string             `json:"gig_id"`
	BuyerID      string             `json:"buyer_id"`
	SellerID     string             `json:"seller_id"`
	PackageType  domain.PackageType `json:"package_type"`
	Price        string             `json:"price"`
	ServiceFee   string             `json:"service_fee"`
	TotalAmount  string             `json:"total_amount"`
	Status       domain.OrderStatus `json:"status"`
	DeliveryDate time.Time          `json:"delivery_date"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string             `json:"order_id"`
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
	ActorID   string             `json:"actor_id"`
	ActorRole string             `json:"actor_role"`
}

// DisputeOpenedData is the payload for a dispute.opened event.
type DisputeOpenedData struct {
	DisputeID      string             `json:"dispute_id"`
	OrderID        string             `json:"order_id"`
	InitiatorID    string             `json:"initiator_id"`
	Reason         string             `json:"reason"`
	PreviousStatus domain.OrderStatus `json:"previous_status"`
}

// ReviewData is the payload for review.submitted and review.deleted events.
type ReviewData struct {
	ReviewID      string  `json:"review_id"`
	OrderID       string  `json:"order_id"`
	GigID         string  `json:"gig_id"`
	SellerID      string  `json:"seller_id"`
	Rating        int     `json:"rating"`
	GigRating     float64 `json:"gig_rating"`
	GigReviews    int     `json:"gig_total_reviews"`
	SellerRating  float64 `json:"seller_rating"`
	SellerReviews int     `json:"seller_total_reviews"`
	GigVersion    int64   `json:"gig_aggregate_version"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes gigmarket domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, o.ID, AggregateTypeOrder, OrderCreatedData{
		OrderID:      o.ID,
		GigID:        o.GigID,
		BuyerID:      o.BuyerID,
		SellerID:     o.SellerID,
		PackageType:  o.PackageType,
		Price:        o.Price.StringFixed(2),
		ServiceFee:   o.ServiceFee.StringFixed(2),
		TotalAmount:  o.TotalAmount.StringFixed(2),
		Status:       o.Status,
		DeliveryDate: o.DeliveryDate,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.OrderStatus, actorID string, role domain.Role) error {
	return p.publish(ctx, TopicOrderStatusChanged, orderID, AggregateTypeOrder, OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actorID,
		ActorRole: role.String(),
	})
}

// PublishDisputeOpened publishes a dispute.opened event keyed by order.
func (p *Producer) PublishDisputeOpened(ctx context.Context, d *domain.Dispute, previous domain.OrderStatus) error {
	return p.publish(ctx, TopicDisputeOpened, d.OrderID, AggregateTypeOrder, DisputeOpenedData{
		DisputeID:      d.ID,
		OrderID:        d.OrderID,
		InitiatorID:    d.InitiatorID,
		Reason:         d.Reason,
		PreviousStatus: previous,
	})
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, rv *domain.Review, gig, seller domain.Aggregate) error {
	return p.publish(ctx, TopicReviewSubmitted, rv.ID, AggregateTypeReview, reviewData(rv, gig, seller))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, rv *domain.Review, gig, seller domain.Aggregate) error {
	return p.publish(ctx, TopicReviewDeleted, rv.ID, AggregateTypeReview, reviewData(rv, gig, seller))
}

func reviewData(rv *domain.Review, gig, seller domain.Aggregate) ReviewData {
	return ReviewData{
		ReviewID:      rv.ID,
		OrderID:       rv.OrderID,
		GigID:         rv.GigID,
		SellerID:      rv.SellerID,
		Rating:        rv.Rating,
		GigRating:     gig.Rating,
		GigReviews:    gig.TotalReviews,
		SellerRating:  seller.Rating,
		SellerReviews: seller.TotalReviews,
		GigVersion:    gig.Version,
	}
}
