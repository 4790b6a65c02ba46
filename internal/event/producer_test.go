package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/gigmarket/internal/domain"
	pkgkafka "github.com/utafrali/gigmarket/pkg/kafka"
	"github.com/utafrali/gigmarket/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: e})
	return nil
}

func newTestProducer() (*Producer, *fakePublisher) {
	pub := &fakePublisher{}
	return NewProducer(pub, slog.New(slog.NewTextHandler(io.Discard, nil))), pub
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "gigmarket.order.created", TopicOrderCreated)
	assert.Equal(t, "gigmarket.order.status_changed", TopicOrderStatusChanged)
	assert.Equal(t, "gigmarket.dispute.opened", TopicDisputeOpened)
	assert.Equal(t, "gigmarket.review.submitted", TopicReviewSubmitted)
	assert.Equal(t, "gigmarket.review.deleted", TopicReviewDeleted)
}

func TestPublishOrderCreated(t *testing.T) {
	p, pub := newTestProducer()
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	o := &domain.Order{
		ID: "order-1", GigID: "gig-1", BuyerID: "buyer-1", SellerID: "seller-1",
		PackageType:  domain.PackageBasic,
		Price:        decimal.RequireFromString("50"),
		ServiceFee:   decimal.RequireFromString("5"),
		TotalAmount:  decimal.RequireFromString("55"),
		Status:       domain.OrderStatusInProgress,
		DeliveryDate: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishOrderCreated(ctx, o))

	require.Len(t, pub.sent, 1)
	sent := pub.sent[0]
	assert.Equal(t, TopicOrderCreated, sent.topic)
	assert.Equal(t, "order-1", sent.event.AggregateID)
	assert.Equal(t, "corr-1", sent.event.CorrelationID)
	assert.Equal(t, SourceOrderService, sent.event.Source)

	var data OrderCreatedData
	require.NoError(t, sent.event.UnmarshalData(&data))
	assert.Equal(t, "55.00", data.TotalAmount)
	assert.Equal(t, "5.00", data.ServiceFee)
	assert.Equal(t, domain.OrderStatusInProgress, data.Status)
}

func TestPublishOrderStatusChanged(t *testing.T) {
	p, pub := newTestProducer()

	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), "order-1",
		domain.OrderStatusDelivered, domain.OrderStatusCompleted, "buyer-1", domain.RoleBuyer))

	var data OrderStatusChangedData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, domain.OrderStatusDelivered, data.OldStatus)
	assert.Equal(t, domain.OrderStatusCompleted, data.NewStatus)
	assert.Equal(t, "BUYER", data.ActorRole)
	assert.Empty(t, pub.sent[0].event.CorrelationID)
}

func TestPublishDisputeOpened(t *testing.T) {
	p, pub := newTestProducer()

	d := &domain.Dispute{ID: "d-1", OrderID: "order-1", InitiatorID: "seller-1", Reason: "Scope creep"}
	require.NoError(t, p.PublishDisputeOpened(context.Background(), d, domain.OrderStatusCompleted))

	assert.Equal(t, TopicDisputeOpened, pub.sent[0].topic)
	assert.Equal(t, "order-1", pub.sent[0].event.AggregateID)

	var data DisputeOpenedData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, domain.OrderStatusCompleted, data.PreviousStatus)
}

func TestPublishReviewEvents(t *testing.T) {
	p, pub := newTestProducer()

	rv := &domain.Review{ID: "r-1", OrderID: "order-1", GigID: "gig-1", SellerID: "seller-1", Rating: 4}
	gig := domain.Aggregate{Scope: domain.ScopeGig, ID: "gig-1", Rating: 4, TotalReviews: 1, Version: 7}
	seller := domain.Aggregate{Scope: domain.ScopeSeller, ID: "seller-1", Rating: 4.5, TotalReviews: 6, Version: 12}

	require.NoError(t, p.PublishReviewSubmitted(context.Background(), rv, gig, seller))
	require.NoError(t, p.PublishReviewDeleted(context.Background(), rv, domain.Aggregate{}, domain.Aggregate{}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, TopicReviewSubmitted, pub.sent[0].topic)
	assert.Equal(t, TopicReviewDeleted, pub.sent[1].topic)

	var data ReviewData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, 4.5, data.SellerRating)
	assert.Equal(t, 6, data.SellerReviews)
	assert.Equal(t, int64(7), data.GigVersion)
}

func TestPublish_Error(t *testing.T) {
	p, pub := newTestProducer()
	pub.err = errors.New("broker down")

	err := p.PublishOrderStatusChanged(context.Background(), "order-1",
		domain.OrderStatusInProgress, domain.OrderStatusDelivered, "seller-1", domain.RoleSeller)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish gigmarket.order.status_changed event")
}
