package notify

import (
	"context"
	"fmt"

	pkgkafka "github.com/utafrali/gigmarket/pkg/kafka"
)

// TopicNotificationRequested carries notifications for the delivery service.
var TopicNotificationRequested = pkgkafka.Topic("notification", "requested")

const (
	aggregateTypeUser = "user"
	sourceName        = "gigmarket-order-service"
)

// Publisher sends an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaDispatcher publishes notifications as events keyed by recipient, so a
// user's notifications stay ordered within a partition.
type KafkaDispatcher struct {
	publisher Publisher
}

// NewKafkaDispatcher creates a dispatcher publishing through p.
func NewKafkaDispatcher(p Publisher) *KafkaDispatcher {
	return &KafkaDispatcher{publisher: p}
}

// Name implements Dispatcher.
func (d *KafkaDispatcher) Name() string { return "kafka" }

// Notify implements Dispatcher.
func (d *KafkaDispatcher) Notify(ctx context.Context, n Notification) error {
	event, err := pkgkafka.NewEvent(TopicNotificationRequested, n.UserID, aggregateTypeUser, sourceName, n)
	if err != nil {
		return fmt.Errorf("create notification event: %w", err)
	}
	if err := d.publisher.Publish(ctx, TopicNotificationRequested, event); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
