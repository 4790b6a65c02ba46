// Package notify delivers user notifications on a fire-and-forget basis.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification types.
const (
	TypeNewOrder           = "NEW_ORDER"
	TypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	TypeDisputeOpened      = "DISPUTE_OPENED"
	TypeNewReview          = "NEW_REVIEW"
)

// Notification is a message addressed to a single user.
type Notification struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// Dispatcher delivers a notification through a specific transport.
type Dispatcher interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notifications handed to a dispatcher, by transport, type and result.",
	},
	[]string{"transport", "type", "result"},
)

// Notifier sends notifications asynchronously. Send never blocks on delivery
// and never reports a failure to its caller; failures are logged once and
// dropped.
type Notifier struct {
	dispatcher Dispatcher
	timeout    time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewNotifier wraps dispatcher. Each delivery is bounded by timeout.
func NewNotifier(dispatcher Dispatcher, timeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		timeout:    timeout,
		logger:     logger,
	}
}

// Send dispatches n in the background. The delivery outlives ctx's
// cancellation but keeps its values for log correlation and tracing.
func (n *Notifier) Send(ctx context.Context, note Notification) {
	detached := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.fail(detached, note, fmt.Errorf("panic: %v", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.dispatcher.Notify(sendCtx, note); err != nil {
			n.fail(detached, note, err)
			return
		}
		notificationsTotal.WithLabelValues(n.dispatcher.Name(), note.Type, "sent").Inc()
	}()
}

func (n *Notifier) fail(ctx context.Context, note Notification, err error) {
	notificationsTotal.WithLabelValues(n.dispatcher.Name(), note.Type, "failed").Inc()
	n.logger.WarnContext(ctx, "notification dropped",
		slog.String("transport", n.dispatcher.Name()),
		slog.String("type", note.Type),
		slog.String("user_id", note.UserID),
		slog.String("error", err.Error()),
	)
}

// Wait blocks until all in-flight deliveries have finished. Used on shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
