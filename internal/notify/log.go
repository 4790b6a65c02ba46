package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher writes notifications to the log instead of delivering them.
// Intended for local development.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Name implements Dispatcher.
func (d *LogDispatcher) Name() string { return "log" }

// Notify implements Dispatcher.
func (d *LogDispatcher) Notify(ctx context.Context, n Notification) error {
	d.logger.InfoContext(ctx, "notification",
		slog.String("user_id", n.UserID),
		slog.String("type", n.Type),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
		slog.String("link", n.Link),
	)
	return nil
}
