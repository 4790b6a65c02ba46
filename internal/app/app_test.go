package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/utafrali/gigmarket/internal/config"
	"github.com/utafrali/gigmarket/internal/notify"
	pkgkafka "github.com/utafrali/gigmarket/pkg/kafka"
)

type nopWriter struct{}

func (nopWriter) WriteMessages(context.Context, ...kafka.Message) error { return nil }
func (nopWriter) Close() error                                          { return nil }

func TestNewDispatcher_SelectsTransport(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := pkgkafka.NewProducerWithWriter(nopWriter{}, nil, logger)

	tests := []struct {
		transport string
		want      string
	}{
		{config.NotifyTransportKafka, "kafka"},
		{config.NotifyTransportHTTP, "http"},
		{config.NotifyTransportLog, "log"},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			cfg := &config.Config{
				NotifyTransport:  tt.transport,
				NotifyWebhookURL: "http://notifications.internal/hooks",
				NotifyTimeout:    time.Second,
			}
			var d notify.Dispatcher = newDispatcher(cfg, producer, logger)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestPingKafkaWithRetry_StopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := pkgkafka.NewProducerWithWriter(nopWriter{}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pingKafkaWithRetry(ctx, producer, logger)
	assert.ErrorIs(t, err, context.Canceled)
}
