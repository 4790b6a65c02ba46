package service

import (
	"context"
	"time"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

// Notifier hands a notification off for background delivery.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification)
}

// AggregateCache is the shared cache of gig and seller aggregates.
type AggregateCache interface {
	Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error)
	Set(ctx context.Context, agg domain.Aggregate) (bool, error)
}

// withTimeout bounds persistence work started by a single operation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func now() time.Time {
	return time.Now().UTC()
}

// normalizePage clamps list parameters to the ranges pagination accepts.
func normalizePage(p pagination.Params) pagination.Params {
	def := pagination.DefaultParams()
	if p.Page <= 0 {
		p.Page = def.Page
	}
	if p.PerPage <= 0 {
		p.PerPage = def.PerPage
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

func orderLink(orderID string) string {
	return "/orders/" + orderID
}
