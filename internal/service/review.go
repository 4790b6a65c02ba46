package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/gigmarket/internal/cache"
	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/internal/repository"
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
	"github.com/utafrali/gigmarket/pkg/pagination"
)

// ReviewEvents publishes review domain events.
type ReviewEvents interface {
	PublishReviewSubmitted(ctx context.Context, rv *domain.Review, gig, seller domain.Aggregate) error
	PublishReviewDeleted(ctx context.Context, rv *domain.Review, gig, seller domain.Aggregate) error
}

// ReviewService manages reviews and serves the rating aggregates derived
// from them.
type ReviewService struct {
	orders     repository.OrderRepository
	reviews    repository.ReviewRepository
	aggregates repository.AggregateRepository
	cache      AggregateCache
	events     ReviewEvents
	notifier   Notifier
	timeout    time.Duration
	logger     *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	orders repository.OrderRepository,
	reviews repository.ReviewRepository,
	aggregates repository.AggregateRepository,
	cache AggregateCache,
	events ReviewEvents,
	notifier Notifier,
	timeout time.Duration,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		orders:     orders,
		reviews:    reviews,
		aggregates: aggregates,
		cache:      cache,
		events:     events,
		notifier:   notifier,
		timeout:    timeout,
		logger:     logger,
	}
}

// SubmitReviewInput holds the parameters for reviewing an order.
type SubmitReviewInput struct {
	OrderID    string
	ReviewerID string
	Rating     int
	Comment    string
	IsPublic   bool
}

// SubmitReview records the buyer's review of a completed order and returns
// it with the recomputed gig and seller aggregates.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, repository.Aggregates, error) {
	if err := domain.ValidateReview(input.Rating, input.Comment); err != nil {
		return nil, repository.Aggregates{}, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, repository.Aggregates{}, fmt.Errorf("get order for review: %w", err)
	}
	if input.ReviewerID == "" || order.BuyerID != input.ReviewerID {
		return nil, repository.Aggregates{}, apperrors.Forbidden("only the buyer can review an order")
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, repository.Aggregates{}, domain.ErrOrderNotCompleted(order.ID)
	}

	exists, err := s.reviews.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, repository.Aggregates{}, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, repository.Aggregates{}, domain.ErrAlreadyReviewed(order.ID)
	}

	review := domain.NewReview(uuid.New().String(), order, input.Rating, input.Comment, input.IsPublic, now())
	aggs, err := s.reviews.Create(ctx, review)
	if err != nil {
		s.alertOnIntegrity(ctx, err, review)
		return nil, repository.Aggregates{}, fmt.Errorf("create review: %w", err)
	}
	reviewMutationsTotal.WithLabelValues("submit").Inc()

	s.refreshCache(ctx, aggs)

	if err := s.events.PublishReviewSubmitted(ctx, review, aggs.Gig, aggs.Seller); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.notifier.Send(ctx, notify.Notification{
		UserID:  review.SellerID,
		Type:    notify.TypeNewReview,
		Title:   "New review",
		Message: fmt.Sprintf("You received a %d-star review.", review.Rating),
		Link:    orderLink(order.ID),
	})

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("order_id", review.OrderID),
		slog.Int("rating", review.Rating),
		slog.Float64("gig_rating", aggs.Gig.Rating),
		slog.Int("gig_total_reviews", aggs.Gig.TotalReviews),
	)

	return review, aggs, nil
}

// DeleteReview removes a review and recomputes the aggregates it
// contributed to. Only admins may delete reviews.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, actor domain.Actor) (repository.Aggregates, error) {
	if !actor.IsAdmin {
		return repository.Aggregates{}, apperrors.Forbidden("only an admin can delete reviews")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return repository.Aggregates{}, fmt.Errorf("get review: %w", err)
	}

	aggs, err := s.reviews.Delete(ctx, review)
	if err != nil {
		s.alertOnIntegrity(ctx, err, review)
		return repository.Aggregates{}, fmt.Errorf("delete review: %w", err)
	}
	reviewMutationsTotal.WithLabelValues("delete").Inc()

	s.refreshCache(ctx, aggs)

	if err := s.events.PublishReviewDeleted(ctx, review, aggs.Gig, aggs.Seller); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("admin_id", actor.UserID),
		slog.Float64("gig_rating", aggs.Gig.Rating),
		slog.Int("gig_total_reviews", aggs.Gig.TotalReviews),
	)

	return aggs, nil
}

func (s *ReviewService) alertOnIntegrity(ctx context.Context, err error, review *domain.Review) {
	if !errors.Is(err, apperrors.ErrIntegrity) {
		return
	}
	integrityViolationsTotal.Inc()
	s.logger.ErrorContext(ctx, "ALERT: aggregate recomputation aborted",
		slog.String("review_id", review.ID),
		slog.String("gig_id", review.GigID),
		slog.String("seller_id", review.SellerID),
		slog.String("error", err.Error()),
	)
}

// refreshCache pushes freshly committed aggregates to the shared cache. A
// failure only leaves the cache stale until its TTL expires.
func (s *ReviewService) refreshCache(ctx context.Context, aggs repository.Aggregates) {
	for _, agg := range []domain.Aggregate{aggs.Gig, aggs.Seller} {
		if _, err := s.cache.Set(ctx, agg); err != nil {
			s.logger.WarnContext(ctx, "failed to cache aggregate",
				slog.String("scope", string(agg.Scope)),
				slog.String("id", agg.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetGigRating returns the gig's rating aggregate.
func (s *ReviewService) GetGigRating(ctx context.Context, gigID string) (*domain.Aggregate, error) {
	return s.getAggregate(ctx, domain.ScopeGig, gigID)
}

// GetSellerRating returns the seller's rating aggregate.
func (s *ReviewService) GetSellerRating(ctx context.Context, sellerID string) (*domain.Aggregate, error) {
	return s.getAggregate(ctx, domain.ScopeSeller, sellerID)
}

func (s *ReviewService) getAggregate(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	agg, err := s.cache.Get(ctx, scope, id)
	switch {
	case err == nil:
		aggregateCacheTotal.WithLabelValues("hit").Inc()
		return agg, nil
	case errors.Is(err, cache.ErrMiss):
		aggregateCacheTotal.WithLabelValues("miss").Inc()
	default:
		aggregateCacheTotal.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "aggregate cache unavailable",
			slog.String("scope", string(scope)),
			slog.String("error", err.Error()),
		)
	}

	agg, err = s.aggregates.Get(ctx, scope, id)
	if err != nil {
		return nil, fmt.Errorf("get %s aggregate: %w", scope, err)
	}

	if _, err := s.cache.Set(ctx, *agg); err != nil {
		s.logger.WarnContext(ctx, "failed to cache aggregate",
			slog.String("scope", string(scope)),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	return agg, nil
}

// ListGigReviews returns a page of the gig's public reviews, newest first.
func (s *ReviewService) ListGigReviews(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	reviews, total, err := s.reviews.ListPublicByGig(ctx, gigID, normalizePage(page))
	if err != nil {
		return nil, 0, fmt.Errorf("list gig reviews: %w", err)
	}
	return reviews, total, nil
}
