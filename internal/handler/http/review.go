package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/internal/repository"
	"github.com/utafrali/gigmarket/internal/service"
	"github.com/utafrali/gigmarket/pkg/httputil"
	"github.com/utafrali/gigmarket/pkg/pagination"
	"github.com/utafrali/gigmarket/pkg/validator"
)

// ReviewService is the review behavior the handlers depend on.
type ReviewService interface {
	SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*domain.Review, repository.Aggregates, error)
	DeleteReview(ctx context.Context, reviewID string, actor domain.Actor) (repository.Aggregates, error)
	GetGigRating(ctx context.Context, gigID string) (*domain.Aggregate, error)
	GetSellerRating(ctx context.Context, sellerID string) (*domain.Aggregate, error)
	ListGigReviews(ctx context.Context, gigID string, page pagination.Params) ([]domain.Review, int, error)
}

// ReviewHandler handles HTTP requests for reviews and ratings.
type ReviewHandler struct {
	reviews ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// SubmitReview handles POST /api/v1/orders/{id}/review
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	review, aggs, err := h.reviews.SubmitReview(r.Context(), service.SubmitReviewInput{
		OrderID:    id.String(),
		ReviewerID: actorFrom(r.Context()).UserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		IsPublic:   isPublic,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: ReviewResponse{
		Review: review,
		Gig:    toAggregateResponse(aggs.Gig),
		Seller: toAggregateResponse(aggs.Seller),
	}})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	aggs, err := h.reviews.DeleteReview(r.Context(), id.String(), actorFrom(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"deleted":       true,
		"gig_rating":    toAggregateResponse(aggs.Gig),
		"seller_rating": toAggregateResponse(aggs.Seller),
	}})
}

// ListGigReviews handles GET /api/v1/gigs/{id}/reviews
func (h *ReviewHandler) ListGigReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	params := pagination.FromRequest(r)

	reviews, total, err := h.reviews.ListGigReviews(r.Context(), id.String(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// GetGigRating handles GET /api/v1/gigs/{id}/rating
func (h *ReviewHandler) GetGigRating(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	agg, err := h.reviews.GetGigRating(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toAggregateResponse(*agg)})
}

// GetSellerRating handles GET /api/v1/sellers/{id}/rating
func (h *ReviewHandler) GetSellerRating(w http.ResponseWriter, r *http.Request) {
	agg, err := h.reviews.GetSellerRating(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toAggregateResponse(*agg)})
}
