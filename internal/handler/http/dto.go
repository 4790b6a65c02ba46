package http

import (
	"context"
	"time"

	"github.com/utafrali/gigmarket/internal/domain"
	"github.com/utafrali/gigmarket/pkg/middleware"
)

// actorFrom builds the domain actor from the authenticated request context.
func actorFrom(ctx context.Context) domain.Actor {
	return domain.Actor{
		UserID:  middleware.UserIDFromContext(ctx),
		IsAdmin: middleware.RoleFromContext(ctx) == middleware.RoleAdmin,
	}
}

// --- Request DTOs ---

// CreateOrderRequest is the JSON request body for creating an order.
type CreateOrderRequest struct {
	GigID        string            `json:"gig_id" validate:"required,uuid"`
	PackageType  string            `json:"package_type" validate:"required,oneof=BASIC STANDARD PREMIUM"`
	Requirements map[string]string `json:"requirements" validate:"omitempty,max=50,dive,keys,required,max=100,endkeys,max=5000"`
}

// UpdateStatusRequest is the JSON request body for changing order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateDisputeRequest is the JSON request body for opening a dispute.
type CreateDisputeRequest struct {
	Reason      string `json:"reason" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

// SubmitReviewRequest is the JSON request body for reviewing an order.
// IsPublic defaults to true.
type SubmitReviewRequest struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment  string `json:"comment" validate:"required,min=10,max=5000"`
	IsPublic *bool  `json:"is_public"`
}

// --- Response DTOs ---

// OrderResponse renders money with exactly two decimals.
type OrderResponse struct {
	ID            string            `json:"id"`
	GigID         string            `json:"gig_id"`
	BuyerID       string            `json:"buyer_id"`
	SellerID      string            `json:"seller_id"`
	PackageType   string            `json:"package_type"`
	Price         string            `json:"price"`
	ServiceFee    string            `json:"service_fee"`
	TotalAmount   string            `json:"total_amount"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	DeliveryDate  time.Time         `json:"delivery_date"`
	Requirements  map[string]string `json:"requirements"`
	MaxRevisions  int               `json:"max_revisions"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	requirements := o.Requirements
	if requirements == nil {
		requirements = map[string]string{}
	}
	return OrderResponse{
		ID:            o.ID,
		GigID:         o.GigID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		PackageType:   string(o.PackageType),
		Price:         o.Price.StringFixed(2),
		ServiceFee:    o.ServiceFee.StringFixed(2),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		DeliveryDate:  o.DeliveryDate,
		Requirements:  requirements,
		MaxRevisions:  o.MaxRevisions,
		CompletedAt:   o.CompletedAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// AggregateResponse is a rating aggregate as returned by the API.
type AggregateResponse struct {
	ID           string  `json:"id"`
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`
}

func toAggregateResponse(a domain.Aggregate) AggregateResponse {
	return AggregateResponse{ID: a.ID, Rating: a.Rating, TotalReviews: a.TotalReviews}
}

// ReviewResponse is a submitted review together with the aggregates it
// produced.
type ReviewResponse struct {
	Review *domain.Review    `json:"review"`
	Gig    AggregateResponse `json:"gig_rating"`
	Seller AggregateResponse `json:"seller_rating"`
}
