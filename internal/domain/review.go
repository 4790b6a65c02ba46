package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// Review bounds.
const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
)

// Review is a buyer's rating of a completed order.
type Review struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	GigID      string    `json:"gig_id"`
	ReviewerID string    `json:"reviewer_id"`
	SellerID   string    `json:"seller_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateReview checks rating and comment bounds.
func ValidateReview(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if utf8.RuneCountInString(strings.TrimSpace(comment)) < MinCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at least %d characters", MinCommentLength))
	}
	return nil
}

// NewReview builds the review of a completed order by its buyer.
func NewReview(id string, order *Order, rating int, comment string, isPublic bool, now time.Time) *Review {
	return &Review{
		ID:         id,
		OrderID:    order.ID,
		GigID:      order.GigID,
		ReviewerID: order.BuyerID,
		SellerID:   order.SellerID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		IsPublic:   isPublic,
		CreatedAt:  now,
	}
}
