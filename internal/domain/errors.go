package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// Domain error codes.
const (
	CodeGigNotFound       = "GIG_NOT_FOUND"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeReviewNotFound    = "REVIEW_NOT_FOUND"
	CodeInvalidPackage    = "INVALID_PACKAGE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOrderNotCompleted = "ORDER_NOT_COMPLETED"
	CodeAlreadyReviewed   = "ALREADY_REVIEWED"
)

// ErrGigNotFound reports a missing gig.
func ErrGigNotFound(id string) *apperrors.AppError {
	return apperrors.New(CodeGigNotFound, fmt.Sprintf("gig %s not found", id), http.StatusNotFound, apperrors.ErrNotFound)
}

// ErrOrderNotFound reports a missing order.
func ErrOrderNotFound(id string) *apperrors.AppError {
	return apperrors.New(CodeOrderNotFound, fmt.Sprintf("order %s not found", id), http.StatusNotFound, apperrors.ErrNotFound)
}

// ErrReviewNotFound reports a missing review.
func ErrReviewNotFound(id string) *apperrors.AppError {
	return apperrors.New(CodeReviewNotFound, fmt.Sprintf("review %s not found", id), http.StatusNotFound, apperrors.ErrNotFound)
}

// ErrInvalidPackage reports a package type the gig does not offer.
func ErrInvalidPackage(packageType PackageType) *apperrors.AppError {
	return apperrors.New(CodeInvalidPackage, fmt.Sprintf("gig has no %s package", packageType), http.StatusBadRequest, apperrors.ErrInvalidInput)
}

// ErrUnknownTransition reports a requested target status that no action reaches.
func ErrUnknownTransition(target string) *apperrors.AppError {
	return apperrors.New(CodeInvalidTransition, fmt.Sprintf("%q is not a valid target status", target), http.StatusBadRequest, apperrors.ErrInvalidInput)
}

// ErrTransitionNotAllowed reports an action attempted from a state it cannot
// leave by that action.
func ErrTransitionNotAllowed(from OrderStatus, action Action) *apperrors.AppError {
	return apperrors.New(CodeInvalidTransition, fmt.Sprintf("cannot %s an order in %s status", action.verb(), from), http.StatusConflict, apperrors.ErrConflict)
}

// ErrOrderNotCompleted reports a review attempt on an unfinished order.
func ErrOrderNotCompleted(id string) *apperrors.AppError {
	return apperrors.New(CodeOrderNotCompleted, fmt.Sprintf("order %s is not completed", id), http.StatusConflict, apperrors.ErrConflict)
}

// ErrAlreadyReviewed reports a second review for the same order.
func ErrAlreadyReviewed(orderID string) *apperrors.AppError {
	return apperrors.New(CodeAlreadyReviewed, fmt.Sprintf("order %s has already been reviewed", orderID), http.StatusConflict, apperrors.ErrConflict)
}
