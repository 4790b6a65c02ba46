package domain

import (
	"strings"
	"time"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// DisputeStatus of a dispute. Resolution is handled outside this service.
type DisputeStatus string

const DisputeStatusOpen DisputeStatus = "OPEN"

// Dispute is a participant's complaint about an order.
type Dispute struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	InitiatorID string        `json:"initiator_id"`
	Reason      string        `json:"reason"`
	Description string        `json:"description"`
	Status      DisputeStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewDispute validates the fields and builds an open dispute.
func NewDispute(id, orderID, initiatorID, reason, description string, now time.Time) (*Dispute, error) {
	reason, description = strings.TrimSpace(reason), strings.TrimSpace(description)
	if reason == "" || description == "" {
		return nil, apperrors.InvalidInput("reason and description are required")
	}
	return &Dispute{
		ID:          id,
		OrderID:     orderID,
		InitiatorID: initiatorID,
		Reason:      reason,
		Description: description,
		Status:      DisputeStatusOpen,
		CreatedAt:   now,
	}, nil
}
