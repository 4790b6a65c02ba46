package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusDisputed   OrderStatus = "DISPUTED"
)

// ValidStatuses returns all order statuses.
func ValidStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusInProgress,
		OrderStatusDelivered,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusDisputed,
	}
}

// IsValidStatus checks if a status string names an order status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if string(s) == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no action leads out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// PaymentStatus of the order's up-front payment. Funds are confirmed by the
// payment processor before an order is created, so only COMPLETED is used.
type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "COMPLETED"

// Order is a buyer's purchase of one package of a seller's gig.
type Order struct {
	ID             string            `json:"id"`
	GigID          string            `json:"gig_id"`
	BuyerID        string            `json:"buyer_id"`
	SellerID       string            `json:"seller_id"`
	PackageType    PackageType       `json:"package_type"`
	Price          decimal.Decimal   `json:"price"`
	ServiceFee     decimal.Decimal   `json:"service_fee"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	Status         OrderStatus       `json:"status"`
	PaymentStatus  PaymentStatus     `json:"payment_status"`
	DeliveryDate   time.Time         `json:"delivery_date"`
	Requirements   map[string]string `json:"requirements,omitempty"`
	MaxRevisions   int               `json:"max_revisions"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	IdempotencyKey string            `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewOrder builds an in-progress, paid order from a quote.
func NewOrder(id string, gig *Gig, buyerID string, q Quote, requirements map[string]string, idempotencyKey string, now time.Time) *Order {
	return &Order{
		ID:             id,
		GigID:          gig.ID,
		BuyerID:        buyerID,
		SellerID:       gig.SellerID,
		PackageType:    q.PackageType,
		Price:          q.Price,
		ServiceFee:     q.ServiceFee,
		TotalAmount:    q.TotalAmount,
		Status:         OrderStatusInProgress,
		PaymentStatus:  PaymentStatusCompleted,
		DeliveryDate:   q.DeliveryDate,
		Requirements:   requirements,
		MaxRevisions:   q.MaxRevisions,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsParticipant reports whether userID is the order's buyer or seller.
func (o *Order) IsParticipant(userID string) bool {
	return userID != "" && (userID == o.BuyerID || userID == o.SellerID)
}

// Counterparty returns the other participant of the order.
func (o *Order) Counterparty(userID string) string {
	if userID == o.SellerID {
		return o.BuyerID
	}
	return o.SellerID
}

// Apply runs action as role through the transition table and mutates the
// order on success. Completion stamps CompletedAt.
func (o *Order) Apply(action Action, role Role, now time.Time) error {
	next, err := Transition(o.Status, action, role)
	if err != nil {
		return err
	}
	o.Status = next
	o.UpdatedAt = now
	if next == OrderStatusCompleted {
		completed := now
		o.CompletedAt = &completed
	}
	return nil
}
