package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies a ledger entry.
type PaymentType string

const PaymentTypeOrderPayment PaymentType = "ORDER_PAYMENT"

// Payment is a row in the payment ledger.
type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      PaymentType     `json:"type"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOrderPayment records the buyer's confirmed payment for order.
func NewOrderPayment(id string, order *Order) *Payment {
	return &Payment{
		ID:        id,
		OrderID:   order.ID,
		UserID:    order.BuyerID,
		Amount:    order.TotalAmount,
		Type:      PaymentTypeOrderPayment,
		Status:    PaymentStatusCompleted,
		CreatedAt: order.CreatedAt,
	}
}
