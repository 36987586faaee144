package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// OrderItem is a snapshot copied at purchase time, never live-linked to
// the product row.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"-"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is immutable once written to the ledger: no update path exists.
type Order struct {
	ID      uuid.UUID `json:"-"`
	OrderID string    `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	Items   []OrderItem `json:"items"`

	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`

	PaymentMethod string        `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`

	// Seconds between the client starting checkout and the order commit.
	CheckoutDuration  float64   `json:"checkout_duration"`
	CheckoutStartTime time.Time `json:"checkout_start_time"`
	CreatedAt         time.Time `json:"created_at"`
}

type CheckoutRequest struct {
	CheckoutStartTime string `json:"checkoutStartTime" validate:"required"`
	PaymentMethod     string `json:"paymentMethod" validate:"required,oneof=card upi netbanking wallet"`
}

type OrderSummary struct {
	OrderID      string  `json:"orderId"`
	Total        float64 `json:"total"`
	CheckoutTime float64 `json:"checkoutTime"`
}

func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		OrderID:      o.OrderID,
		Total:        o.Total,
		CheckoutTime: o.CheckoutDuration,
	}
}
