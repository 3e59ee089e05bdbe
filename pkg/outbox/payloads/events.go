package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// OrderPaidEvent is emitted when a payment event materializes an order.
type OrderPaidEvent struct {
	OrderID       int64                 `json:"order_id"`
	Provider      enums.PaymentProvider `json:"provider"`
	TransactionID string                `json:"transaction_id"`
	TotalCents    int64                 `json:"total_cents"`
	Currency      string                `json:"currency"`
	PayerName     string                `json:"payer_name,omitempty"`
	PayerEmail    string                `json:"payer_email,omitempty"`
	PaidAt        time.Time             `json:"paid_at"`
}

// OrderStatusChangedEvent is emitted when an admin changes an order status.
type OrderStatusChangedEvent struct {
	OrderID    int64             `json:"order_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderDeletedEvent is emitted when an admin removes an order.
type OrderDeletedEvent struct {
	OrderID   int64     `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// StockAdjustedEvent reports an inventory change on a product or size.
type StockAdjustedEvent struct {
	ProductID uuid.UUID  `json:"product_id"`
	SizeID    *uuid.UUID `json:"size_id,omitempty"`
	Delta     int        `json:"delta"`
	OrderID   *int64     `json:"order_id,omitempty"`
}
