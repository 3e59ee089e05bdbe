package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// Order is the durable record of a confirmed purchase. ExternalPaymentID is
// the provider transaction id and doubles as the idempotency key: the unique
// index is what guarantees a replayed notification cannot create a second row.
type Order struct {
	ID                int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	Paid              bool                  `gorm:"column:paid;not null;default:false"`
	Provider          enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	ExternalPaymentID string                `gorm:"column:external_payment_id;not null;uniqueIndex:ux_orders_external_payment_id"`
	DeliveryOptionID  *uuid.UUID            `gorm:"column:delivery_option_id;type:uuid"`
	TotalCents        int                   `gorm:"column:total_cents;not null"`
	DeliveryFeeCents  int                   `gorm:"column:delivery_fee_cents;not null;default:0"`
	PayerName         string                `gorm:"column:payer_name;not null"`
	PayerEmail        string                `gorm:"column:payer_email;not null"`
	PayerPhone        string                `gorm:"column:payer_phone"`
	PayerAddress      string                `gorm:"column:payer_address"`
	PayerPostalCode   string                `gorm:"column:payer_postal_code"`
	Items             []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
