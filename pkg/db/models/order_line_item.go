package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots each purchased item; UnitPriceCents is the catalog
// price at materialization time and is never recomputed afterwards.
type OrderLineItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        int64      `gorm:"column:order_id;not null"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	SizeID         *uuid.UUID `gorm:"column:size_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	SizeLabel      *string    `gorm:"column:size_label"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	TotalCents     int        `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
