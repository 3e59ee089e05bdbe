package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryOption is a shipping mode with a flat fee (pickup, courier, post).
type DeliveryOption struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	FeeCents  int       `gorm:"column:fee_cents;not null;default:0"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
