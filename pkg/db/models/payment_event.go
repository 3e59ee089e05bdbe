package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// PaymentEvent is the durable inbox row a webhook writes after verifying a
// payment with the provider. The (provider, transaction_id) unique constraint
// makes replayed notifications collapse into the existing row.
type PaymentEvent struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider      enums.PaymentProvider    `gorm:"column:provider;type:text;not null;uniqueIndex:ux_payment_events_provider_tx"`
	TransactionID string                   `gorm:"column:transaction_id;not null;uniqueIndex:ux_payment_events_provider_tx"`
	Status        enums.PaymentEventStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountCents   int64                    `gorm:"column:amount_cents;not null"`
	Currency      string                   `gorm:"column:currency;not null"`
	Payload       json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                  `gorm:"column:last_error"`
	OrderID       *int64                   `gorm:"column:order_id"`
	ProcessedAt   *time.Time               `gorm:"column:processed_at"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
