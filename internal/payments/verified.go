package payments

import (
	"time"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// VerifiedPayment is the provider-neutral result of a webhook round trip.
// Both gateways reduce to this one shape; everything downstream (inbox,
// materializer) only ever sees it. The status here comes from a fresh API
// fetch, never from the callback body.
type VerifiedPayment struct {
	Provider      enums.PaymentProvider `json:"provider"`
	TransactionID string                `json:"transaction_id"`
	Approved      bool                  `json:"approved"`
	AmountCents   int64                 `json:"amount_cents"`
	Currency      string                `json:"currency"`
	PayerName     string                `json:"payer_name,omitempty"`
	PayerEmail    string                `json:"payer_email,omitempty"`
	Metadata      map[string]string     `json:"metadata,omitempty"`
	PaidAt        time.Time             `json:"paid_at"`
}
