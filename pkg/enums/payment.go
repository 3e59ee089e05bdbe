package enums

// PaymentProvider discriminates which gateway produced a payment event.
type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderSquare PaymentProvider = "square"
)

func (p PaymentProvider) IsValid() bool {
	switch p {
	case PaymentProviderStripe, PaymentProviderSquare:
		return true
	}
	return false
}

// PaymentEventStatus tracks a payment-event inbox row through processing.
type PaymentEventStatus string

const (
	PaymentEventStatusPending   PaymentEventStatus = "pending"
	PaymentEventStatusProcessed PaymentEventStatus = "processed"
	PaymentEventStatusFailed    PaymentEventStatus = "failed"
	PaymentEventStatusDead      PaymentEventStatus = "dead"
)
