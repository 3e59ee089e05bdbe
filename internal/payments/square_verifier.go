package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

const squarePaymentStatusCompleted = "COMPLETED"

type squarePaymentAPI interface {
	VerifyWebhookSignature(body []byte, signature, notificationURL string) bool
	GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	GetOrder(ctx context.Context, orderID string) (*sq.Order, error)
}

// squareWebhookEnvelope is the slice of the callback body we trust: the
// event id for the fast-path guard and the payment id to re-fetch. Status
// and amounts are taken from the Payments API, not from here.
type squareWebhookEnvelope struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		Object struct {
			Payment struct {
				ID string `json:"id"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// SquareVerifier turns a raw Square webhook delivery into a VerifiedPayment.
type SquareVerifier struct {
	client          squarePaymentAPI
	notificationURL string
}

// NewSquareVerifier builds the verifier. notificationURL must match the
// webhook subscription URL registered with Square since it is part of the
// signature input.
func NewSquareVerifier(client squarePaymentAPI, notificationURL string) (*SquareVerifier, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	if strings.TrimSpace(notificationURL) == "" {
		return nil, fmt.Errorf("notification url required")
	}
	return &SquareVerifier{client: client, notificationURL: notificationURL}, nil
}

// Provider identifies the gateway this verifier serves.
func (v *SquareVerifier) Provider() enums.PaymentProvider {
	return enums.PaymentProviderSquare
}

// Verify checks the HMAC signature and resolves the event. A nil
// VerifiedPayment with nil error means the event type is not one we act on.
func (v *SquareVerifier) Verify(ctx context.Context, body []byte, signature string) (string, *VerifiedPayment, error) {
	if !v.client.VerifyWebhookSignature(body, signature, v.notificationURL) {
		return "", nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "square signature verification failed")
	}

	var envelope squareWebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode square webhook")
	}

	switch strings.ToLower(envelope.Type) {
	case "payment.created", "payment.updated":
	default:
		return envelope.EventID, nil, nil
	}
	if envelope.Data.Object.Payment.ID == "" {
		return envelope.EventID, nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}

	payment, err := v.client.GetPayment(ctx, envelope.Data.Object.Payment.ID)
	if err != nil {
		return envelope.EventID, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch square payment")
	}

	verified := &VerifiedPayment{
		Provider:      enums.PaymentProviderSquare,
		TransactionID: derefString(payment.GetID()),
		Approved:      strings.EqualFold(derefString(payment.GetStatus()), squarePaymentStatusCompleted),
		PayerEmail:    derefString(payment.GetBuyerEmailAddress()),
		PaidAt:        time.Now().UTC(),
	}
	if created := derefString(payment.GetCreatedAt()); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			verified.PaidAt = ts.UTC()
		}
	}
	if money := payment.GetAmountMoney(); money != nil {
		if money.Amount != nil {
			verified.AmountCents = *money.Amount
		}
		if money.Currency != nil {
			verified.Currency = strings.ToLower(string(*money.Currency))
		}
	}

	// The checkout snapshot lives on the Square order; only approved
	// payments need it.
	if verified.Approved {
		orderID := derefString(payment.GetOrderID())
		if orderID != "" {
			order, err := v.client.GetOrder(ctx, orderID)
			if err != nil {
				return envelope.EventID, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch square order")
			}
			verified.Metadata = flattenSquareMetadata(order.Metadata)
		}
	}
	return envelope.EventID, verified, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// flattenSquareMetadata drops nil values from the SDK's pointer-valued
// metadata map.
func flattenSquareMetadata(in map[string]*string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}
