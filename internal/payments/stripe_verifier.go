package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

type stripeSessionAPI interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripesdk.Event, error)
	GetSession(ctx context.Context, id string) (*stripesdk.CheckoutSession, error)
}

// StripeVerifier turns a raw Stripe webhook delivery into a VerifiedPayment.
// The session status is always re-fetched from the API; the callback body
// only tells us which session to look at.
type StripeVerifier struct {
	client stripeSessionAPI
}

// NewStripeVerifier builds the verifier.
func NewStripeVerifier(client stripeSessionAPI) (*StripeVerifier, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &StripeVerifier{client: client}, nil
}

// Provider identifies the gateway this verifier serves.
func (v *StripeVerifier) Provider() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

// Verify checks the signature and resolves the event. A nil VerifiedPayment
// with nil error means the event type is not one we act on.
func (v *StripeVerifier) Verify(ctx context.Context, body []byte, signature string) (string, *VerifiedPayment, error) {
	event, err := v.client.VerifyWebhook(body, signature)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "stripe signature verification failed")
	}

	switch event.Type {
	case stripesdk.EventTypeCheckoutSessionCompleted,
		stripesdk.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripesdk.EventTypeCheckoutSessionAsyncPaymentFailed:
	default:
		return event.ID, nil, nil
	}

	if event.Data == nil {
		return event.ID, nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &ref); err != nil {
		return event.ID, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session reference")
	}
	if ref.ID == "" {
		return event.ID, nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	session, err := v.client.GetSession(ctx, ref.ID)
	if err != nil {
		return event.ID, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout session")
	}

	verified := &VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: session.ID,
		Approved:      session.PaymentStatus == stripesdk.CheckoutSessionPaymentStatusPaid,
		AmountCents:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
		PaidAt:        time.Unix(event.Created, 0).UTC(),
	}
	if session.CustomerDetails != nil {
		verified.PayerName = session.CustomerDetails.Name
		verified.PayerEmail = session.CustomerDetails.Email
	}
	return event.ID, verified, nil
}
