package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ridersroast/motocafe-backend/api/responses"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	squareSignatureHeader = "X-Square-Hmacsha256-Signature"
)

// PaymentVerifier authenticates a raw webhook delivery and resolves it into
// a VerifiedPayment by re-fetching the transaction from the provider API.
type PaymentVerifier interface {
	Verify(ctx context.Context, body []byte, signature string) (string, *payments.VerifiedPayment, error)
}

// Guard is the replay fast path consulted before the inbox write.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type ingestService interface {
	Ingest(ctx context.Context, payment *payments.VerifiedPayment) (bool, error)
}

// StripeWebhook handles Stripe checkout session callbacks.
func StripeWebhook(verifier PaymentVerifier, guard Guard, ingest ingestService, logg *logger.Logger) http.HandlerFunc {
	return handle("stripe", stripeSignatureHeader, verifier, guard, ingest, logg)
}

// SquareWebhook handles Square payment callbacks.
func SquareWebhook(verifier PaymentVerifier, guard Guard, ingest ingestService, logg *logger.Logger) http.HandlerFunc {
	return handle("square", squareSignatureHeader, verifier, guard, ingest, logg)
}

// handle is the shared delivery flow. A non-2xx response is returned only
// when nothing durable was written, so the provider retry cannot double
// apply an event.
func handle(provider, signatureHeader string, verifier PaymentVerifier, guard Guard, ingest ingestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if verifier == nil || ingest == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(signatureHeader))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, provider+" signature missing"))
			return
		}

		eventID, payment, err := verifier.Verify(ctx, body, signature)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if payment == nil {
			// Event type we do not act on. Ack so the provider stops retrying.
			responses.WriteSuccess(w, nil)
			return
		}

		alreadySeen, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadySeen {
			responses.WriteSuccess(w, nil)
			return
		}

		if _, err := ingest.Ingest(ctx, payment); err != nil {
			// The inbox write failed, so clear the guard mark and let the
			// provider redeliver.
			_ = guard.Delete(ctx, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("%s event %s accepted", provider, eventID))
		}
		responses.WriteSuccess(w, nil)
	}
}
