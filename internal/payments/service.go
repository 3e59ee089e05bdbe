package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/metrics"
)

// IngestService writes verified payments into the durable inbox. It is the
// only producer of payment_events rows; the worker is the only consumer.
type IngestService struct {
	inbox   *InboxRepository
	logger  *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewIngestService builds the ingest service.
func NewIngestService(inbox *InboxRepository, log *logger.Logger, pm *metrics.PaymentMetrics) (*IngestService, error) {
	if inbox == nil {
		return nil, fmt.Errorf("inbox repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &IngestService{inbox: inbox, logger: log, metrics: pm}, nil
}

// Ingest records an approved payment in the inbox. Non-approved payments
// are acknowledged without any durable write; replays collapse into the
// existing row. The bool reports whether a new row was created.
func (s *IngestService) Ingest(ctx context.Context, payment *VerifiedPayment) (bool, error) {
	if payment == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "verified payment required")
	}
	if !payment.Provider.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if strings.TrimSpace(payment.TransactionID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	ctx = s.logger.WithProvider(ctx, string(payment.Provider))
	ctx = s.logger.WithTransactionID(ctx, payment.TransactionID)

	if !payment.Approved {
		s.logger.Info(ctx, "payment not approved, nothing recorded")
		s.metrics.IncWebhook(string(payment.Provider), "ignored")
		return false, nil
	}

	payload, err := json.Marshal(payment)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal verified payment")
	}
	event := &models.PaymentEvent{
		Provider:      payment.Provider,
		TransactionID: payment.TransactionID,
		Status:        enums.PaymentEventStatusPending,
		AmountCents:   payment.AmountCents,
		Currency:      payment.Currency,
		Payload:       payload,
	}

	inserted, err := s.inbox.Record(ctx, event)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment event")
	}
	if inserted {
		s.logger.Info(ctx, "payment event recorded")
		s.metrics.IncWebhook(string(payment.Provider), "accepted")
	} else {
		s.logger.Info(ctx, "payment event already recorded, replay ignored")
		s.metrics.IncDuplicate(string(payment.Provider))
	}
	return inserted, nil
}
