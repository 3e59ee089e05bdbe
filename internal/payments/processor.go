package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/metrics"
	"github.com/ridersroast/motocafe-backend/pkg/outbox/payloads"
)

const (
	defaultBatchSize      = 10
	defaultMaxAttempts    = 5
	defaultInitialBackoff = 250 * time.Millisecond
)

// Materializer consumes one verified payment and produces exactly one order.
// internal/orders provides the implementation.
type Materializer interface {
	Materialize(ctx context.Context, payment VerifiedPayment) (int64, error)
}

// livePublisher pushes best-effort live updates after a row materializes.
// internal/notifier provides the implementations.
type livePublisher interface {
	Publish(ctx context.Context, event enums.OutboxEventType, payload any) error
}

// ProcessorConfig tunes the inbox poller.
type ProcessorConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Processor drains the payment-event inbox. Each claimed row is handed to
// the materializer; transient failures are retried in place, persistent
// ones bump the attempt counter until the row is retired as dead.
type Processor struct {
	inbox        *InboxRepository
	materializer Materializer
	live         livePublisher
	logger       *logger.Logger
	metrics      *metrics.PaymentMetrics
	cfg          ProcessorConfig
}

// NewProcessor builds the processor. The live publisher may be nil when no
// listener cares about immediate updates.
func NewProcessor(inbox *InboxRepository, materializer Materializer, live livePublisher, log *logger.Logger, pm *metrics.PaymentMetrics, cfg ProcessorConfig) (*Processor, error) {
	if inbox == nil {
		return nil, fmt.Errorf("inbox repository required")
	}
	if materializer == nil {
		return nil, fmt.Errorf("materializer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	return &Processor{
		inbox:        inbox,
		materializer: materializer,
		live:         live,
		logger:       log,
		metrics:      pm,
		cfg:          cfg,
	}, nil
}

// ProcessBatch claims one batch of inbox rows and works through it. It
// returns the number of rows that materialized an order.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	rows, err := p.inbox.ClaimPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim pending payment events: %w", err)
	}

	processed := 0
	for i := range rows {
		row := rows[i]
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		rowCtx := p.logger.WithProvider(ctx, string(row.Provider))
		rowCtx = p.logger.WithTransactionID(rowCtx, row.TransactionID)

		var payment VerifiedPayment
		if err := json.Unmarshal(row.Payload, &payment); err != nil {
			// Undecodable rows can never succeed; retire immediately.
			p.logger.Error(rowCtx, "payment event payload undecodable", err)
			if markErr := p.inbox.MarkFailed(rowCtx, row.ID, err.Error(), true); markErr != nil {
				return processed, fmt.Errorf("mark payment event dead: %w", markErr)
			}
			continue
		}

		started := time.Now()
		orderID, err := p.materializeWithRetry(rowCtx, payment)
		if err != nil {
			terminal := row.AttemptCount+1 >= p.cfg.MaxAttempts || !isTransient(err)
			p.logger.Error(rowCtx, "payment event processing failed", err)
			if markErr := p.inbox.MarkFailed(rowCtx, row.ID, err.Error(), terminal); markErr != nil {
				return processed, fmt.Errorf("mark payment event failed: %w", markErr)
			}
			continue
		}

		if markErr := p.inbox.MarkProcessed(rowCtx, row.ID, orderID); markErr != nil {
			return processed, fmt.Errorf("mark payment event processed: %w", markErr)
		}
		p.metrics.IncOrderMaterialized(string(row.Provider))
		p.metrics.ObserveProcessing(string(row.Provider), time.Since(started))
		p.logger.Info(p.logger.WithOrderID(rowCtx, fmt.Sprint(orderID)), "payment event materialized order")
		p.publishLive(rowCtx, orderID, payment)
		processed++
	}
	return processed, nil
}

// publishLive is best effort; the outbox already carries the durable event.
func (p *Processor) publishLive(ctx context.Context, orderID int64, payment VerifiedPayment) {
	if p.live == nil {
		return
	}
	err := p.live.Publish(ctx, enums.EventOrderPaid, payloads.OrderPaidEvent{
		OrderID:       orderID,
		Provider:      payment.Provider,
		TransactionID: payment.TransactionID,
		TotalCents:    payment.AmountCents,
		Currency:      payment.Currency,
		PaidAt:        payment.PaidAt,
	})
	if err != nil {
		p.logger.Warn(p.logger.WithField(ctx, "error", err.Error()), "live update publish failed")
	}
}

func (p *Processor) materializeWithRetry(ctx context.Context, payment VerifiedPayment) (int64, error) {
	var orderID int64
	backoff := retry.WithMaxRetries(2, retry.NewExponential(p.cfg.InitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := p.materializer.Materialize(ctx, payment)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// isTransient reports whether the failure is worth another attempt. Domain
// rejections (validation, missing products) will fail every replay and are
// retired without burning attempts. Insufficient stock is the exception:
// replenishment can land between attempts, so those events keep their full
// attempt budget before going dead.
func isTransient(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	if typed.Code() == pkgerrors.CodeInsufficientStock {
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}
