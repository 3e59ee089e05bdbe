package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// InboxRepository persists the durable payment-event inbox. The
// (provider, transaction_id) unique index is the exactly-once anchor:
// replayed webhooks collapse into the existing row via ON CONFLICT DO
// NOTHING and never reach the materializer twice.
type InboxRepository struct {
	db *gorm.DB
}

// NewInboxRepository builds a repository tied to the provided GORM DB.
func NewInboxRepository(db *gorm.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *InboxRepository) WithTx(tx *gorm.DB) *InboxRepository {
	return &InboxRepository{db: tx}
}

// Record inserts an inbox row, ignoring the duplicate-key case. The bool
// reports whether this call actually created the row.
func (r *InboxRepository) Record(ctx context.Context, event *models.PaymentEvent) (bool, error) {
	if event == nil {
		return false, fmt.Errorf("payment event required")
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByProviderTransaction loads one inbox row by its natural key.
func (r *InboxRepository) FindByProviderTransaction(ctx context.Context, provider enums.PaymentProvider, transactionID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := r.db.WithContext(ctx).
		First(&event, "provider = ? AND transaction_id = ?", provider, transactionID).
		Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ClaimPending returns unprocessed rows oldest first, bounded by limit.
// Failed rows stay claimable until MarkFailed retires them as dead.
func (r *InboxRepository) ClaimPending(ctx context.Context, limit int) ([]models.PaymentEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.PaymentEventStatus{
			enums.PaymentEventStatusPending,
			enums.PaymentEventStatusFailed,
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// MarkProcessed retires a row after its order materialized.
func (r *InboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, orderID int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.PaymentEventStatusProcessed,
			"order_id":     orderID,
			"processed_at": now,
		}).
		Error
}

// MarkFailed records a processing failure and bumps the attempt counter.
// When terminal is set the row becomes dead and is never claimed again.
func (r *InboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause string, terminal bool) error {
	status := enums.PaymentEventStatusFailed
	if terminal {
		status = enums.PaymentEventStatusDead
	}
	return r.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    cause,
		}).
		Error
}
