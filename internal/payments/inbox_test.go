package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

func setupInboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS payment_events (
  id TEXT PRIMARY KEY,
  provider TEXT NOT NULL,
  transaction_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  order_id INTEGER,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (provider, transaction_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM payment_events")
	})
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
}

func pendingEvent(provider enums.PaymentProvider, txID string, amount int64) *models.PaymentEvent {
	return &models.PaymentEvent{
		ID:            uuid.New(),
		Provider:      provider,
		TransactionID: txID,
		Status:        enums.PaymentEventStatusPending,
		AmountCents:   amount,
		Currency:      "usd",
		Payload:       json.RawMessage(`{}`),
	}
}

func TestRecordIgnoresDuplicateTransaction(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)
	ctx := context.Background()

	inserted, err := repo.Record(ctx, pendingEvent(enums.PaymentProviderStripe, "cs_dup", 1500))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.Record(ctx, pendingEvent(enums.PaymentProviderStripe, "cs_dup", 1500))
	require.NoError(t, err)
	require.False(t, inserted)

	// Same transaction id under the other provider is a different payment.
	inserted, err = repo.Record(ctx, pendingEvent(enums.PaymentProviderSquare, "cs_dup", 1500))
	require.NoError(t, err)
	require.True(t, inserted)

	var count int64
	require.NoError(t, db.Model(&models.PaymentEvent{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestClaimPendingOldestFirstSkipsRetired(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)
	ctx := context.Background()

	oldest := pendingEvent(enums.PaymentProviderStripe, "cs_oldest", 100)
	oldest.CreatedAt = time.Now().Add(-3 * time.Hour)
	failed := pendingEvent(enums.PaymentProviderSquare, "sq_failed", 200)
	failed.Status = enums.PaymentEventStatusFailed
	failed.CreatedAt = time.Now().Add(-2 * time.Hour)
	processed := pendingEvent(enums.PaymentProviderStripe, "cs_done", 300)
	processed.Status = enums.PaymentEventStatusProcessed
	processed.CreatedAt = time.Now().Add(-1 * time.Hour)
	dead := pendingEvent(enums.PaymentProviderStripe, "cs_dead", 400)
	dead.Status = enums.PaymentEventStatusDead
	dead.CreatedAt = time.Now().Add(-1 * time.Hour)
	newest := pendingEvent(enums.PaymentProviderStripe, "cs_newest", 500)

	for _, event := range []*models.PaymentEvent{oldest, failed, processed, dead, newest} {
		require.NoError(t, db.Create(event).Error)
	}

	rows, err := repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "cs_oldest", rows[0].TransactionID)
	require.Equal(t, "sq_failed", rows[1].TransactionID)
}

func TestMarkProcessedStampsOrder(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)
	ctx := context.Background()

	event := pendingEvent(enums.PaymentProviderStripe, "cs_proc", 100)
	require.NoError(t, db.Create(event).Error)

	require.NoError(t, repo.MarkProcessed(ctx, event.ID, 42))

	stored, err := repo.FindByProviderTransaction(ctx, enums.PaymentProviderStripe, "cs_proc")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusProcessed, stored.Status)
	require.NotNil(t, stored.OrderID)
	require.EqualValues(t, 42, *stored.OrderID)
	require.NotNil(t, stored.ProcessedAt)
}

func TestMarkFailedIncrementsAttemptsAndRetires(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)
	ctx := context.Background()

	event := pendingEvent(enums.PaymentProviderSquare, "sq_fail", 100)
	require.NoError(t, db.Create(event).Error)

	require.NoError(t, repo.MarkFailed(ctx, event.ID, "boom", false))
	stored, err := repo.FindByProviderTransaction(ctx, enums.PaymentProviderSquare, "sq_fail")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusFailed, stored.Status)
	require.Equal(t, 1, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	require.Equal(t, "boom", *stored.LastError)

	require.NoError(t, repo.MarkFailed(ctx, event.ID, "boom again", true))
	stored, err = repo.FindByProviderTransaction(ctx, enums.PaymentProviderSquare, "sq_fail")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusDead, stored.Status)
	require.Equal(t, 2, stored.AttemptCount)

	rows, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestIngestSkipsNonApproved(t *testing.T) {
	db := setupInboxTestDB(t)
	svc, err := NewIngestService(NewInboxRepository(db), testLogger(), nil)
	require.NoError(t, err)

	recorded, err := svc.Ingest(context.Background(), &VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: "cs_unpaid",
		Approved:      false,
	})
	require.NoError(t, err)
	require.False(t, recorded)

	var count int64
	require.NoError(t, db.Model(&models.PaymentEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestIngestCollapsesReplays(t *testing.T) {
	db := setupInboxTestDB(t)
	svc, err := NewIngestService(NewInboxRepository(db), testLogger(), nil)
	require.NoError(t, err)

	payment := &VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: "cs_replay",
		Approved:      true,
		AmountCents:   11500,
		Currency:      "usd",
		PaidAt:        time.Now(),
	}

	recorded, err := svc.Ingest(context.Background(), payment)
	require.NoError(t, err)
	require.True(t, recorded)

	recorded, err = svc.Ingest(context.Background(), payment)
	require.NoError(t, err)
	require.False(t, recorded)

	var count int64
	require.NoError(t, db.Model(&models.PaymentEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
