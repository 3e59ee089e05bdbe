package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/outbox/payloads"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM outbox_events")
	})
	return db
}

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "7",
			Data: payloads.OrderPaidEvent{
				OrderID:       7,
				Provider:      enums.PaymentProviderStripe,
				TransactionID: "pi_abc",
				TotalCents:    7450,
				Currency:      "usd",
			},
			Version: 1,
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.Where("event_type = ?", enums.EventOrderPaid).First(&row).Error)
	assert.Equal(t, "7", row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())

	var paid payloads.OrderPaidEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &paid))
	assert.Equal(t, int64(7), paid.OrderID)
	assert.Equal(t, "pi_abc", paid.TransactionID)
}

func TestServiceEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "1",
	})
	require.Error(t, err)
}

func TestServiceEmitIfNotExistsSkipsDuplicate(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	event := DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "42",
		Data:          payloads.OrderPaidEvent{OrderID: 42},
		Version:       1,
	}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.EmitIfNotExists(context.Background(), tx, event)
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.EmitIfNotExists(context.Background(), tx, event)
	}))

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ?", "42").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryFetchUnpublishedSkipsPublished(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	pending := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "1",
		Payload:       json.RawMessage(`{}`),
	}
	published := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderDeleted,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "2",
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Insert(tx, pending); err != nil {
			return err
		}
		return repo.Insert(tx, published)
	}))
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)
}

func TestRepositoryMarkFailedIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "9",
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.Insert(tx, row)
	}))

	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("publish timeout")))
	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("publish timeout")))

	var got models.OutboxEvent
	require.NoError(t, db.Where("id = ?", row.ID).First(&got).Error)
	assert.Equal(t, 2, got.AttemptCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "publish timeout", *got.LastError)
}

func TestRepositoryMarkDiscardedParksRow(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "11",
		Payload:       json.RawMessage(`not json`),
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.Insert(tx, row)
	}))

	require.NoError(t, repo.MarkDiscardedTx(db, row.ID, errors.New("undecodable payload"), 10))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var got models.OutboxEvent
	require.NoError(t, db.Where("id = ?", row.ID).First(&got).Error)
	assert.Equal(t, 10, got.AttemptCount)
	assert.Nil(t, got.PublishedAt)
}
