package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

type fakeMaterializer struct {
	calls   int
	orderID int64
	err     error
}

func (f *fakeMaterializer) Materialize(_ context.Context, _ VerifiedPayment) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.orderID, nil
}

func mustPayload(t *testing.T, payment VerifiedPayment) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payment)
	require.NoError(t, err)
	return raw
}

func TestProcessBatchMaterializesOrder(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderStripe, "cs_ok", 200)
	event.Payload = mustPayload(t, VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: "cs_ok",
		Approved:      true,
		AmountCents:   200,
		Currency:      "usd",
	})
	require.NoError(t, db.Create(event).Error)

	mat := &fakeMaterializer{orderID: 7}
	proc, err := NewProcessor(repo, mat, nil, testLogger(), nil, ProcessorConfig{})
	require.NoError(t, err)

	processed, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.Equal(t, 1, mat.calls)

	stored, err := repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderStripe, "cs_ok")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusProcessed, stored.Status)
	require.NotNil(t, stored.OrderID)
	require.EqualValues(t, 7, *stored.OrderID)
}

type fakeLivePublisher struct {
	events []enums.OutboxEventType
}

func (f *fakeLivePublisher) Publish(_ context.Context, event enums.OutboxEventType, _ any) error {
	f.events = append(f.events, event)
	return nil
}

func TestProcessBatchPublishesLiveUpdate(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderStripe, "cs_live", 300)
	event.Payload = mustPayload(t, VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: "cs_live",
		Approved:      true,
		AmountCents:   300,
		Currency:      "usd",
	})
	require.NoError(t, db.Create(event).Error)

	live := &fakeLivePublisher{}
	proc, err := NewProcessor(repo, &fakeMaterializer{orderID: 3}, live, testLogger(), nil, ProcessorConfig{})
	require.NoError(t, err)

	processed, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.Equal(t, []enums.OutboxEventType{enums.EventOrderPaid}, live.events)
}

func TestProcessBatchRetiresDomainRejectionImmediately(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderSquare, "sq_bad", 100)
	event.Payload = mustPayload(t, VerifiedPayment{Provider: enums.PaymentProviderSquare, TransactionID: "sq_bad"})
	require.NoError(t, db.Create(event).Error)

	mat := &fakeMaterializer{err: pkgerrors.New(pkgerrors.CodeValidation, "cart snapshot missing")}
	proc, err := NewProcessor(repo, mat, nil, testLogger(), nil, ProcessorConfig{MaxAttempts: 5})
	require.NoError(t, err)

	processed, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, processed)
	require.Equal(t, 1, mat.calls)

	stored, err := repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderSquare, "sq_bad")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusDead, stored.Status)
	require.Equal(t, 1, stored.AttemptCount)
}

func TestProcessBatchKeepsInsufficientStockPending(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderStripe, "cs_stock", 100)
	event.Payload = mustPayload(t, VerifiedPayment{Provider: enums.PaymentProviderStripe, TransactionID: "cs_stock"})
	require.NoError(t, db.Create(event).Error)

	mat := &fakeMaterializer{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "tee sold out")}
	proc, err := NewProcessor(repo, mat, nil, testLogger(), nil, ProcessorConfig{MaxAttempts: 3, InitialBackoff: 1})
	require.NoError(t, err)

	_, err = proc.ProcessBatch(context.Background())
	require.NoError(t, err)

	stored, err := repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderStripe, "cs_stock")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusFailed, stored.Status)
	require.Equal(t, 1, stored.AttemptCount)
}

func TestProcessBatchExhaustsAttemptsToDead(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderStripe, "cs_flaky", 100)
	event.Payload = mustPayload(t, VerifiedPayment{Provider: enums.PaymentProviderStripe, TransactionID: "cs_flaky"})
	require.NoError(t, db.Create(event).Error)

	mat := &fakeMaterializer{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	proc, err := NewProcessor(repo, mat, nil, testLogger(), nil, ProcessorConfig{MaxAttempts: 2, InitialBackoff: 1})
	require.NoError(t, err)

	_, err = proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	stored, err := repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderStripe, "cs_flaky")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusFailed, stored.Status)
	require.Equal(t, 1, stored.AttemptCount)

	_, err = proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	stored, err = repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderStripe, "cs_flaky")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusDead, stored.Status)
	require.Equal(t, 2, stored.AttemptCount)

	rows, err := repo.ClaimPending(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestProcessBatchRetiresUndecodablePayload(t *testing.T) {
	db := setupInboxTestDB(t)
	repo := NewInboxRepository(db)

	event := pendingEvent(enums.PaymentProviderStripe, "cs_garbage", 100)
	event.Payload = json.RawMessage(`{not json`)
	require.NoError(t, db.Create(event).Error)

	mat := &fakeMaterializer{orderID: 1}
	proc, err := NewProcessor(repo, mat, nil, testLogger(), nil, ProcessorConfig{})
	require.NoError(t, err)

	processed, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, processed)
	require.Zero(t, mat.calls)

	stored, err := repo.FindByProviderTransaction(context.Background(), enums.PaymentProviderStripe, "cs_garbage")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentEventStatusDead, stored.Status)
}
