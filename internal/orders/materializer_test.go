package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/internal/catalog"
	"github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/outbox"
)

type materializerFixture struct {
	db      *gorm.DB
	repo    *Repository
	mat     *Materializer
	coffee  *models.Product
	jacket  *models.Product
	sizeM   *models.ProductSize
	courier *models.DeliveryOption
}

func newMaterializerFixture(t *testing.T) *materializerFixture {
	t.Helper()
	db := setupOrdersTestDB(t)

	coffee := &models.Product{
		ID:         uuid.New(),
		Name:       "House Blend 500g",
		PriceCents: 100,
		Active:     true,
		StockQty:   10,
	}
	require.NoError(t, db.Create(coffee).Error)

	jacket := &models.Product{
		ID:         uuid.New(),
		Name:       "Ridgeline Jacket",
		PriceCents: 100,
		Active:     true,
	}
	require.NoError(t, db.Create(jacket).Error)
	sizeM := &models.ProductSize{
		ID:        uuid.New(),
		ProductID: jacket.ID,
		Label:     "M",
		StockQty:  3,
	}
	require.NoError(t, db.Create(sizeM).Error)

	courier := &models.DeliveryOption{
		ID:       uuid.New(),
		Name:     "Local Courier",
		FeeCents: 15,
		Active:   true,
	}
	require.NoError(t, db.Create(courier).Error)

	repo := NewRepository(db)
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	mat, err := NewMaterializer(gormTxRunner{db: db}, repo, catalog.NewRepository(db), catalog.NewStockAdjuster(), emitter, testLogger(t))
	require.NoError(t, err)

	return &materializerFixture{
		db:      db,
		repo:    repo,
		mat:     mat,
		coffee:  coffee,
		jacket:  jacket,
		sizeM:   sizeM,
		courier: courier,
	}
}

func (f *materializerFixture) payment(t *testing.T, txid string, amountCents int64, snapshot checkout.CartSnapshot) payments.VerifiedPayment {
	t.Helper()
	metadata, err := checkout.BuildMetadata(snapshot)
	require.NoError(t, err)
	return payments.VerifiedPayment{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: txid,
		Approved:      true,
		AmountCents:   amountCents,
		Currency:      "usd",
		Metadata:      metadata,
		PaidAt:        time.Now().UTC(),
	}
}

func shippingFixture() checkout.ShippingForm {
	return checkout.ShippingForm{
		Name:       "Ari Tester",
		Address:    "12 Ridge Road",
		Phone:      "555-0100",
		PostalCode: "94110",
		Email:      "ari@example.com",
	}
}

func (f *materializerFixture) countOutbox(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func (f *materializerFixture) productStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", id).Error)
	return product.StockQty
}

func (f *materializerFixture) sizeStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var size models.ProductSize
	require.NoError(t, f.db.First(&size, "id = ?", id).Error)
	return size.StockQty
}

func TestMaterializeCreatesOrderWithLineItems(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	snapshot := checkout.CartSnapshot{
		Lines:    []checkout.SnapshotLine{{ProductID: f.coffee.ID, Qty: 2}},
		Shipping: shippingFixture(),
	}
	orderID, err := f.mat.Materialize(ctx, f.payment(t, "cs_mat_1", 200, snapshot))
	require.NoError(t, err)
	require.NotZero(t, orderID)

	order, err := f.repo.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.True(t, order.Paid)
	assert.Equal(t, "cs_mat_1", order.ExternalPaymentID)
	assert.Equal(t, 200, order.TotalCents)
	assert.Equal(t, 0, order.DeliveryFeeCents)
	assert.Equal(t, "Ari Tester", order.PayerName)
	assert.Equal(t, "ari@example.com", order.PayerEmail)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, f.coffee.ID, item.ProductID)
	assert.Equal(t, 2, item.Qty)
	assert.Equal(t, 100, item.UnitPriceCents)
	assert.Equal(t, 200, item.TotalCents)
	assert.Nil(t, item.SizeID)

	assert.Equal(t, 8, f.productStock(t, f.coffee.ID))
	assert.EqualValues(t, 1, f.countOutbox(t, enums.EventOrderPaid))
}

func TestMaterializeReplayReturnsExistingOrder(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	snapshot := checkout.CartSnapshot{
		Lines:    []checkout.SnapshotLine{{ProductID: f.coffee.ID, Qty: 2}},
		Shipping: shippingFixture(),
	}
	payment := f.payment(t, "cs_replay_1", 200, snapshot)

	first, err := f.mat.Materialize(ctx, payment)
	require.NoError(t, err)
	second, err := f.mat.Materialize(ctx, payment)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)

	// The replay must not decrement stock or emit a second event.
	assert.Equal(t, 8, f.productStock(t, f.coffee.ID))
	assert.EqualValues(t, 1, f.countOutbox(t, enums.EventOrderPaid))
}

func TestMaterializeSizedLineWithDeliveryFee(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	snapshot := checkout.CartSnapshot{
		Lines:            []checkout.SnapshotLine{{ProductID: f.jacket.ID, SizeID: &f.sizeM.ID, Qty: 1}},
		Shipping:         shippingFixture(),
		DeliveryOptionID: f.courier.ID,
	}
	orderID, err := f.mat.Materialize(ctx, f.payment(t, "cs_sized_1", 115, snapshot))
	require.NoError(t, err)

	order, err := f.repo.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 115, order.TotalCents)
	assert.Equal(t, 15, order.DeliveryFeeCents)
	require.NotNil(t, order.DeliveryOptionID)
	assert.Equal(t, f.courier.ID, *order.DeliveryOptionID)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	require.NotNil(t, item.SizeID)
	assert.Equal(t, f.sizeM.ID, *item.SizeID)
	require.NotNil(t, item.SizeLabel)
	assert.Equal(t, "M", *item.SizeLabel)

	// The size pool absorbs the decrement, not the product counter.
	assert.Equal(t, 2, f.sizeStock(t, f.sizeM.ID))
	assert.Equal(t, 0, f.productStock(t, f.jacket.ID))
}

func TestMaterializeInsufficientStockRollsBack(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	snapshot := checkout.CartSnapshot{
		Lines:    []checkout.SnapshotLine{{ProductID: f.coffee.ID, Qty: 99}},
		Shipping: shippingFixture(),
	}
	_, err := f.mat.Materialize(ctx, f.payment(t, "cs_short_1", 9900, snapshot))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 0, orderCount)
	assert.Equal(t, 10, f.productStock(t, f.coffee.ID))
	assert.EqualValues(t, 0, f.countOutbox(t, enums.EventOrderPaid))
}

func TestMaterializeVanishedProductFails(t *testing.T) {
	f := newMaterializerFixture(t)
	ctx := context.Background()

	snapshot := checkout.CartSnapshot{
		Lines:    []checkout.SnapshotLine{{ProductID: uuid.New(), Qty: 1}},
		Shipping: shippingFixture(),
	}
	_, err := f.mat.Materialize(ctx, f.payment(t, "cs_gone_1", 100, snapshot))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 0, orderCount)
}

func TestMaterializeRejectsUnapprovedPayment(t *testing.T) {
	f := newMaterializerFixture(t)

	snapshot := checkout.CartSnapshot{
		Lines:    []checkout.SnapshotLine{{ProductID: f.coffee.ID, Qty: 1}},
		Shipping: shippingFixture(),
	}
	payment := f.payment(t, "cs_unapproved_1", 100, snapshot)
	payment.Approved = false

	_, err := f.mat.Materialize(context.Background(), payment)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
