package orders

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  status TEXT NOT NULL DEFAULT 'pending',
  paid INTEGER NOT NULL DEFAULT 0,
  provider TEXT NOT NULL,
  external_payment_id TEXT NOT NULL UNIQUE,
  delivery_option_id TEXT,
  total_cents INTEGER NOT NULL,
  delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
  payer_name TEXT NOT NULL,
  payer_email TEXT NOT NULL,
  payer_phone TEXT,
  payer_address TEXT,
  payer_postal_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  size_id TEXT,
  name TEXT NOT NULL,
  size_label TEXT,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	productSizes := `
CREATE TABLE IF NOT EXISTS product_sizes (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, label)
);`
	deliveryOptions := `
CREATE TABLE IF NOT EXISTS delivery_options (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  fee_cents INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	outboxEvents := `
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
	for _, ddl := range []string{orders, lineItems, products, productSizes, deliveryOptions, outboxEvents} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"order_line_items", "orders", "product_sizes", "products", "delivery_options", "outbox_events"} {
			db.Exec("DELETE FROM " + table)
		}
	})
	return db
}

// gormTxRunner adapts a raw test DB to the transaction runner the services
// take in production.
type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
}

func mustCreateOrder(t *testing.T, db *gorm.DB, txid string, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		Status:            status,
		Paid:              true,
		Provider:          enums.PaymentProviderStripe,
		ExternalPaymentID: txid,
		TotalCents:        1000,
		PayerName:         "Ari Tester",
		PayerEmail:        "ari@example.com",
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	return order
}

func mustCreateLineItem(t *testing.T, db *gorm.DB, orderID int64, name string, qty, unitCents int) *models.OrderLineItem {
	t.Helper()
	item := &models.OrderLineItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		ProductID:      uuid.New(),
		Name:           name,
		Qty:            qty,
		UnitPriceCents: unitCents,
		TotalCents:     qty * unitCents,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestFindByExternalPaymentIDMissesCleanly(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := mustCreateOrder(t, db, "cs_find_1", enums.OrderStatusPaid, time.Now().UTC())

	got, err := repo.FindByExternalPaymentID(ctx, enums.PaymentProviderStripe, "cs_find_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.ID)

	// Same transaction id under the other provider is a different payment.
	got, err = repo.FindByExternalPaymentID(ctx, enums.PaymentProviderSquare, "cs_find_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindByExternalPaymentID(ctx, enums.PaymentProviderStripe, "cs_unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListKeysetPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustCreateOrder(t, db, fmt.Sprintf("cs_page_%d", i), enums.OrderStatusPaid, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(ctx, nil, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "cs_page_2", first[0].ExternalPaymentID)
	assert.Equal(t, "cs_page_1", first[1].ExternalPaymentID)

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.List(ctx, cursor, 2, nil)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "cs_page_0", second[0].ExternalPaymentID)
}

func TestListFiltersByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	mustCreateOrder(t, db, "cs_filter_paid", enums.OrderStatusPaid, now)
	mustCreateOrder(t, db, "cs_filter_shipped", enums.OrderStatusShipped, now.Add(time.Second))

	shipped := enums.OrderStatusShipped
	rows, err := repo.List(ctx, nil, 10, &shipped)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cs_filter_shipped", rows[0].ExternalPaymentID)
}

func TestUpdateStatusReportsMatch(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := mustCreateOrder(t, db, "cs_update_1", enums.OrderStatusPaid, time.Now().UTC())

	matched, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, matched)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, reloaded.Status)

	matched, err = repo.UpdateStatus(ctx, 99999, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestDeleteRemovesLineItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := mustCreateOrder(t, db, "cs_delete_1", enums.OrderStatusPaid, time.Now().UTC())
	mustCreateLineItem(t, db, order.ID, "House Blend 500g", 2, 1400)

	deleted, err := repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderLineItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.EqualValues(t, 0, itemCount)

	deleted, err = repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFindByIDPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := mustCreateOrder(t, db, "cs_load_1", enums.OrderStatusPaid, time.Now().UTC())
	mustCreateLineItem(t, db, order.ID, "House Blend 500g", 2, 1400)
	mustCreateLineItem(t, db, order.ID, "Ridgeline Jacket", 1, 18900)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = repo.FindByID(ctx, 99999)
	assert.True(t, IsNotFound(err))
}
