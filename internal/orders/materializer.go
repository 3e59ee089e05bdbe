package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/internal/catalog"
	"github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/outbox"
	"github.com/ridersroast/motocafe-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	WithTx(tx *gorm.DB) *catalog.Repository
}

type stockAdjuster interface {
	DecrementProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	DecrementSize(ctx context.Context, tx *gorm.DB, sizeID uuid.UUID, qty int) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Materializer turns one verified payment into one durable order. Everything
// happens in a single transaction: order insert, line items, stock
// decrements and the order.paid outbox row. A transaction id that already
// materialized is a no-op success, which makes webhook replays harmless.
type Materializer struct {
	tx      txRunner
	repo    *Repository
	catalog catalogReader
	stock   stockAdjuster
	outbox  outboxEmitter
	logger  *logger.Logger
}

// NewMaterializer builds the materializer.
func NewMaterializer(tx txRunner, repo *Repository, catalogRepo catalogReader, stock stockAdjuster, emitter outboxEmitter, log *logger.Logger) (*Materializer, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Materializer{
		tx:      tx,
		repo:    repo,
		catalog: catalogRepo,
		stock:   stock,
		outbox:  emitter,
		logger:  log,
	}, nil
}

// Materialize persists the order for a verified payment and returns its id.
func (m *Materializer) Materialize(ctx context.Context, payment payments.VerifiedPayment) (int64, error) {
	if payment.TransactionID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if !payment.Approved {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "payment is not approved")
	}

	snapshot, err := checkout.ParseMetadata(payment.Metadata)
	if err != nil {
		return 0, err
	}

	ctx = m.logger.WithProvider(ctx, string(payment.Provider))
	ctx = m.logger.WithTransactionID(ctx, payment.TransactionID)

	var orderID int64
	err = m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		existing, err := repo.FindByExternalPaymentID(ctx, payment.Provider, payment.TransactionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up existing order")
		}
		if existing != nil {
			orderID = existing.ID
			m.logger.Info(ctx, "transaction already materialized, replay ignored")
			return nil
		}

		order, items, err := m.buildOrder(ctx, tx, payment, snapshot)
		if err != nil {
			return err
		}

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order line items")
		}

		for _, line := range snapshot.Lines {
			if line.SizeID != nil {
				err = m.stock.DecrementSize(ctx, tx, *line.SizeID, line.Qty)
			} else {
				err = m.stock.DecrementProduct(ctx, tx, line.ProductID, line.Qty)
			}
			if err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   fmt.Sprint(order.ID),
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				Provider:      payment.Provider,
				TransactionID: payment.TransactionID,
				TotalCents:    int64(order.TotalCents),
				Currency:      payment.Currency,
				PayerName:     order.PayerName,
				PayerEmail:    order.PayerEmail,
				PaidAt:        payment.PaidAt,
			},
			OccurredAt: time.Now().UTC(),
		}
		if err := m.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order.paid")
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// buildOrder re-resolves every line against the live catalog; the snapshot
// only decides what was bought, never what it costs.
func (m *Materializer) buildOrder(ctx context.Context, tx *gorm.DB, payment payments.VerifiedPayment, snapshot *checkout.CartSnapshot) (*models.Order, []models.OrderLineItem, error) {
	catalogRepo := m.catalog.WithTx(tx)

	ids := make([]uuid.UUID, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := catalogRepo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load snapshot products")
	}

	items := make([]models.OrderLineItem, 0, len(snapshot.Lines))
	subtotal := 0
	for _, line := range snapshot.Lines {
		if line.Qty <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot line quantity must be positive")
		}
		product, ok := products[line.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s no longer exists", line.ProductID))
		}

		item := models.OrderLineItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            line.Qty,
			UnitPriceCents: product.PriceCents,
			TotalCents:     product.PriceCents * line.Qty,
		}
		if line.SizeID != nil {
			size := sizeByID(product, *line.SizeID)
			if size == nil {
				return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q no longer has the purchased size", product.Name))
			}
			item.SizeID = &size.ID
			label := size.Label
			item.SizeLabel = &label
		}
		items = append(items, item)
		subtotal += item.TotalCents
	}

	feeCents := 0
	var deliveryRef *uuid.UUID
	if snapshot.DeliveryOptionID != uuid.Nil {
		option, err := catalogRepo.FindDeliveryOptionByID(ctx, snapshot.DeliveryOptionID)
		if err != nil {
			if catalog.IsNotFound(err) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot delivery option no longer exists")
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery option")
		}
		feeCents = option.FeeCents
		id := option.ID
		deliveryRef = &id
	}

	total := subtotal + feeCents
	if payment.AmountCents > 0 && payment.AmountCents != int64(total) {
		charged := decimal.NewFromInt(payment.AmountCents).Div(decimal.NewFromInt(100))
		expected := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(100))
		m.logger.Warn(m.logger.WithFields(ctx, map[string]any{
			"charged_amount":  charged.StringFixed(2),
			"expected_amount": expected.StringFixed(2),
		}), "charged amount differs from catalog total")
	}

	order := &models.Order{
		Status:            enums.OrderStatusPaid,
		Paid:              true,
		Provider:          payment.Provider,
		ExternalPaymentID: payment.TransactionID,
		DeliveryOptionID:  deliveryRef,
		TotalCents:        total,
		DeliveryFeeCents:  feeCents,
		PayerName:         firstNonEmpty(snapshot.Shipping.Name, payment.PayerName),
		PayerEmail:        firstNonEmpty(snapshot.Shipping.Email, payment.PayerEmail),
		PayerPhone:        snapshot.Shipping.Phone,
		PayerAddress:      snapshot.Shipping.Address,
		PayerPostalCode:   snapshot.Shipping.PostalCode,
	}
	return order, items, nil
}

func sizeByID(product *models.Product, sizeID uuid.UUID) *models.ProductSize {
	for i := range product.Sizes {
		if product.Sizes[i].ID == sizeID {
			return &product.Sizes[i]
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
