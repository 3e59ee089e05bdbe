package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/outbox"
	"github.com/ridersroast/motocafe-backend/pkg/outbox/payloads"
	"github.com/ridersroast/motocafe-backend/pkg/pagination"
)

// Service is the admin-facing order API.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id int64) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, id int64) error
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
}

type service struct {
	tx           txRunner
	repo         *Repository
	materializer *Materializer
	outbox       outboxEmitter
	logger       *logger.Logger
}

// NewService builds the admin order service.
func NewService(tx txRunner, repo *Repository, materializer *Materializer, emitter outboxEmitter, log *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if materializer == nil {
		return nil, fmt.Errorf("materializer required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:           tx,
		repo:         repo,
		materializer: materializer,
		outbox:       emitter,
		logger:       log,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.List(ctx, cursor, limit, input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	result := &ListResult{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		result.Orders = append(result.Orders, *toOrderDTO(&rows[i]))
	}
	if len(rows) == limit {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id int64) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return toOrderDTO(order), nil
}

// UpdateStatus sets one of the five status literals. The row stays untouched
// when the literal is unknown; the change event only fires when the status
// actually moved.
func (s *service) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("status must be one of %v", enums.OrderStatusValues()))
	}

	var updated *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		from := order.Status
		if from != status {
			if _, err := repo.UpdateStatus(ctx, id, status); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   fmt.Sprint(id),
				Data: payloads.OrderStatusChangedEvent{
					OrderID:    id,
					FromStatus: from,
					ToStatus:   status,
					ChangedAt:  time.Now().UTC(),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order.status_changed")
			}
		}

		order.Status = status
		updated = toOrderDTO(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		deleted, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   fmt.Sprint(id),
			Data: payloads.OrderDeletedEvent{
				OrderID:   id,
				DeletedAt: time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order.deleted")
		}
		return nil
	})
}

// Create is the manual order-entry path. It synthesizes the same snapshot a
// checkout session would carry and funnels it through the materializer, so
// catalog checks, stock decrements and outbox emission are identical to the
// webhook path.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	if !input.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if strings.TrimSpace(input.ExternalPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external payment id required")
	}
	if strings.TrimSpace(input.PayerName) == "" || strings.TrimSpace(input.PayerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer name and email required")
	}

	snapshot := checkout.CartSnapshot{
		Shipping: checkout.ShippingForm{
			Name:       input.PayerName,
			Address:    input.PayerAddress,
			Phone:      input.PayerPhone,
			PostalCode: input.PayerPostalCode,
			Email:      input.PayerEmail,
		},
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		snapshot.Lines = append(snapshot.Lines, checkout.SnapshotLine{
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Qty:       line.Qty,
		})
	}
	if input.DeliveryOptionID != nil {
		snapshot.DeliveryOptionID = *input.DeliveryOptionID
	}
	metadata, err := checkout.BuildMetadata(snapshot)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByExternalPaymentID(ctx, input.Provider, input.ExternalPaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up existing order")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "external payment id already used")
	}

	orderID, err := s.materializer.Materialize(ctx, payments.VerifiedPayment{
		Provider:      input.Provider,
		TransactionID: input.ExternalPaymentID,
		Approved:      true,
		Metadata:      metadata,
		PayerName:     input.PayerName,
		PayerEmail:    input.PayerEmail,
		PaidAt:        time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}
