package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

// StockAdjuster applies guarded stock movements. Decrements run inside the
// caller's transaction; the WHERE clause floor check is what keeps stock from
// going negative under concurrent materializations.
type StockAdjuster struct{}

// NewStockAdjuster builds the adjuster.
func NewStockAdjuster() *StockAdjuster {
	return &StockAdjuster{}
}

// DecrementProduct subtracts qty from a product's own stock counter. Zero
// rows affected means the floor check failed (or the product is gone) and the
// caller must roll back.
func (a *StockAdjuster) DecrementProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	result := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", productID, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("product %s has insufficient stock for qty %d", productID, qty))
	}
	return nil
}

// DecrementSize subtracts qty from a size row's stock counter.
func (a *StockAdjuster) DecrementSize(ctx context.Context, tx *gorm.DB, sizeID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	result := tx.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("id = ? AND stock_qty >= ?", sizeID, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("size %s has insufficient stock for qty %d", sizeID, qty))
	}
	return nil
}

// ReplenishProduct adds qty to a product's stock counter.
func (a *StockAdjuster) ReplenishProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	result := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// ReplenishSize adds qty to a size row's stock counter.
func (a *StockAdjuster) ReplenishSize(ctx context.Context, tx *gorm.DB, sizeID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	result := tx.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("id = ?", sizeID).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "size not found")
	}
	return nil
}
