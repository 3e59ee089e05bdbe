package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSize carries the per-size stock counter for sized products.
type ProductSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_sizes_product_label"`
	Label     string    `gorm:"column:label;not null;uniqueIndex:ux_product_sizes_product_label"`
	StockQty  int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
