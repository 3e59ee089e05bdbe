package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Sized products (jackets, gloves) keep stock per
// ProductSize row; unsized ones (coffee bags, mugs) use StockQty directly.
type Product struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  *uuid.UUID    `gorm:"column:category_id;type:uuid"`
	Name        string        `gorm:"column:name;not null"`
	Description string        `gorm:"column:description"`
	PriceCents  int           `gorm:"column:price_cents;not null"`
	Active      bool          `gorm:"column:active;not null;default:true"`
	StockQty    int           `gorm:"column:stock_qty;not null;default:0"`
	Sizes       []ProductSize `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// HasSizes reports whether stock for this product lives on size rows.
func (p *Product) HasSizes() bool {
	return len(p.Sizes) > 0
}
