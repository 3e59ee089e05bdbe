package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
)

// SizeDTO is the API shape of a product size row.
type SizeDTO struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	StockQty int       `json:"stock_qty"`
}

// ProductDTO is the API shape of a catalog product.
type ProductDTO struct {
	ID          uuid.UUID  `json:"id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	PriceCents  int        `json:"price_cents"`
	Active      bool       `json:"active"`
	StockQty    int        `json:"stock_qty"`
	Sizes       []SizeDTO  `json:"sizes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeliveryOptionDTO is the API shape of a delivery option.
type DeliveryOptionDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	FeeCents int       `json:"fee_cents"`
	Active   bool      `json:"active"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	CategoryID  *uuid.UUID
	Name        string
	Description string
	PriceCents  int
	Active      bool
	StockQty    int
	Sizes       []SizeInput
}

// SizeInput defines one size row with its starting stock.
type SizeInput struct {
	Label    string
	StockQty int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	PriceCents  *int
	Active      *bool
	StockQty    *int
	Sizes       *[]SizeInput
}

// ReplenishStockInput adds stock to a product or one of its sizes.
type ReplenishStockInput struct {
	ProductID uuid.UUID
	SizeID    *uuid.UUID
	Qty       int
}

func toProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Active:      p.Active,
		StockQty:    p.StockQty,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, size := range p.Sizes {
		dto.Sizes = append(dto.Sizes, SizeDTO{
			ID:       size.ID,
			Label:    size.Label,
			StockQty: size.StockQty,
		})
	}
	return dto
}

func toDeliveryOptionDTO(opt *models.DeliveryOption) *DeliveryOptionDTO {
	if opt == nil {
		return nil
	}
	return &DeliveryOptionDTO{
		ID:       opt.ID,
		Name:     opt.Name,
		FeeCents: opt.FeeCents,
		Active:   opt.Active,
	}
}
