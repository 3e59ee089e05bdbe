package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
)

// LineItemDTO is the API shape of one order line.
type LineItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	SizeID         *uuid.UUID `json:"size_id,omitempty"`
	Name           string     `json:"name"`
	SizeLabel      *string    `json:"size_label,omitempty"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID                int64                 `json:"id"`
	Status            enums.OrderStatus     `json:"status"`
	Paid              bool                  `json:"paid"`
	Provider          enums.PaymentProvider `json:"provider"`
	ExternalPaymentID string                `json:"external_payment_id"`
	DeliveryOptionID  *uuid.UUID            `json:"delivery_option_id,omitempty"`
	TotalCents        int                   `json:"total_cents"`
	DeliveryFeeCents  int                   `json:"delivery_fee_cents"`
	PayerName         string                `json:"payer_name"`
	PayerEmail        string                `json:"payer_email"`
	PayerPhone        string                `json:"payer_phone,omitempty"`
	PayerAddress      string                `json:"payer_address,omitempty"`
	PayerPostalCode   string                `json:"payer_postal_code,omitempty"`
	Items             []LineItemDTO         `json:"items"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ListInput selects a page of orders.
type ListInput struct {
	Cursor string
	Limit  int
	Status *enums.OrderStatus
}

// ListResult is one page plus the cursor for the next one.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// CreateOrderInput is the manual order-entry payload. It runs through the
// same catalog checks as webhook materialization.
type CreateOrderInput struct {
	Lines             []ManualOrderLine     `json:"lines"`
	DeliveryOptionID  *uuid.UUID            `json:"delivery_option_id,omitempty"`
	Provider          enums.PaymentProvider `json:"provider"`
	ExternalPaymentID string                `json:"external_payment_id"`
	PayerName         string                `json:"payer_name"`
	PayerEmail        string                `json:"payer_email"`
	PayerPhone        string                `json:"payer_phone,omitempty"`
	PayerAddress      string                `json:"payer_address,omitempty"`
	PayerPostalCode   string                `json:"payer_postal_code,omitempty"`
}

// ManualOrderLine is one requested line of a manual order.
type ManualOrderLine struct {
	ProductID uuid.UUID  `json:"product_id"`
	SizeID    *uuid.UUID `json:"size_id,omitempty"`
	Qty       int        `json:"qty"`
}

func toLineItemDTO(item models.OrderLineItem) LineItemDTO {
	return LineItemDTO{
		ID:             item.ID,
		ProductID:      item.ProductID,
		SizeID:         item.SizeID,
		Name:           item.Name,
		SizeLabel:      item.SizeLabel,
		Qty:            item.Qty,
		UnitPriceCents: item.UnitPriceCents,
		TotalCents:     item.TotalCents,
	}
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                order.ID,
		Status:            order.Status,
		Paid:              order.Paid,
		Provider:          order.Provider,
		ExternalPaymentID: order.ExternalPaymentID,
		DeliveryOptionID:  order.DeliveryOptionID,
		TotalCents:        order.TotalCents,
		DeliveryFeeCents:  order.DeliveryFeeCents,
		PayerName:         order.PayerName,
		PayerEmail:        order.PayerEmail,
		PayerPhone:        order.PayerPhone,
		PayerAddress:      order.PayerAddress,
		PayerPostalCode:   order.PayerPostalCode,
		Items:             make([]LineItemDTO, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, toLineItemDTO(item))
	}
	return dto
}
