package checkout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

// CartLine is one intent line from the client. Only the product, size and
// quantity are trusted; prices come from the catalog.
type CartLine struct {
	ProductID uuid.UUID  `json:"product_id"`
	SizeID    *uuid.UUID `json:"size_id,omitempty"`
	Qty       int        `json:"qty"`
}

// ShippingForm is the buyer contact block collected on the checkout page.
type ShippingForm struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Email      string `json:"email"`
}

// CheckoutInput is everything the session builder needs from the client.
type CheckoutInput struct {
	Lines            []CartLine
	Shipping         ShippingForm
	DeliveryOptionID uuid.UUID
	Provider         enums.PaymentProvider
}

// ResolvedLine is a cart line after catalog lookup, carrying the
// authoritative unit price and display name.
type ResolvedLine struct {
	ProductID      uuid.UUID
	SizeID         *uuid.UUID
	Name           string
	SizeLabel      string
	Qty            int
	UnitPriceCents int
}

// SubtotalCents sums line totals before shipping.
func subtotalCents(lines []ResolvedLine) int {
	total := 0
	for _, line := range lines {
		total += line.UnitPriceCents * line.Qty
	}
	return total
}

func validateInput(input CheckoutInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart line product id required")
		}
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}
	}
	if err := validateShipping(input.Shipping); err != nil {
		return err
	}
	if input.DeliveryOptionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery option required")
	}
	if !input.Provider.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	return nil
}

func validateShipping(form ShippingForm) error {
	missing := []string{}
	if strings.TrimSpace(form.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(form.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(form.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(form.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(form.Email) == "" || !strings.Contains(form.Email, "@") {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping form incomplete: "+strings.Join(missing, ", "))
	}
	return nil
}
