package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/api/responses"
	"github.com/ridersroast/motocafe-backend/api/validators"
	"github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	SizeID    *uuid.UUID `json:"size_id,omitempty"`
	Qty       int        `json:"qty" validate:"required,min=1"`
}

type shippingRequest struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

type checkoutSessionRequest struct {
	Lines            []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
	Shipping         shippingRequest   `json:"shipping" validate:"required"`
	DeliveryOptionID uuid.UUID         `json:"delivery_option_id" validate:"required"`
	Provider         string            `json:"provider" validate:"required"`
}

func (req checkoutSessionRequest) toInput() checkout.CheckoutInput {
	input := checkout.CheckoutInput{
		Shipping: checkout.ShippingForm{
			Name:       validators.SanitizeString(req.Shipping.Name, 120),
			Address:    validators.SanitizeString(req.Shipping.Address, 300),
			Phone:      validators.SanitizeString(req.Shipping.Phone, 30),
			PostalCode: validators.SanitizeString(req.Shipping.PostalCode, 16),
			Email:      validators.SanitizeString(req.Shipping.Email, 254),
		},
		DeliveryOptionID: req.DeliveryOptionID,
		Provider:         enums.PaymentProvider(req.Provider),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, checkout.CartLine{
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Qty:       line.Qty,
		})
	}
	return input
}

// CreateCheckoutSession builds a hosted checkout session for the cart and
// returns the provider redirect URL. Nothing is persisted locally here.
func CreateCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
