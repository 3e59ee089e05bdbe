package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/api/responses"
	"github.com/ridersroast/motocafe-backend/api/validators"
	"github.com/ridersroast/motocafe-backend/internal/orders"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return id, nil
}

// AdminListOrders returns a keyset page of orders, newest first.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ListInput{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			input.Status = &status
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminGetOrder returns one order with its line items.
func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminUpdateOrderStatus moves an order through its fulfilment states.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, enums.OrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminDeleteOrder removes an order and its line items.
func AdminDeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

type manualOrderLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	SizeID    *uuid.UUID `json:"size_id,omitempty"`
	Qty       int        `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	Lines             []manualOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
	DeliveryOptionID  *uuid.UUID               `json:"delivery_option_id,omitempty"`
	Provider          string                   `json:"provider" validate:"required"`
	ExternalPaymentID string                   `json:"external_payment_id" validate:"required"`
	PayerName         string                   `json:"payer_name" validate:"required"`
	PayerEmail        string                   `json:"payer_email" validate:"required,email"`
	PayerPhone        string                   `json:"payer_phone,omitempty"`
	PayerAddress      string                   `json:"payer_address,omitempty"`
	PayerPostalCode   string                   `json:"payer_postal_code,omitempty"`
}

func (req createOrderRequest) toInput() orders.CreateOrderInput {
	input := orders.CreateOrderInput{
		DeliveryOptionID:  req.DeliveryOptionID,
		Provider:          enums.PaymentProvider(req.Provider),
		ExternalPaymentID: validators.SanitizeString(req.ExternalPaymentID, 120),
		PayerName:         validators.SanitizeString(req.PayerName, 120),
		PayerEmail:        validators.SanitizeString(req.PayerEmail, 254),
		PayerPhone:        validators.SanitizeString(req.PayerPhone, 30),
		PayerAddress:      validators.SanitizeString(req.PayerAddress, 300),
		PayerPostalCode:   validators.SanitizeString(req.PayerPostalCode, 16),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, orders.ManualOrderLine{
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Qty:       line.Qty,
		})
	}
	return input
}

// AdminCreateOrder records an order taken outside the hosted checkout flow,
// for example a phone order settled on a card terminal.
func AdminCreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
