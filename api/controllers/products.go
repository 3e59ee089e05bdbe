package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/api/responses"
	"github.com/ridersroast/motocafe-backend/api/validators"
	"github.com/ridersroast/motocafe-backend/internal/catalog"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

// ListProducts returns the storefront catalog. Inactive products stay hidden.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context(), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// AdminListProducts returns the full catalog, inactive products included.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context(), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns a single product with its sizes.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListDeliveryOptions returns the active delivery options.
func ListDeliveryOptions(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		options, err := svc.ListDeliveryOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}

type sizeRequest struct {
	Label    string `json:"label" validate:"required"`
	StockQty int    `json:"stock_qty" validate:"min=0"`
}

type createProductRequest struct {
	CategoryID  *uuid.UUID    `json:"category_id,omitempty"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description,omitempty"`
	PriceCents  int           `json:"price_cents" validate:"required,min=1"`
	Active      *bool         `json:"active,omitempty"`
	StockQty    int           `json:"stock_qty" validate:"min=0"`
	Sizes       []sizeRequest `json:"sizes,omitempty" validate:"omitempty,dive"`
}

func (req createProductRequest) toInput() catalog.CreateProductInput {
	input := catalog.CreateProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Active:      true,
		StockQty:    req.StockQty,
	}
	if req.Active != nil {
		input.Active = *req.Active
	}
	for _, size := range req.Sizes {
		input.Sizes = append(input.Sizes, catalog.SizeInput{Label: size.Label, StockQty: size.StockQty})
	}
	return input
}

// AdminCreateProduct handles product creation from the back office.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	CategoryID  *uuid.UUID     `json:"category_id,omitempty"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	PriceCents  *int           `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	Active      *bool          `json:"active,omitempty"`
	StockQty    *int           `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	Sizes       *[]sizeRequest `json:"sizes,omitempty" validate:"omitempty,dive"`
}

func (req updateProductRequest) toInput() catalog.UpdateProductInput {
	input := catalog.UpdateProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Active:      req.Active,
		StockQty:    req.StockQty,
	}
	if req.Sizes != nil {
		sizes := make([]catalog.SizeInput, 0, len(*req.Sizes))
		for _, size := range *req.Sizes {
			sizes = append(sizes, catalog.SizeInput{Label: size.Label, StockQty: size.StockQty})
		}
		input.Sizes = &sizes
	}
	return input
}

// AdminUpdateProduct applies a partial update to a product.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type replenishStockRequest struct {
	SizeID *uuid.UUID `json:"size_id,omitempty"`
	Qty    int        `json:"qty" validate:"required,min=1"`
}

// AdminReplenishStock adds stock to a product or one of its sizes.
func AdminReplenishStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload replenishStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ReplenishStock(r.Context(), catalog.ReplenishStockInput{
			ProductID: id,
			SizeID:    payload.SizeID,
			Qty:       payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
