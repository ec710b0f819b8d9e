package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tiny-inventory/api/responses"
	"github.com/angelmondragon/tiny-inventory/api/validators"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

// Text lengths are checked by the service once the values are trimmed.
type productCreateRequest struct {
	SKU      string           `json:"sku" validate:"required"`
	Name     string           `json:"name" validate:"required"`
	Category string           `json:"category" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
}

type productUpdateRequest struct {
	SKU      *string          `json:"sku,omitempty" validate:"omitempty,min=1"`
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Category *string          `json:"category,omitempty" validate:"omitempty,min=1"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

func productServiceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable")
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, productServiceUnavailable())
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Products fetched", list)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, productServiceUnavailable())
			return
		}
		product, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product fetched", product)
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, productServiceUnavailable())
			return
		}
		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), products.CreateProductInput{
			SKU:      payload.SKU,
			Name:     payload.Name,
			Category: payload.Category,
			Price:    *payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Product created", product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, productServiceUnavailable())
			return
		}
		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), chi.URLParam(r, "id"), products.UpdateProductInput{
			SKU:      payload.SKU,
			Name:     payload.Name,
			Category: payload.Category,
			Price:    payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product updated", product)
	}
}

// ProductDelete soft-deletes the product and removes it from every store.
func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, productServiceUnavailable())
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(ctx, chi.URLParam(r, "id"))
		}
		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product deleted", nil)
	}
}
