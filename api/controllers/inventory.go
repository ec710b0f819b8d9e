package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tiny-inventory/api/responses"
	"github.com/angelmondragon/tiny-inventory/api/validators"
	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

type inventoryUpdateRequest struct {
	Quantity          *int `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	LowStockThreshold *int `json:"lowStockThreshold,omitempty" validate:"omitempty,gte=0"`
}

func inventoryServiceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable")
}

// InventoryList serves the paginated join view.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, inventoryServiceUnavailable())
			return
		}
		input, err := parseInventoryQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Inventory fetched", res.Items, res.Pagination)
	}
}

func parseInventoryQuery(r *http.Request) (inventory.ListInput, error) {
	input := inventory.ListInput{
		StoreID:      validators.QueryString(r, "storeId"),
		Search:       validators.QueryString(r, "search"),
		Category:     validators.QueryString(r, "category"),
		LowStockOnly: validators.ParseQueryBool(r, "lowStockOnly"),
		Sort:         validators.QueryString(r, "sort"),
		Limit:        validators.ParseLimit(r),
	}
	var err error
	if input.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice"); err != nil {
		return inventory.ListInput{}, err
	}
	if input.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice"); err != nil {
		return inventory.ListInput{}, err
	}
	if input.Page, err = validators.ParsePage(r); err != nil {
		return inventory.ListInput{}, err
	}
	return input, nil
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, inventoryServiceUnavailable())
			return
		}
		item, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Inventory item fetched", item)
	}
}

// StoreMetrics returns the stock totals for one store.
func StoreMetrics(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, inventoryServiceUnavailable())
			return
		}
		metrics, err := svc.StoreMetrics(r.Context(), chi.URLParam(r, "storeIdOrSlug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Store metrics fetched", metrics)
	}
}

// InventoryUpsert sets quantity and/or threshold for a product in a store,
// creating or reactivating the row as needed.
func InventoryUpsert(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, inventoryServiceUnavailable())
			return
		}
		var payload inventoryUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := inventoryLogContext(r, logg)
		item, err := svc.Upsert(ctx, chi.URLParam(r, "storeIdOrSlug"), chi.URLParam(r, "productId"), inventory.UpsertInput{
			Quantity:          payload.Quantity,
			LowStockThreshold: payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Inventory updated", item)
	}
}

// InventoryRemove takes a product off a store's shelf.
func InventoryRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, inventoryServiceUnavailable())
			return
		}
		ctx := inventoryLogContext(r, logg)
		if err := svc.Remove(ctx, chi.URLParam(r, "storeIdOrSlug"), chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Inventory item removed", nil)
	}
}

func inventoryLogContext(r *http.Request, logg *logger.Logger) context.Context {
	ctx := r.Context()
	if logg == nil {
		return ctx
	}
	return logg.WithInventoryItem(ctx, chi.URLParam(r, "storeIdOrSlug"), chi.URLParam(r, "productId"))
}
