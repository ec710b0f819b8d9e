package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tiny-inventory/api/responses"
	"github.com/angelmondragon/tiny-inventory/api/validators"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

// Name and slug lengths are enforced by the service after trimming.
type storeCreateRequest struct {
	Name string  `json:"name" validate:"required"`
	Slug *string `json:"slug,omitempty" validate:"omitempty,min=1"`
}

type storeUpdateRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Slug *string `json:"slug,omitempty" validate:"omitempty,min=1"`
}

func storeServiceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable")
}

// StoreList returns live stores with their live product counts.
func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, storeServiceUnavailable())
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Stores fetched", list)
	}
}

// StoreGet resolves {id} as a UUID or a slug.
func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, storeServiceUnavailable())
			return
		}
		store, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Store fetched", store)
	}
}

func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, storeServiceUnavailable())
			return
		}
		var payload storeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := stores.CreateStoreInput{Name: payload.Name}
		if payload.Slug != nil {
			input.Slug = *payload.Slug
		}
		store, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Store created", store)
	}
}

func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, storeServiceUnavailable())
			return
		}
		var payload storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, chi.URLParam(r, "id"))
		}
		store, err := svc.Update(ctx, chi.URLParam(r, "id"), stores.UpdateStoreInput{Name: payload.Name, Slug: payload.Slug})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Store updated", store)
	}
}

// StoreDelete soft-deletes the store together with its inventory.
func StoreDelete(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, storeServiceUnavailable())
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, chi.URLParam(r, "id"))
		}
		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(ctx, "store.deleted")
		}
		responses.WriteSuccess(w, "Store deleted", nil)
	}
}
