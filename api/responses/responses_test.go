package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/pagination"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, "Store created", map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Status != types.StatusSuccess || body.Message != "Store created" {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
	if body.Pagination != nil {
		t.Fatalf("pagination should be omitted")
	}
}

func TestWritePage(t *testing.T) {
	w := httptest.NewRecorder()
	WritePage(w, "Inventory fetched", []string{}, pagination.NewMeta(pagination.Params{Page: 1, Limit: 25}, 0))

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := raw["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("expected pagination block, got %v", raw)
	}
	if p["pages"].(float64) != 1 || p["total"].(float64) != 0 {
		t.Fatalf("unexpected pagination %v", p)
	}
	if _, ok := raw["data"].([]any); !ok {
		t.Fatalf("expected empty data array, got %v", raw["data"])
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(t.Context(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Status != types.StatusFail || body.Message != "bad input" {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if body.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Error == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorTranslatesDatastoreErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, gorm.ErrRecordNotFound)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	WriteError(t.Context(), nil, w, errors.New("UNIQUE constraint failed: products.sku"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Status != types.StatusError {
		t.Fatalf("expected error status, got %s", body.Status)
	}
	if body.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal details leaked: %q", body.Message)
	}
	if body.Error != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}
