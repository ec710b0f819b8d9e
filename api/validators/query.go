package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePage reads "page", defaulting to 1. Values outside [1, MaxPage] are
// rejected.
func ParsePage(r *http.Request) (int, error) {
	return ParseQueryInt(r, "page", 1, 1, pagination.MaxPage)
}

// ParseLimit reads "limit". Missing, malformed or out-of-range values fall
// back to the page size default instead of failing.
func ParseLimit(r *http.Request) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil {
		return pagination.DefaultLimit
	}
	return pagination.NormalizeLimit(value)
}

// ParseQueryDecimal reads a non-negative decimal. A missing key yields nil.
func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": 0})
	}
	return &value, nil
}

// ParseQueryBool is true only for the literal "true" (any case).
func ParseQueryBool(r *http.Request, key string) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get(key)), "true")
}

// QueryString returns the trimmed value of key.
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
