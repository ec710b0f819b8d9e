package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeInvalidID, status: http.StatusBadRequest, publicMsg: "invalid identifier"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	if got := NotFound("Store").Message(); got != "Store not found" {
		t.Fatalf("unexpected not found message %q", got)
	}
	if got := InvalidID("product"); got.Code() != CodeInvalidID || got.Message() != "Invalid product ID" {
		t.Fatalf("unexpected invalid id error %v", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "gone"))
	typed := As(err)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed not found, got %v", typed)
	}
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected IsCode to match")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("expected nil for untyped error")
	}
}

func TestFromDatastore(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, code: CodeNotFound},
		{name: "gorm duplicate", err: gorm.ErrDuplicatedKey, code: CodeConflict},
		{
			name:    "pgx unique",
			err:     fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Detail: "Key (sku)=(TEST-SKU) already exists."}),
			code:    CodeConflict,
			message: `sku "TEST-SKU" already exists`,
		},
		{
			name:    "pq unique without detail",
			err:     &pq.Error{Code: "23505", Constraint: "idx_inventory_store_product"},
			code:    CodeConflict,
			message: "duplicate value violates idx_inventory_store_product",
		},
		{name: "pgx check", err: &pgconn.PgError{Code: "23514", ConstraintName: "chk_inventory_quantity"}, code: CodeValidation},
		{name: "pgx invalid text", err: &pgconn.PgError{Code: "22P02"}, code: CodeInvalidID},
		{
			name:    "sqlite unique",
			err:     stdErrors.New("UNIQUE constraint failed: inventory.store_id, inventory.product_id"),
			code:    CodeConflict,
			message: "store_id, product_id already exists",
		},
		{name: "sqlite check", err: stdErrors.New("CHECK constraint failed: chk_products_price"), code: CodeValidation},
		{name: "deadline", err: context.DeadlineExceeded, code: CodeTimeout},
		{name: "unknown", err: stdErrors.New("connection reset"), code: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typed := As(FromDatastore(tt.err))
			if typed == nil {
				t.Fatalf("expected typed error")
			}
			if typed.Code() != tt.code {
				t.Fatalf("expected code %s got %s", tt.code, typed.Code())
			}
			if tt.message != "" && typed.Message() != tt.message {
				t.Fatalf("expected message %q got %q", tt.message, typed.Message())
			}
		})
	}
}

func TestFromDatastorePassesTypedErrorsThrough(t *testing.T) {
	orig := New(CodeValidation, "bad")
	if got := FromDatastore(orig); got != orig {
		t.Fatalf("expected typed error to pass through")
	}
	if FromDatastore(nil) != nil {
		t.Fatalf("expected nil for nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected pgx unique violation")
	}
	if !IsUniqueViolation(stdErrors.New("UNIQUE constraint failed: products.sku")) {
		t.Fatalf("expected sqlite unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23514"}) {
		t.Fatalf("check violation is not unique")
	}
}

func TestDumpCapturesDriverFields(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key", Detail: "dup"}, "create product")
	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "products_sku_key" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %v", d.Chain)
	}
	fields := d.Fields()
	if fields["pg_code"] != "23505" {
		t.Fatalf("expected pg_code in fields, got %v", fields)
	}
	if _, ok := fields["pg_table"]; ok {
		t.Fatalf("empty pg_table should be omitted")
	}
}
