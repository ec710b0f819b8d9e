package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidTextRep      = "22P02"
)

var (
	pgKeyDetailRe     = regexp.MustCompile(`Key \((.+?)\)=\((.*?)\) already exists`)
	sqliteUniqueRe    = regexp.MustCompile(`UNIQUE constraint failed: ([\w.]+(?:, [\w.]+)*)`)
	sqliteCheckPrefix = "CHECK constraint failed"
)

// FromDatastore maps driver and ORM failures onto the API taxonomy. Errors that
// already carry a code pass through untouched; anything unrecognised becomes
// CodeInternal.
func FromDatastore(err error) error {
	if err == nil {
		return nil
	}
	if typed := As(err); typed != nil {
		return typed
	}

	if stdErrors.Is(err, context.DeadlineExceeded) || stdErrors.Is(err, context.Canceled) {
		return Wrap(CodeTimeout, err, "request timed out")
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(CodeNotFound, err, "resource not found")
	}
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return Wrap(CodeConflict, err, "duplicate key")
	}

	if code, detail, constraint, ok := pgDetails(err); ok {
		switch code {
		case pgUniqueViolation:
			return Wrap(CodeConflict, err, duplicateMessage(detail, constraint))
		case pgCheckViolation:
			return Wrap(CodeValidation, err, fmt.Sprintf("Validation failed: %s", constraint))
		case pgForeignKeyViolation:
			return Wrap(CodeValidation, err, "Validation failed: referenced record does not exist")
		case pgInvalidTextRep:
			return Wrap(CodeInvalidID, err, "Invalid identifier value")
		}
	}

	msg := err.Error()
	if m := sqliteUniqueRe.FindStringSubmatch(msg); m != nil {
		return Wrap(CodeConflict, err, fmt.Sprintf("%s already exists", columnList(m[1])))
	}
	if strings.Contains(msg, sqliteCheckPrefix) {
		return Wrap(CodeValidation, err, "Validation failed: "+strings.TrimSpace(strings.TrimPrefix(msg, sqliteCheckPrefix+":")))
	}

	return Wrap(CodeInternal, err, "unexpected datastore error")
}

// IsUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if code, _, _, ok := pgDetails(err); ok {
		return code == pgUniqueViolation
	}
	return sqliteUniqueRe.MatchString(err.Error())
}

func pgDetails(err error) (code, detail, constraint string, ok bool) {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.Detail, pgxErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Detail, pqErr.Constraint, true
	}
	return "", "", "", false
}

func duplicateMessage(detail, constraint string) string {
	if m := pgKeyDetailRe.FindStringSubmatch(detail); m != nil {
		return fmt.Sprintf("%s %q already exists", m[1], m[2])
	}
	if constraint != "" {
		return fmt.Sprintf("duplicate value violates %s", constraint)
	}
	return "duplicate key"
}

// columnList turns "products.sku" or "inventory.store_id, inventory.product_id"
// into "sku" / "store_id, product_id".
func columnList(raw string) string {
	parts := strings.Split(raw, ",")
	cols := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if idx := strings.LastIndex(part, "."); idx >= 0 {
			part = part[idx+1:]
		}
		cols = append(cols, part)
	}
	return strings.Join(cols, ", ")
}
