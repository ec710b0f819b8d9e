package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db    *gorm.DB
	table string
}

// NewBase constructs a Base repository backed by the provided GORM connection
// and rooted at table.
func NewBase(db *gorm.DB, table string) Base {
	return Base{db: db, table: table}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Table is the root table name.
func (b Base) Table() string {
	return b.table
}

// Scoped starts a query on the root table with the soft-delete rule applied.
func (b Base) Scoped(ctx context.Context, filter softdelete.Filter, opts softdelete.Options) *gorm.DB {
	return b.ScopedTx(b.DB(ctx), filter, opts)
}

// ScopedTx is Scoped against a caller-owned transaction.
func (b Base) ScopedTx(tx *gorm.DB, filter softdelete.Filter, opts softdelete.Options) *gorm.DB {
	return tx.Table(b.table).Scopes(softdelete.Scope(b.table, filter, opts))
}
