// Package softdelete holds the rule that hides soft-deleted rows from every
// repository read and the transactional cascade that marks them.
package softdelete

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
)

// Column is the soft-delete marker shared by every table.
const Column = "deleted_at"

// Options tunes a scoped query.
type Options struct {
	// WithDeleted disables the implicit live-only condition.
	WithDeleted bool
}

// Clause is one caller-supplied condition.
type Clause struct {
	Query string
	Args  []any
}

// Filter is the ordered list of conditions a repository applies.
type Filter []Clause

// Where builds a free-form clause.
func Where(query string, args ...any) Clause {
	return Clause{Query: query, Args: args}
}

// Eq builds "column = ?".
func Eq(column string, value any) Clause {
	return Clause{Query: column + " = ?", Args: []any{value}}
}

// ReferencesMarker reports whether any clause mentions the marker column of
// table, either qualified ("inventory.deleted_at") or bare ("deleted_at").
func (f Filter) ReferencesMarker(table string) bool {
	re := markerPattern(table)
	for _, c := range f {
		if re.MatchString(c.Query) {
			return true
		}
	}
	return false
}

func markerPattern(table string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\w.])(` + regexp.QuoteMeta(table) + `\.)?` + Column + `\b`)
}

// LiveCondition is the "not deleted" predicate for table.
func LiveCondition(table string) string {
	return fmt.Sprintf("%s.%s IS NULL", table, Column)
}

// Scope applies filter to the root table and, unless opts.WithDeleted is set
// or the filter already constrains the marker, prepends the live condition.
func Scope(table string, filter Filter, opts Options) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !opts.WithDeleted && !filter.ReferencesMarker(table) {
			db = db.Where(LiveCondition(table))
		}
		for _, c := range filter {
			db = db.Where(c.Query, c.Args...)
		}
		return db
	}
}

// LiveJoin renders an inner join that only matches live rows of table.
//
//	LiveJoin("stores", "stores.id = inventory.store_id")
//	=> JOIN stores ON stores.id = inventory.store_id AND stores.deleted_at IS NULL
func LiveJoin(table, on string) string {
	return fmt.Sprintf("JOIN %s ON %s AND %s", table, on, LiveCondition(table))
}

// Dependent names a child table whose rows follow a parent into deletion.
type Dependent struct {
	Table      string
	ForeignKey string
}

// MarkDeleted stamps the live parent row and every live dependent row with
// the same timestamp. It must run inside the caller's transaction. The
// returned count covers the parent only; zero means there was no live row
// and no dependents were touched.
func MarkDeleted(tx *gorm.DB, table string, id any, at time.Time, deps ...Dependent) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	stamp := map[string]any{Column: at, "updated_at": at}

	res := tx.Table(table).
		Where("id = ?", id).
		Where(Column + " IS NULL").
		Updates(stamp)
	if res.Error != nil {
		return 0, fmt.Errorf("mark %s deleted: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}

	for _, dep := range deps {
		err := tx.Table(dep.Table).
			Where(dep.ForeignKey+" = ?", id).
			Where(Column + " IS NULL").
			Updates(stamp).Error
		if err != nil {
			return 0, fmt.Errorf("cascade %s to %s: %w", table, dep.Table, err)
		}
	}
	return res.RowsAffected, nil
}
