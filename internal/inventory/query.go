package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
)

// Sort options accepted by the listing.
const (
	SortStore     = "store"
	SortName      = "name"
	SortCategory  = "category"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortStockAsc  = "stock-asc"
	SortStockDesc = "stock-desc"
)

var sortOrders = map[string][]string{
	SortStore:     {"stores.name ASC", "products.name ASC"},
	SortName:      {"products.name ASC", "stores.name ASC"},
	SortCategory:  {"products.category ASC", "products.name ASC"},
	SortPriceAsc:  {"products.price ASC", "products.name ASC"},
	SortPriceDesc: {"products.price DESC", "products.name ASC"},
	SortStockAsc:  {"inventory.quantity ASC", "products.name ASC"},
	SortStockDesc: {"inventory.quantity DESC", "products.name ASC"},
}

// ValidSort reports whether sort is empty or a known option.
func ValidSort(sort string) bool {
	if sort == "" {
		return true
	}
	_, ok := sortOrders[sort]
	return ok
}

const itemColumns = `inventory.id, inventory.store_id, inventory.product_id,
inventory.quantity, inventory.low_stock_threshold, inventory.created_at, inventory.updated_at,
stores.name AS store_name, stores.slug AS store_slug,
products.sku AS product_sku, products.name AS product_name, products.category AS product_category,
products.price AS product_price, products.created_at AS product_created_at, products.updated_at AS product_updated_at`

// lowStockCondition treats a missing threshold as the default.
var lowStockCondition = fmt.Sprintf("inventory.quantity < COALESCE(inventory.low_stock_threshold, %d)", models.DefaultLowStockThreshold)

// listQuery is the validated, typed form of ListInput.
type listQuery struct {
	StoreID      *uuid.UUID
	Search       string
	Category     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	LowStockOnly bool
	Sort         string
	Limit        int
	Offset       int
}

// searchMatches holds the id sets found by the two sub-searches.
type searchMatches struct {
	ProductIDs []uuid.UUID
	StoreIDs   []uuid.UUID
}

func (m searchMatches) empty() bool {
	return len(m.ProductIDs) == 0 && len(m.StoreIDs) == 0
}

// filter translates the query into inventory-level clauses. Product and
// store conditions ride on the live joins.
func (q listQuery) filter(matches *searchMatches) softdelete.Filter {
	var f softdelete.Filter
	if q.StoreID != nil {
		f = append(f, softdelete.Eq("inventory.store_id", *q.StoreID))
	}
	if matches != nil {
		switch {
		case len(matches.ProductIDs) > 0 && len(matches.StoreIDs) > 0:
			f = append(f, softdelete.Where("(inventory.product_id IN ? OR inventory.store_id IN ?)", matches.ProductIDs, matches.StoreIDs))
		case len(matches.ProductIDs) > 0:
			f = append(f, softdelete.Where("inventory.product_id IN ?", matches.ProductIDs))
		default:
			f = append(f, softdelete.Where("inventory.store_id IN ?", matches.StoreIDs))
		}
	}
	if q.Category != "" {
		f = append(f, softdelete.Eq("products.category", q.Category))
	}
	if q.MinPrice != nil {
		f = append(f, softdelete.Where("products.price >= ?", *q.MinPrice))
	}
	if q.MaxPrice != nil {
		f = append(f, softdelete.Where("products.price <= ?", *q.MaxPrice))
	}
	if q.LowStockOnly {
		f = append(f, softdelete.Where(lowStockCondition))
	}
	return f
}

func applySort(db *gorm.DB, sort string) *gorm.DB {
	orders, ok := sortOrders[sort]
	if !ok {
		orders = sortOrders[SortStore]
	}
	for _, o := range orders {
		db = db.Order(o)
	}
	return db.Order("inventory.id ASC")
}

// escapeLike escapes LIKE metacharacters for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// productSearchColumns are the product fields a search token is matched
// against.
var productSearchColumns = []string{"products.sku", "products.name", "products.category"}

// productSearchClause matches any whitespace token against the start of a
// word in sku, name or category, or the whole term against the SKU exactly.
// Hyphens count as word breaks, so "001" finds "ELC-001" but "phone" does not
// find "Headphones".
func productSearchClause(term string) softdelete.Clause {
	var (
		parts []string
		args  []any
	)
	for _, token := range strings.Fields(strings.ToLower(term)) {
		like := "% " + escapeLike(strings.ReplaceAll(token, "-", " ")) + "%"
		for _, col := range productSearchColumns {
			parts = append(parts, fmt.Sprintf(`(' ' || REPLACE(LOWER(%s), '-', ' ')) LIKE ? ESCAPE '\'`, col))
			args = append(args, like)
		}
	}
	parts = append(parts, "products.sku = ?")
	args = append(args, strings.ToUpper(term))
	return softdelete.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// storeSearchClause is a case-insensitive substring match on the store name.
func storeSearchClause(term string) softdelete.Clause {
	return softdelete.Where(`LOWER(stores.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(term))+"%")
}
