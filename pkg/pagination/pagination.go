package pagination

import "math"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 25
	// MaxPage keeps (page-1)*limit inside int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta is echoed back with every paginated listing.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
// Out-of-range values fall back to the maximum rather than erroring.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns a copy with page held in [1, MaxPage] and the limit clamped.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows to skip for the current page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Pages is ceil(total/limit), never less than 1.
func Pages(total int64, limit int) int {
	limit = NormalizeLimit(limit)
	if total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// NewMeta builds the response block for a normalized request and total.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	return Meta{Page: n.Page, Limit: n.Limit, Total: total, Pages: Pages(total, n.Limit)}
}
