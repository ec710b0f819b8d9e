package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/pagination"
)

const (
	maxSearchLength   = 100
	maxCategoryLength = 50
)

type inventoryRepository interface {
	List(ctx context.Context, q listQuery) ([]itemRow, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*itemRow, error)
	Metrics(ctx context.Context, storeID uuid.UUID) (MetricsDTO, error)
	Upsert(ctx context.Context, storeID, productID uuid.UUID, input UpsertInput) (*itemRow, error)
	RemoveFromStore(ctx context.Context, storeID, productID uuid.UUID) error
}

// storeResolver finds a live store by id or slug.
type storeResolver interface {
	Resolve(ctx context.Context, idOrSlug string) (*models.Store, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID, opts softdelete.Options) (*models.Product, error)
}

type metricsCache interface {
	Get(ctx context.Context, storeID uuid.UUID) (MetricsDTO, MetricsVersion, bool)
	Set(ctx context.Context, storeID uuid.UUID, version MetricsVersion, metrics MetricsDTO)
	InvalidateStore(ctx context.Context, storeID uuid.UUID)
}

// Service exposes the inventory view and the per-store stock operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id string) (*ItemDTO, error)
	StoreMetrics(ctx context.Context, storeIDOrSlug string) (*MetricsDTO, error)
	Upsert(ctx context.Context, storeIDOrSlug, productID string, input UpsertInput) (*ItemDTO, error)
	Remove(ctx context.Context, storeIDOrSlug, productID string) error
}

type service struct {
	repo     inventoryRepository
	stores   storeResolver
	products productFinder
	cache    metricsCache
}

// NewService builds the inventory service. cache may be nil.
func NewService(repo inventoryRepository, stores storeResolver, products productFinder, cache metricsCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store resolver required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, stores: stores, products: products, cache: cache}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	q, err := buildListQuery(input)
	if err != nil {
		return nil, err
	}
	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()
	q.Limit = params.Limit
	q.Offset = params.Offset()

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDTO())
	}
	return &ListResult{Items: items, Pagination: pagination.NewMeta(params, total)}, nil
}

// buildListQuery checks the free-form filters and converts ids.
func buildListQuery(input ListInput) (listQuery, error) {
	q := listQuery{
		Search:       strings.TrimSpace(input.Search),
		Category:     strings.TrimSpace(input.Category),
		MinPrice:     input.MinPrice,
		MaxPrice:     input.MaxPrice,
		LowStockOnly: input.LowStockOnly,
		Sort:         input.Sort,
	}
	if raw := strings.TrimSpace(input.StoreID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return listQuery{}, pkgerrors.InvalidID("store")
		}
		q.StoreID = &id
	}
	if len([]rune(q.Search)) > maxSearchLength {
		return listQuery{}, validationError("search", "Search term is too long")
	}
	if len([]rune(q.Category)) > maxCategoryLength {
		return listQuery{}, validationError("category", "Category is too long")
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return listQuery{}, validationError("minPrice", "minPrice cannot be negative")
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		return listQuery{}, validationError("maxPrice", "maxPrice cannot be negative")
	}
	if !ValidSort(q.Sort) {
		return listQuery{}, validationError("sort", fmt.Sprintf("Unknown sort %q", q.Sort))
	}
	if input.Page < 0 {
		return listQuery{}, validationError("page", "Page must be at least 1")
	}
	return q, nil
}

func (s *service) Get(ctx context.Context, id string) (*ItemDTO, error) {
	itemID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.InvalidID("inventory")
	}
	row, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Inventory item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
	}
	dto := row.toDTO()
	return &dto, nil
}

func (s *service) StoreMetrics(ctx context.Context, storeIDOrSlug string) (*MetricsDTO, error) {
	store, err := s.resolveStore(ctx, storeIDOrSlug)
	if err != nil {
		return nil, err
	}
	var version MetricsVersion
	if s.cache != nil {
		var (
			cached MetricsDTO
			ok     bool
		)
		if cached, version, ok = s.cache.Get(ctx, store.ID); ok {
			return &cached, nil
		}
	}
	metrics, err := s.repo.Metrics(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute store metrics")
	}
	if s.cache != nil {
		s.cache.Set(ctx, store.ID, version, metrics)
	}
	return &metrics, nil
}

func (s *service) Upsert(ctx context.Context, storeIDOrSlug, productID string, input UpsertInput) (*ItemDTO, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	var (
		store   *models.Store
		product *models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		store, err = s.resolveStore(gctx, storeIDOrSlug)
		return err
	})
	g.Go(func() error {
		var err error
		product, err = s.products.FindByID(gctx, pid, softdelete.Options{})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("Product")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	row, err := s.repo.Upsert(ctx, store.ID, product.ID, input)
	if err != nil {
		return nil, pkgerrors.FromDatastore(err)
	}
	if s.cache != nil {
		s.cache.InvalidateStore(ctx, store.ID)
	}
	dto := row.toDTO()
	return &dto, nil
}

// Remove soft-deletes the pair's row. The store and product stay as they are.
func (s *service) Remove(ctx context.Context, storeIDOrSlug, productID string) error {
	pid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	store, err := s.resolveStore(ctx, storeIDOrSlug)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveFromStore(ctx, store.ID, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("Inventory item")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove inventory item")
	}
	if s.cache != nil {
		s.cache.InvalidateStore(ctx, store.ID)
	}
	return nil
}

func (s *service) resolveStore(ctx context.Context, idOrSlug string) (*models.Store, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return nil, pkgerrors.NotFound("Store")
	}
	store, err := s.stores.Resolve(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve store")
	}
	return store, nil
}

func validateUpsert(input UpsertInput) error {
	if input.Quantity == nil && input.LowStockThreshold == nil {
		return validationError("body", "At least one field (quantity or lowStockThreshold) is required")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return validationError("quantity", "Quantity cannot be negative")
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		return validationError("lowStockThreshold", "Low stock threshold cannot be negative")
	}
	return nil
}

func parseProductID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.InvalidID("product")
	}
	return id, nil
}

func validationError(field, msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]string{field: msg})
}
