package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
)

const (
	maxSKULength      = 32
	maxNameLength     = 200
	maxCategoryLength = 50
)

type productRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID, opts softdelete.Options) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error)
	SoftDeleteWithTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Price changes and deletes touch every store's totals.
type metricsInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// Service exposes product catalog operations.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id string) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo    productRepository
	tx      txRunner
	metrics metricsInvalidator
	now     func() time.Time
}

// NewService builds a product service. metrics may be nil.
func NewService(repo productRepository, tx txRunner, metrics metricsInvalidator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (*ProductDTO, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID, softdelete.Options{})
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{}
	var err error
	if product.SKU, err = normalizeSKU(input.SKU); err != nil {
		return nil, err
	}
	if product.Name, err = normalizeText("name", "Product name", input.Name, maxNameLength); err != nil {
		return nil, err
	}
	if product.Category, err = normalizeText("category", "Category", input.Category, maxCategoryLength); err != nil {
		return nil, err
	}
	if product.Price, err = normalizePrice(input.Price); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, product.SKU)
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateProductInput) (*ProductDTO, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	var sku string
	if input.SKU != nil {
		if sku, err = normalizeSKU(*input.SKU); err != nil {
			return nil, err
		}
		updates["sku"] = sku
	}
	if input.Name != nil {
		name, err := normalizeText("name", "Product name", *input.Name, maxNameLength)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if input.Category != nil {
		category, err := normalizeText("category", "Category", *input.Category, maxCategoryLength)
		if err != nil {
			return nil, err
		}
		updates["category"] = category
	}
	if input.Price != nil {
		price, err := normalizePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}

	product, err := s.repo.Update(ctx, productID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Product")
		}
		return nil, mapWriteError(err, sku)
	}
	if _, ok := updates["price"]; ok && s.metrics != nil {
		s.metrics.InvalidateAll(ctx)
	}
	return FromModel(product), nil
}

// Delete soft-deletes the product and its inventory rows in one transaction.
func (s *service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	var found bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		found, err = s.repo.SoftDeleteWithTx(tx, productID, s.now())
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !found {
		return pkgerrors.NotFound("Product")
	}
	if s.metrics != nil {
		s.metrics.InvalidateAll(ctx)
	}
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.InvalidID("product")
	}
	return id, nil
}

// normalizeSKU trims and uppercases, then checks the normalized value.
func normalizeSKU(raw string) (string, error) {
	sku := strings.ToUpper(strings.TrimSpace(raw))
	if sku == "" {
		return "", validationError("sku", "SKU is required")
	}
	if len([]rune(sku)) > maxSKULength {
		return "", validationError("sku", "SKU is too long")
	}
	return sku, nil
}

func normalizeText(field, label, raw string, maxLen int) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", validationError(field, label+" is required")
	}
	if len([]rune(value)) > maxLen {
		return "", validationError(field, label+" is too long")
	}
	return value, nil
}

func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, validationError("price", "Price cannot be negative")
	}
	return price.Round(2), nil
}

func validationError(field, msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]string{field: msg})
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("Product")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
}

func mapWriteError(err error, sku string) error {
	if pkgerrors.IsUniqueViolation(err) && sku != "" {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("sku %q already exists", sku))
	}
	return pkgerrors.FromDatastore(err)
}
