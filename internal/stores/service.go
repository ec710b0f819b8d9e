package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
)

const (
	maxNameLength = 100
	// maxSlugLength bounds slugs derived from a name; a caller-supplied
	// slug is held to maxExplicitSlugLength.
	maxSlugLength         = 100
	maxExplicitSlugLength = 50
)

type storeRepository interface {
	ListWithCounts(ctx context.Context) ([]storeWithCount, error)
	Resolve(ctx context.Context, idOrSlug string) (*models.Store, error)
	Create(ctx context.Context, store *models.Store) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Store, error)
	SoftDeleteWithTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type metricsInvalidator interface {
	InvalidateStore(ctx context.Context, storeID uuid.UUID)
}

// Service exposes store operations.
type Service interface {
	List(ctx context.Context) ([]StoreSummaryDTO, error)
	Get(ctx context.Context, idOrSlug string) (*StoreDTO, error)
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, id string, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo    storeRepository
	tx      txRunner
	metrics metricsInvalidator
	now     func() time.Time
}

// NewService builds a store service. metrics may be nil.
func NewService(repo storeRepository, tx txRunner, metrics metricsInvalidator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
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

func (s *service) List(ctx context.Context) ([]StoreSummaryDTO, error) {
	rows, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stores")
	}
	out := make([]StoreSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, summaryFromRow(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, idOrSlug string) (*StoreDTO, error) {
	store, err := s.repo.Resolve(ctx, strings.TrimSpace(idOrSlug))
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(store), nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	var slug string
	if strings.TrimSpace(input.Slug) == "" {
		slug, err = normalizeSlug(name)
	} else {
		slug, err = normalizeExplicitSlug(input.Slug)
	}
	if err != nil {
		return nil, err
	}

	store := &models.Store{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, mapWriteError(err, slug)
	}
	return FromModel(store), nil
}

// Update changes name and/or slug. Renaming never re-derives the slug.
func (s *service) Update(ctx context.Context, id string, input UpdateStoreInput) (*StoreDTO, error) {
	storeID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.InvalidID("store")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	var slug string
	if input.Slug != nil {
		if slug, err = normalizeExplicitSlug(*input.Slug); err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}

	store, err := s.repo.Update(ctx, storeID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Store")
		}
		return nil, mapWriteError(err, slug)
	}
	return FromModel(store), nil
}

// Delete soft-deletes the store and its inventory in one transaction.
func (s *service) Delete(ctx context.Context, id string) error {
	storeID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pkgerrors.InvalidID("store")
	}

	var found bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		found, err = s.repo.SoftDeleteWithTx(tx, storeID, s.now())
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete store")
	}
	if !found {
		return pkgerrors.NotFound("Store")
	}
	if s.metrics != nil {
		s.metrics.InvalidateStore(ctx, storeID)
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError("name", "Store name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", validationError("name", "Store name is too long")
	}
	return name, nil
}

func normalizeSlug(raw string) (string, error) {
	slug := Slugify(raw)
	if slug == "" {
		return "", validationError("slug", "Store slug must contain letters or digits")
	}
	if len(slug) > maxSlugLength {
		return "", validationError("slug", "Store slug is too long")
	}
	return slug, nil
}

func normalizeExplicitSlug(raw string) (string, error) {
	if len([]rune(strings.TrimSpace(raw))) > maxExplicitSlugLength {
		return "", validationError("slug", "Store slug is too long")
	}
	return normalizeSlug(raw)
}

func validationError(field, msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]string{field: msg})
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("Store")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
}

func mapWriteError(err error, slug string) error {
	if pkgerrors.IsUniqueViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("slug %q already exists", slug))
	}
	return pkgerrors.FromDatastore(err)
}
