// Package seed loads a demo catalogue through the regular services so every
// write goes through the same validation as the API.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

const (
	minProductsPerStore = 5
	maxQuantity         = 60
	minThreshold        = 5
	maxThreshold        = 15
)

// Result counts what a run actually created.
type Result struct {
	StoresCreated   int
	ProductsCreated int
	ItemsStocked    int
}

type Seeder struct {
	stores    stores.Service
	products  products.Service
	inventory inventory.Service
	logg      *logger.Logger
	rng       *rand.Rand
}

// NewSeeder builds a seeder whose stock levels are derived from seed, so two
// runs against empty databases produce the same data.
func NewSeeder(storeSvc stores.Service, productSvc products.Service, inventorySvc inventory.Service, logg *logger.Logger, seed uint64) *Seeder {
	return &Seeder{
		stores:    storeSvc,
		products:  productSvc,
		inventory: inventorySvc,
		logg:      logg,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Run creates missing products and stores. Existing slugs and SKUs are
// skipped, and only stores created in this run get stocked, so re-running
// never overwrites quantities.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	productIDs, created, err := s.ensureProducts(ctx)
	if err != nil {
		return res, err
	}
	res.ProductsCreated = created

	for _, st := range demoStores {
		store, err := s.stores.Create(ctx, stores.CreateStoreInput{Name: st.Name, Slug: st.Slug})
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			s.info(ctx, "seed.store.skipped", "slug", st.Slug)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create store %s: %w", st.Slug, err)
		}
		res.StoresCreated++

		stocked, err := s.stock(ctx, store.ID, productIDs)
		if err != nil {
			return res, err
		}
		res.ItemsStocked += stocked
	}

	s.info(ctx, "seed.completed", "items_stocked", res.ItemsStocked)
	return res, nil
}

func (s *Seeder) ensureProducts(ctx context.Context) ([]string, int, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	bySKU := make(map[string]string, len(existing))
	for _, p := range existing {
		bySKU[p.SKU] = p.ID
	}

	ids := make([]string, 0, len(demoProducts))
	created := 0
	for _, p := range demoProducts {
		if id, ok := bySKU[p.SKU]; ok {
			ids = append(ids, id)
			continue
		}
		dto, err := s.products.Create(ctx, products.CreateProductInput{
			SKU:      p.SKU,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.price(),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("create product %s: %w", p.SKU, err)
		}
		ids = append(ids, dto.ID)
		created++
	}
	return ids, created, nil
}

// stock puts a random subset of the catalogue into storeID.
func (s *Seeder) stock(ctx context.Context, storeID string, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	picked := append([]string(nil), productIDs...)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	n := len(picked)
	if n > minProductsPerStore {
		n = minProductsPerStore + s.rng.IntN(len(picked)-minProductsPerStore+1)
	}

	for _, productID := range picked[:n] {
		qty := s.rng.IntN(maxQuantity + 1)
		threshold := minThreshold + s.rng.IntN(maxThreshold-minThreshold+1)
		if _, err := s.inventory.Upsert(ctx, storeID, productID, inventory.UpsertInput{
			Quantity:          &qty,
			LowStockThreshold: &threshold,
		}); err != nil {
			return 0, fmt.Errorf("stock product %s in store %s: %w", productID, storeID, err)
		}
	}
	return n, nil
}

func (s *Seeder) info(ctx context.Context, msg, key string, value any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, key, value), msg)
}
