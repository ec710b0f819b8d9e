package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tiny-inventory/api/controllers"
	"github.com/angelmondragon/tiny-inventory/api/middleware"
	"github.com/angelmondragon/tiny-inventory/api/responses"
	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	"github.com/angelmondragon/tiny-inventory/pkg/config"
	"github.com/angelmondragon/tiny-inventory/pkg/db"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
	"github.com/angelmondragon/tiny-inventory/pkg/metrics"
	"github.com/angelmondragon/tiny-inventory/pkg/redis"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	rateStore middleware.RateLimitStore,
	apiMetrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	storeService stores.Service,
	productService products.Service,
	inventoryService inventory.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, apiMetrics),
		middleware.SecureHeaders,
		middleware.CORS(cfg.CORS.Origins),
	)
	if cfg.App.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.App.RequestTimeout))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	readyDeps := map[string]db.Pinger{"database": dbP}
	if redisClient != nil {
		readyDeps["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthAlive(cfg))
		r.Get("/ready", controllers.HealthReady(readyDeps, logg))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(
			middleware.RateLimitPolicy{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Max},
			rateStore,
			logg,
			apiMetrics,
		))

		r.Get("/alive", controllers.HealthAlive(cfg))

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(storeService, logg))
			r.Post("/", controllers.StoreCreate(storeService, logg))
			r.Get("/{id}", controllers.StoreGet(storeService, logg))
			r.Patch("/{id}", controllers.StoreUpdate(storeService, logg))
			r.Delete("/{id}", controllers.StoreDelete(storeService, logg))
			r.Get("/{storeIdOrSlug}/metrics", controllers.StoreMetrics(inventoryService, logg))
			r.Patch("/{storeIdOrSlug}/inventory/{productId}", controllers.InventoryUpsert(inventoryService, logg))
			r.Delete("/{storeIdOrSlug}/inventory/{productId}", controllers.InventoryRemove(inventoryService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Get("/{id}", controllers.ProductGet(productService, logg))
			r.Patch("/{id}", controllers.ProductUpdate(productService, logg))
			r.Delete("/{id}", controllers.ProductDelete(productService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(inventoryService, logg))
			r.Get("/{id}", controllers.InventoryGet(inventoryService, logg))
		})
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	responses.WriteJSON(w, http.StatusNotFound, types.ErrorEnvelope{
		Status:  types.StatusError,
		Code:    string(pkgerrors.CodeNotFound),
		Message: fmt.Sprintf("Not found: %s %s", r.Method, r.URL.Path),
	})
}
