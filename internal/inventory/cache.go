package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

// cacheStore is the slice of pkg/redis the metrics cache needs.
type cacheStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DelMatching(ctx context.Context, pattern string) (int, error)
	MetricsKey(storeID string) string
	MetricsPattern() string
	MetricsGenerationKey(scope string) string
}

// CacheObserver records cache lookups. pkg/metrics implements it.
type CacheObserver interface {
	CacheLookup(hit bool)
}

// MetricsCache keeps computed store metrics in Redis. A nil *MetricsCache, or
// one built without a store, never hits and never fails: cache errors are
// logged and the caller falls back to the database.
//
// Entries are keyed by a global and a per-store generation. Invalidation bumps
// a generation instead of deleting, so a value computed before the bump lands
// under a key no later Get reads.
type MetricsCache struct {
	store    cacheStore
	ttl      time.Duration
	logg     *logger.Logger
	observer CacheObserver
}

// MetricsVersion is the generation pair a Get observed. Set only writes under
// that version.
type MetricsVersion struct {
	all, store int64
	ok         bool
}

const allStoresScope = "all"

// NewMetricsCache wraps store. A nil store yields a disabled cache.
func NewMetricsCache(store cacheStore, ttl time.Duration, logg *logger.Logger, observer CacheObserver) *MetricsCache {
	return &MetricsCache{store: store, ttl: ttl, logg: logg, observer: observer}
}

func (c *MetricsCache) enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

// Get returns cached metrics for storeID, if any, along with the version a
// subsequent Set must carry.
func (c *MetricsCache) Get(ctx context.Context, storeID uuid.UUID) (MetricsDTO, MetricsVersion, bool) {
	if !c.enabled() {
		return MetricsDTO{}, MetricsVersion{}, false
	}
	version, err := c.version(ctx, storeID)
	if err != nil {
		c.warn(ctx, "metrics cache version read failed", err)
		c.observe(false)
		return MetricsDTO{}, MetricsVersion{}, false
	}
	var out MetricsDTO
	hit, err := c.store.GetJSON(ctx, c.key(storeID, version), &out)
	if err != nil {
		c.warn(ctx, "metrics cache read failed", err)
		hit = false
	}
	c.observe(hit)
	return out, version, hit
}

// Set stores metrics computed after a Get that returned version. A version
// from a disabled or failing lookup is ignored.
func (c *MetricsCache) Set(ctx context.Context, storeID uuid.UUID, version MetricsVersion, metrics MetricsDTO) {
	if !c.enabled() || !version.ok {
		return
	}
	if err := c.store.SetJSON(ctx, c.key(storeID, version), metrics, c.ttl); err != nil {
		c.warn(ctx, "metrics cache write failed", err)
	}
}

// InvalidateStore retires the cached metrics of one store.
func (c *MetricsCache) InvalidateStore(ctx context.Context, storeID uuid.UUID) {
	if !c.enabled() {
		return
	}
	if _, err := c.store.Incr(ctx, c.store.MetricsGenerationKey(storeID.String())); err != nil {
		c.warn(ctx, "metrics cache invalidation failed", err)
	}
}

// InvalidateAll drops every cached store metric.
func (c *MetricsCache) InvalidateAll(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if _, err := c.store.Incr(ctx, c.store.MetricsGenerationKey(allStoresScope)); err != nil {
		c.warn(ctx, "metrics cache invalidation failed", err)
		return
	}
	// retired entries would expire anyway; reclaim them now
	if _, err := c.store.DelMatching(ctx, c.store.MetricsPattern()); err != nil {
		c.warn(ctx, "metrics cache flush failed", err)
	}
}

func (c *MetricsCache) version(ctx context.Context, storeID uuid.UUID) (MetricsVersion, error) {
	v := MetricsVersion{ok: true}
	if _, err := c.store.GetJSON(ctx, c.store.MetricsGenerationKey(allStoresScope), &v.all); err != nil {
		return MetricsVersion{}, err
	}
	if _, err := c.store.GetJSON(ctx, c.store.MetricsGenerationKey(storeID.String()), &v.store); err != nil {
		return MetricsVersion{}, err
	}
	return v, nil
}

func (c *MetricsCache) key(storeID uuid.UUID, v MetricsVersion) string {
	return fmt.Sprintf("%s:%d.%d", c.store.MetricsKey(storeID.String()), v.all, v.store)
}

func (c *MetricsCache) observe(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(hit)
	}
}

func (c *MetricsCache) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
