package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values  map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if m.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	if raw, ok := m.values[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	m.values[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memoryStore) DelMatching(ctx context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) MetricsKey(storeID string) string { return "inv:metrics:" + storeID }
func (m *memoryStore) MetricsPattern() string { return "inv:metrics:*" }
func (m *memoryStore) MetricsGenerationKey(scope string) string {
	return "inv:metrics_gen:" + scope
}

type countingObserver struct{ hits, misses int }

func (c *countingObserver) CacheLookup(hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func TestMetricsCacheRoundTripAndInvalidate(t *testing.T) {
	store := newMemoryStore()
	obs := &countingObserver{}
	cache := NewMetricsCache(store, time.Minute, nil, obs)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, va, ok := cache.Get(ctx, a)
	assert.False(t, ok)
	_, vb, _ := cache.Get(ctx, b)

	want := MetricsDTO{TotalStock: 10, TotalValue: 999.9, LowStockThreshold: 10}
	cache.Set(ctx, a, va, want)
	cache.Set(ctx, b, vb, want)
	assert.Equal(t, time.Minute, store.ttls["inv:metrics:"+a.String()+":0.0"])

	got, _, ok := cache.Get(ctx, a)
	require.True(t, ok)
	assert.Equal(t, want, got)

	cache.InvalidateStore(ctx, a)
	_, _, ok = cache.Get(ctx, a)
	assert.False(t, ok)
	_, _, ok = cache.Get(ctx, b)
	assert.True(t, ok)

	cache.InvalidateAll(ctx)
	_, _, ok = cache.Get(ctx, b)
	assert.False(t, ok)
	_, stillThere := store.values["inv:metrics:"+b.String()+":0.0"]
	assert.False(t, stillThere, "flush reclaims retired entries")

	assert.Equal(t, 2, obs.hits)
	assert.Equal(t, 4, obs.misses)
}

func TestMetricsCacheDropsValueComputedBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := NewMetricsCache(newMemoryStore(), time.Minute, nil, nil)
	id := uuid.New()

	// a reader misses and starts computing
	_, version, ok := cache.Get(ctx, id)
	require.False(t, ok)
	stale := MetricsDTO{TotalStock: 5}

	// a write lands and invalidates before the reader stores its result
	cache.InvalidateStore(ctx, id)
	cache.Set(ctx, id, version, stale)

	_, next, ok := cache.Get(ctx, id)
	assert.False(t, ok, "stale metrics must not be served")

	fresh := MetricsDTO{TotalStock: 7}
	cache.Set(ctx, id, next, fresh)
	got, _, ok := cache.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, fresh, got)

	// the same holds for a catalogue-wide invalidation
	_, version, _ = cache.Get(ctx, uuid.Nil)
	cache.InvalidateAll(ctx)
	cache.Set(ctx, uuid.Nil, version, stale)
	_, _, ok = cache.Get(ctx, uuid.Nil)
	assert.False(t, ok)
}

func TestMetricsCacheDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	var nilCache *MetricsCache
	nilCache.Set(ctx, id, MetricsVersion{}, MetricsDTO{TotalStock: 1})
	_, _, ok := nilCache.Get(ctx, id)
	assert.False(t, ok)
	nilCache.InvalidateAll(ctx)

	disabled := NewMetricsCache(nil, time.Minute, nil, nil)
	_, _, ok = disabled.Get(ctx, id)
	assert.False(t, ok)

	failing := newMemoryStore()
	failing.failGet = true
	cache := NewMetricsCache(failing, time.Minute, nil, nil)
	_, version, ok := cache.Get(ctx, id)
	assert.False(t, ok, "read errors degrade to a miss")
	cache.Set(ctx, id, version, MetricsDTO{TotalStock: 1})
	assert.Empty(t, failing.values, "no write without a known version")
}
