package redis

import (
	"context"
	"fmt"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tiny-inventory/pkg/config"
)

func TestFixedWindowHitCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for want := int64(1); want <= 3; want++ {
		count, _, err := client.FixedWindowHit(ctx, "test-scope", time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != want {
			t.Fatalf("expected counter %d got %d", want, count)
		}
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should only be set on the first hit, got %d calls", len(mock.expireCalls))
	}
}

func TestFixedWindowHitReportsReset(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	count, reset, err := client.FixedWindowHit(ctx, "10.0.0.1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 || reset != time.Minute {
		t.Fatalf("unexpected first hit count=%d reset=%s", count, reset)
	}

	// a counter that lost its TTL gets a fresh window
	key := client.RateLimitKey("10.0.0.2")
	mock.incr[key] = 5
	count, reset, err = client.FixedWindowHit(ctx, "10.0.0.2", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 6 || reset != time.Minute {
		t.Fatalf("unexpected recovered hit count=%d reset=%s", count, reset)
	}
	if mock.ttl[key] != time.Minute {
		t.Fatalf("expected expiry restored, got %s", mock.ttl[key])
	}
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	type payload struct {
		Total int `json:"total"`
	}
	found, err := client.GetJSON(ctx, "missing", &payload{})
	if err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	if err := client.SetJSON(ctx, "k", payload{Total: 7}, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var got payload
	found, err = client.GetJSON(ctx, "k", &got)
	if err != nil || !found || got.Total != 7 {
		t.Fatalf("unexpected read found=%v err=%v got=%+v", found, err, got)
	}
}

func TestDelMatching(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 0; i < 3; i++ {
		mock.data[client.MetricsKey(fmt.Sprintf("store-%d", i))] = "{}"
	}
	mock.data[client.RateLimitKey("ip")] = "1"

	removed, err := client.DelMatching(ctx, client.MetricsPattern())
	if err != nil {
		t.Fatalf("del matching: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 keys removed, got %d", removed)
	}
	if _, ok := mock.data[client.RateLimitKey("ip")]; !ok {
		t.Fatalf("unrelated key should survive")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.RateLimitKey("scope"); got != "inv:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.MetricsKey("abc"); got != "inv:metrics:abc" {
		t.Fatalf("unexpected metrics key %s", got)
	}
	if got := client.MetricsPattern(); got != "inv:metrics:*" {
		t.Fatalf("unexpected metrics pattern %s", got)
	}
	if got := client.MetricsGenerationKey("abc"); got != "inv:metrics_gen:abc" {
		t.Fatalf("unexpected generation key %s", got)
	}
	if ok, _ := path.Match(client.MetricsPattern(), client.MetricsGenerationKey("abc")); ok {
		t.Fatalf("generation keys must survive a metrics flush")
	}
	if got := client.buildKey("metrics", ""); got != "inv:metrics" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	ttl         map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	} else {
		m.data[key] = fmt.Sprint(value)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	m.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	ttl, ok := m.ttl[key]
	if !ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Scan returns every match in a single page.
func (m *mockCmdable) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	var keys []string
	for key := range m.data {
		if ok, _ := path.Match(match, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return redis.NewScanCmdResult(keys, 0, nil)
}
