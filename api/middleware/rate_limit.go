package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/tiny-inventory/api/responses"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

const rateLimitMessage = "Too many requests, please try again later."

// RateLimitStore counts hits in fixed windows. pkg/redis.Client satisfies it.
type RateLimitStore interface {
	FixedWindowHit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type rateLimitRecorder interface {
	IncRateLimited()
}

// RateLimitPolicy defines the window and per-client budget.
type RateLimitPolicy struct {
	Window time.Duration
	Max    int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && p.Max > 0
}

// RateLimit enforces the policy per client address. Store failures let the
// request through and are logged.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger, recorder rateLimitRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)

			count, resetIn, err := store.FixedWindowHit(ctx, "ip:"+ip, policy.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate_limit.store_failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(policy.Max) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(policy.Max) {
				respondRateLimited(ctx, logg, w, policy, ip, count, resetIn)
				if recorder != nil {
					recorder.IncRateLimited()
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up and never advertises less than a second.
func retryAfterSeconds(resetIn time.Duration) int {
	secs := int(math.Ceil(float64(resetIn.Milliseconds()) / 1000))
	if secs < 1 {
		return 1
	}
	return secs
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, ip string, count int64, resetIn time.Duration) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"ip":             ip,
			"attempts":       count,
			"limit":          policy.Max,
			"window_seconds": int(policy.Window.Seconds()),
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetIn)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, rateLimitMessage))
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then
// the socket address.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// MemoryRateStore is the in-process fallback used when Redis is not
// configured. Counters live only as long as the process.
type MemoryRateStore struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
	sweepAt time.Time
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{windows: map[string]memoryWindow{}, now: time.Now}
}

func (m *MemoryRateStore) FixedWindowHit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now, window)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = memoryWindow{resetAt: now.Add(window)}
	}
	w.count++
	m.windows[key] = w
	return w.count, w.resetAt.Sub(now), nil
}

// sweep drops expired windows at most once per window length.
func (m *MemoryRateStore) sweep(now time.Time, window time.Duration) {
	if now.Before(m.sweepAt) {
		return
	}
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
	m.sweepAt = now.Add(window)
}
