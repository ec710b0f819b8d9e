package logger

import (
	"context"
	"io"
	"maps"
	"os"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Options.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Env is stamped on every line when set.
	Env       string
	Level     zerolog.Level
	Format    string
	WarnStack bool
	Output    io.Writer
}

// Logger carries request-scoped fields through a context. Every method
// accepts a context without fields and falls back to the base logger.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

// New builds a JSON logger on stdout unless Options say otherwise.
func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	fields := zerolog.New(out).With().Timestamp().Str("service", opts.ServiceName)
	if opts.Env != "" {
		fields = fields.Str("env", opts.Env)
	}
	return &Logger{
		base:      fields.Logger().Level(opts.Level),
		warnStack: opts.WarnStack,
	}
}

// ParseLevel maps a config value to a level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, build(l.from(ctx).With()).Logger())
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

// WithFields attaches fields in key order so repeated lines read alike.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			c = c.Interface(k, fields[k])
		}
		return c
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.withIDs(ctx, "request_id", requestID)
}

// WithStoreID tags the context with a store id or slug as the caller sent it.
func (l *Logger) WithStoreID(ctx context.Context, storeIDOrSlug string) context.Context {
	return l.withIDs(ctx, "store", storeIDOrSlug)
}

func (l *Logger) WithProductID(ctx context.Context, productID string) context.Context {
	return l.withIDs(ctx, "product_id", productID)
}

// WithInventoryItem tags a per-store stock operation.
func (l *Logger) WithInventoryItem(ctx context.Context, storeIDOrSlug, productID string) context.Context {
	return l.withIDs(ctx, "store", storeIDOrSlug, "product_id", productID)
}

// withIDs attaches key/value string pairs, skipping blank values.
func (l *Logger) withIDs(ctx context.Context, kv ...string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		for i := 0; i+1 < len(kv); i += 2 {
			if v := strings.TrimSpace(kv[i+1]); v != "" {
				c = c.Str(kv[i], v)
			}
		}
		return c
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	entry := l.from(ctx)
	entry.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	entry := l.from(ctx)
	entry.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	entry := l.from(ctx)
	event := entry.Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always records a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	entry := l.from(ctx)
	entry.Error().Err(err).Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
