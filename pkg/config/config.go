package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "INVENTORY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "INVENTORY_APP_ENV"
	EnvPort            = "INVENTORY_APP_PORT"
	EnvLogLevel        = "INVENTORY_LOG_LEVEL"
	EnvRequestTimeout  = "INVENTORY_REQUEST_TIMEOUT"
	EnvDBDSN           = "INVENTORY_DB_DSN"
	EnvDBHost          = "INVENTORY_DB_HOST"
	EnvDBUser          = "INVENTORY_DB_USER"
	EnvDBName          = "INVENTORY_DB_NAME"
	EnvRedisURL        = "INVENTORY_REDIS_URL"
	EnvRateLimitWindow = "INVENTORY_RATE_LIMIT_WINDOW"
	EnvRateLimitMax    = "INVENTORY_RATE_LIMIT_MAX"
	EnvCORSOrigins     = "INVENTORY_CORS_ORIGINS"
	EnvUseSQLite       = "INVENTORY_USE_SQLITE"
	EnvSQLitePath      = "INVENTORY_SQLITE_PATH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string        `envconfig:"INVENTORY_APP_ENV" default:"dev"`
	Port           string        `envconfig:"INVENTORY_APP_PORT" default:"4000"`
	LogLevel       string        `envconfig:"INVENTORY_LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"INVENTORY_LOG_FORMAT" default:"json"`
	LogWarnStack   bool          `envconfig:"INVENTORY_LOG_WARN_STACK" default:"false"`
	RequestTimeout time.Duration `envconfig:"INVENTORY_REQUEST_TIMEOUT" default:"30s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"INVENTORY_DB_DSN"`

	LegacyHost     string `envconfig:"INVENTORY_DB_HOST"`
	LegacyPort     int    `envconfig:"INVENTORY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INVENTORY_DB_USER"`
	LegacyPassword string `envconfig:"INVENTORY_DB_PASSWORD"`
	LegacyName     string `envconfig:"INVENTORY_DB_NAME"`
	LegacySSLMode  string `envconfig:"INVENTORY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INVENTORY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INVENTORY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INVENTORY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVENTORY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional. An empty URL and address leave the API on
// in-process rate limiting with no metrics cache.
type RedisConfig struct {
	URL          string        `envconfig:"INVENTORY_REDIS_URL"`
	Address      string        `envconfig:"INVENTORY_REDIS_ADDR"`
	Password     string        `envconfig:"INVENTORY_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVENTORY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVENTORY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVENTORY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVENTORY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVENTORY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVENTORY_REDIS_WRITE_TIMEOUT" default:"5s"`
	MetricsTTL   time.Duration `envconfig:"INVENTORY_REDIS_METRICS_TTL" default:"30s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"INVENTORY_RATE_LIMIT_WINDOW" default:"1m"`
	Max    int           `envconfig:"INVENTORY_RATE_LIMIT_MAX" default:"120"`
}

type CORSConfig struct {
	Origins []string `envconfig:"INVENTORY_CORS_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"INVENTORY_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"INVENTORY_SQLITE_PATH" default:"inventory.db"`
	AutoMigrate bool   `envconfig:"INVENTORY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
