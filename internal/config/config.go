// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database paths, rate limiting, the chart engine, the coin
// economy, caching, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ChartConfig tunes the chart engine.
type ChartConfig struct {
	HouseSystem string        // HOUSE_SYSTEM: placidus|porphyry|equal|whole_sign
	CacheTTL    time.Duration // EPHEMERIS_CACHE_TTL
	CacheSize   int           // EPHEMERIS_CACHE_SIZE (in-memory backend only)
}

// EconomyConfig holds prices and rewards of the coin economy.
type EconomyConfig struct {
	PremiumUnlockCost  int64           // PREMIUM_UNLOCK_COST, coins
	PremiumRevenueUSD  decimal.Decimal // PREMIUM_REVENUE_USD
	CoinsPerUSD        int64           // COINS_PER_USD
	PurchaseXP         int64           // PURCHASE_XP
	PaymentRevenueRate decimal.Decimal // PAYMENT_REVENUE_RATE, USD per coin credited by payment
	AdRevenueUSD       decimal.Decimal // AD_REVENUE_USD, USD per ad credit
	SeedTestUser       bool            // SEED_TEST_USER
}

// RedisConfig is processed by envconfig with the REDIS_ prefix.
type RedisConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"false"`
	Addr         string        `envconfig:"ADDR" default:"localhost:6379"`
	Username     string        `envconfig:"USERNAME"`
	Password     string        `envconfig:"PASSWORD"`
	Database     int           `envconfig:"DATABASE" default:"0"`
	MaxRetries   int           `envconfig:"MAX_RETRIES" default:"3"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"astro:"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	LegacyRoutes   bool   // also mount the API at "/" for older clients

	// App
	DBPath string // SQLite path
	NodeID int64  // snowflake node for ledger ids, [0,1023]

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	Chart   ChartConfig
	Economy EconomyConfig
	Redis   RedisConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 5*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		LegacyRoutes:   getbool("LEGACY_ROUTES", true),

		// App
		DBPath: getenv("DB_PATH", "astro.db"),
		NodeID: int64(getint("SNOWFLAKE_NODE", 1)),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Chart: ChartConfig{
			HouseSystem: strings.ToLower(getenv("HOUSE_SYSTEM", "placidus")),
			CacheTTL:    getdur("EPHEMERIS_CACHE_TTL", 24*time.Hour),
			CacheSize:   getint("EPHEMERIS_CACHE_SIZE", 1024),
		},

		Economy: EconomyConfig{
			PremiumUnlockCost: int64(getint("PREMIUM_UNLOCK_COST", 2000)),
			CoinsPerUSD:       int64(getint("COINS_PER_USD", 100)),
			PurchaseXP:        int64(getint("PURCHASE_XP", 50)),
			SeedTestUser:      getbool("SEED_TEST_USER", false),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "astro-chart-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	var err error
	if cfg.Economy.PremiumRevenueUSD, err = getdecimal("PREMIUM_REVENUE_USD", "20.00"); err != nil {
		return cfg, err
	}
	if cfg.Economy.PaymentRevenueRate, err = getdecimal("PAYMENT_REVENUE_RATE", "0.1"); err != nil {
		return cfg, err
	}
	if cfg.Economy.AdRevenueUSD, err = getdecimal("AD_REVENUE_USD", "0.01"); err != nil {
		return cfg, err
	}
	if err := envconfig.Process("REDIS", &cfg.Redis); err != nil {
		return cfg, fmt.Errorf("redis config: %w", err)
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Chart.HouseSystem == "wholesign" || cfg.Chart.HouseSystem == "whole-sign" {
		cfg.Chart.HouseSystem = "whole_sign"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return cfg, errors.New("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	switch cfg.Chart.HouseSystem {
	case "placidus", "porphyry", "equal", "whole_sign":
	default:
		return cfg, errors.New("HOUSE_SYSTEM must be one of: placidus, porphyry, equal, whole_sign")
	}
	if cfg.Chart.CacheTTL < 0 {
		return cfg, errors.New("EPHEMERIS_CACHE_TTL must be >= 0")
	}
	if cfg.Chart.CacheSize < 1 {
		return cfg, errors.New("EPHEMERIS_CACHE_SIZE must be >= 1")
	}
	if cfg.Economy.PremiumUnlockCost <= 0 {
		return cfg, errors.New("PREMIUM_UNLOCK_COST must be > 0")
	}
	if cfg.Economy.CoinsPerUSD <= 0 {
		return cfg, errors.New("COINS_PER_USD must be > 0")
	}
	if cfg.Economy.PurchaseXP < 0 {
		return cfg, errors.New("PURCHASE_XP must be >= 0")
	}
	if cfg.Economy.PremiumRevenueUSD.IsNegative() || cfg.Economy.PaymentRevenueRate.IsNegative() || cfg.Economy.AdRevenueUSD.IsNegative() {
		return cfg, errors.New("revenue amounts must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getdecimal parses money values exactly. Unlike the other helpers a
// malformed value is an error, not a silent fallback.
func getdecimal(k, def string) (decimal.Decimal, error) {
	v := getenv(k, def)
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", k, err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
