package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAccessTTL          = "15m"
	defaultRefreshTTL         = "168h"
	defaultSharedCacheTTL     = "300s"
	defaultLocalCacheTTL      = "60s"
	defaultLocalSweepInterval = "120s"
	defaultThrottleWindow     = "60s"
	defaultThrottleMax        = "5"
	defaultSweepHour          = "3"
	defaultVerifyTimeout      = "2s"
	defaultAccessSecret       = "change-me-access-secret"
	defaultRefreshSecret      = "change-me-refresh-secret"
)

// Config is the full runtime configuration for the service. Everything comes
// from env; cmd/api loads .env first for local development.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	RedisAddr          string
	SharedCacheTTL     time.Duration
	LocalCacheTTL      time.Duration
	LocalSweepInterval time.Duration

	// VerifyTimeout bounds shared-cache/ledger lookups during verification.
	// On timeout the verifier fails closed unless DegradedLocalOnly is set.
	VerifyTimeout     time.Duration
	DegradedLocalOnly bool

	SweepHour int // hour of day (0-23) the expiry sweeper runs

	ThrottleWindow time.Duration
	ThrottleMax    int

	InternalToken string

	// CORSAllowedOrigins extends the CORS middleware's localhost defaults.
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", "8080"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.AccessSecret = strings.TrimSpace(getEnv("JWT_ACCESS_SECRET", defaultAccessSecret))
	cfg.RefreshSecret = strings.TrimSpace(getEnv("JWT_REFRESH_SECRET", defaultRefreshSecret))

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.InternalToken = strings.TrimSpace(os.Getenv("INTERNAL_TOKEN"))
	cfg.DegradedLocalOnly = strings.EqualFold(strings.TrimSpace(os.Getenv("REVOCATION_DEGRADED_MODE")), "local")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	if cfg.AccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.SharedCacheTTL, err = parseDurationEnv("SHARED_CACHE_TTL", defaultSharedCacheTTL); err != nil {
		return nil, err
	}
	if cfg.LocalCacheTTL, err = parseDurationEnv("LOCAL_CACHE_TTL", defaultLocalCacheTTL); err != nil {
		return nil, err
	}
	if cfg.LocalSweepInterval, err = parseDurationEnv("LOCAL_CACHE_SWEEP_INTERVAL", defaultLocalSweepInterval); err != nil {
		return nil, err
	}
	if cfg.VerifyTimeout, err = parseDurationEnv("REVOCATION_VERIFY_TIMEOUT", defaultVerifyTimeout); err != nil {
		return nil, err
	}
	if cfg.ThrottleWindow, err = parseDurationEnv("LOGIN_THROTTLE_WINDOW", defaultThrottleWindow); err != nil {
		return nil, err
	}
	if cfg.ThrottleMax, err = parseIntEnv("LOGIN_THROTTLE_MAX", defaultThrottleMax); err != nil {
		return nil, err
	}
	if cfg.SweepHour, err = parseIntEnv("SWEEP_HOUR", defaultSweepHour); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if cfg.DegradedLocalOnly {
		log.Printf("revocation config: degraded local-only mode enabled, shared-tier outages will be tolerated")
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return fmt.Errorf("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL")
	}
	if cfg.SharedCacheTTL <= 0 || cfg.LocalCacheTTL <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}
	if cfg.LocalSweepInterval <= 0 {
		return fmt.Errorf("LOCAL_CACHE_SWEEP_INTERVAL must be > 0")
	}
	if cfg.SweepHour < 0 || cfg.SweepHour > 23 {
		return fmt.Errorf("SWEEP_HOUR must be between 0 and 23")
	}
	if cfg.ThrottleWindow <= 0 || cfg.ThrottleMax <= 0 {
		return fmt.Errorf("login throttle window and max attempts must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.AccessSecret, defaultAccessSecret) {
			return fmt.Errorf("in prod/release JWT_ACCESS_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.RefreshSecret, defaultRefreshSecret) {
			return fmt.Errorf("in prod/release JWT_REFRESH_SECRET must be set and not default")
		}
		if cfg.RedisAddr == "" {
			return fmt.Errorf("in prod/release REDIS_ADDR is required")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
