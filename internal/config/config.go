package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "Sahayak Gateway"
	defaultAppEnv          = "development"
	defaultPort            = "8000"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultJWTAlgorithm    = "HS256"
	defaultAccessMinutes   = 30
	defaultRefreshDays     = 7
	defaultLoginRatePerMin = 5
	defaultDataGovBaseURL  = "https://api.data.gov.in/resource"
	defaultVisionBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultVisionModel     = "gemini-2.5-pro"
	defaultUpstreamTimeout = 15 * time.Second
	defaultMaxUploadBytes  = 10 << 20
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWT     JWTConfig
	Auth    AuthConfig
	DataGov DataGovConfig
	Vision  VisionConfig

	UpstreamTimeout time.Duration
	MaxUploadBytes  int
}

// JWTConfig holds the token signing parameters. Changing Secret invalidates
// every token issued before the change.
type JWTConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthConfig tunes credential handling.
type AuthConfig struct {
	PINHashCost        int
	LoginRatePerMinute int
}

// DataGovConfig points at the data.gov.in commodity price resource.
type DataGovConfig struct {
	BaseURL    string
	APIKey     string
	ResourceID string
}

// VisionConfig points at the generative vision model used for crop diagnosis.
type VisionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		Env:            getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET_KEY"),
			Algorithm: strings.ToUpper(getEnv("JWT_ALGORITHM", defaultJWTAlgorithm)),
		},
		DataGov: DataGovConfig{
			BaseURL:    getEnv("DATA_GOV_BASE_URL", defaultDataGovBaseURL),
			APIKey:     os.Getenv("DATA_GOV_API_KEY"),
			ResourceID: os.Getenv("DATA_GOV_RESOURCE_ID"),
		},
		Vision: VisionConfig{
			BaseURL: getEnv("VISION_BASE_URL", defaultVisionBaseURL),
			APIKey:  os.Getenv("VISION_API_KEY"),
			Model:   getEnv("VISION_MODEL", defaultVisionModel),
		},
		UpstreamTimeout: defaultUpstreamTimeout,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.UpstreamTimeout, err = durationFromEnv("UPSTREAM_TIMEOUT_SECONDS", "UPSTREAM_TIMEOUT", defaultUpstreamTimeout); err != nil {
		return Config{}, err
	}

	accessMinutes, err := intFromEnv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", defaultAccessMinutes)
	if err != nil {
		return Config{}, err
	}
	refreshDays, err := intFromEnv("JWT_REFRESH_TOKEN_EXPIRE_DAYS", defaultRefreshDays)
	if err != nil {
		return Config{}, err
	}
	cfg.JWT.AccessTTL = time.Duration(accessMinutes) * time.Minute
	cfg.JWT.RefreshTTL = time.Duration(refreshDays) * 24 * time.Hour

	if cfg.Auth.PINHashCost, err = intFromEnv("PIN_HASH_COST", 0); err != nil {
		return Config{}, err
	}
	if cfg.Auth.LoginRatePerMinute, err = intFromEnv("LOGIN_RATE_LIMIT_PER_MINUTE", defaultLoginRatePerMin); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadBytes, err = intFromEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the invariants Load relies on. It is exported so that
// tests and alternative entrypoints can build a Config by hand.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY must be set")
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return fmt.Errorf("refresh token TTL must exceed access token TTL")
	}
	if !c.IsDev() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.Env)
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.Env)
		}
	}
	return nil
}

// IsDev reports whether the process runs in a local development environment,
// where Postgres and Redis may be replaced by in-memory backends.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// durationFromEnv prefers the integer seconds variable over the Go duration one.
func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
