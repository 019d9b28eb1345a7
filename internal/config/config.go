package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the service reads from the environment. The
// token secrets and TTLs are required: a process that cannot sign tokens
// has no reason to start.
type Config struct {
	Addr     string
	GRPCAddr string
	PGDSN    string

	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration

	RateBurst  int
	RatePerSec int
}

const (
	defaultAddr       = ":8080"
	defaultRateBurst  = 20
	defaultRatePerSec = 10
)

// Load reads configuration from the environment, merging in a .env file
// when one is present. Returns an error for any missing required value;
// callers treat that as fatal.
func Load() (Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := Config{
		Addr:       envOr("WARDEN_ADDR", defaultAddr),
		GRPCAddr:   os.Getenv("WARDEN_GRPC_ADDR"),
		PGDSN:      os.Getenv("WARDEN_PG_DSN"),
		RateBurst:  defaultRateBurst,
		RatePerSec: defaultRatePerSec,
	}

	var err error
	if cfg.AccessSecret, err = requireEnv("WARDEN_JWT_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshSecret, err = requireEnv("WARDEN_JWT_REFRESH_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.AccessTTL, err = requireDuration("WARDEN_JWT_EXPIRATION"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = requireDuration("WARDEN_JWT_REFRESH_EXPIRATION"); err != nil {
		return Config{}, err
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, fmt.Errorf("config: WARDEN_JWT_SECRET and WARDEN_JWT_REFRESH_SECRET must differ")
	}

	if v := os.Getenv("WARDEN_RATE_BURST"); v != "" {
		if cfg.RateBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("config: WARDEN_RATE_BURST: %w", err)
		}
	}
	if v := os.Getenv("WARDEN_RATE_PER_SEC"); v != "" {
		if cfg.RatePerSec, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("config: WARDEN_RATE_PER_SEC: %w", err)
		}
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func requireDuration(key string) (time.Duration, error) {
	raw, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}
