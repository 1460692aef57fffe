package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort        = "3000"
	defaultDatabaseURL = "school.db"
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultJWTTTL      = "24h"
	defaultUploadsDir  = "./uploads"
	defaultAssetsDir   = "./public/assets"
	defaultPurge       = "false"
)

type Config struct {
	AppEnv           string
	Production       bool
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTTTL           time.Duration
	UploadsDir       string
	AssetsDir        string
	TranscodeWorkers int
	PurgeDerivatives bool
}

// Load reads the runtime configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := firstEnv("APP_ENV", "ENV", "NODE_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.Production = isProdLike(cfg.AppEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.UploadsDir = strings.TrimSpace(getEnv("UPLOADS_DIR", defaultUploadsDir))
	cfg.AssetsDir = strings.TrimSpace(getEnv("ASSETS_DIR", defaultAssetsDir))
	cfg.PurgeDerivatives = parseBoolEnv("PURGE_DERIVATIVES", defaultPurge)

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.TranscodeWorkers, err = parseIntEnv("TRANSCODE_WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config: env=%s production=%t uploads=%s assets=%s transcode_workers=%d purge_derivatives=%t",
		cfg.AppEnv, cfg.Production, cfg.UploadsDir, cfg.AssetsDir, cfg.TranscodeWorkers, cfg.PurgeDerivatives)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.TranscodeWorkers <= 0 {
		return fmt.Errorf("TRANSCODE_WORKERS must be > 0")
	}
	if cfg.UploadsDir == "" {
		return fmt.Errorf("UPLOADS_DIR must not be empty")
	}
	if cfg.AssetsDir == "" {
		return fmt.Errorf("ASSETS_DIR must not be empty")
	}
	if cfg.Production && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
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

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
