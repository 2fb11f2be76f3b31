package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "kanvas.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "KANVAS_PORT")
	setString(&cfg.Server.CORSOrigin, "KANVAS_CORS_ORIGIN")
	setString(&cfg.Server.PublicURL, "KANVAS_PUBLIC_URL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "KANVAS_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "KANVAS_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "KANVAS_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "KANVAS_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "KANVAS_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.GitHub.APIBaseURL, "KANVAS_GITHUB_API_URL")
	setDuration(&cfg.GitHub.Timeout, "KANVAS_GITHUB_TIMEOUT")
	setDuration(&cfg.GitHub.StatusCacheTTL, "KANVAS_GITHUB_STATUS_CACHE_TTL")
	setInt(&cfg.GitHub.BreakerMaxFailures, "KANVAS_GITHUB_BREAKER_MAX_FAILURES")
	setDuration(&cfg.GitHub.BreakerCooldown, "KANVAS_GITHUB_BREAKER_COOLDOWN")
	setString(&cfg.GitLab.BaseURL, "KANVAS_GITLAB_URL")
	setString(&cfg.Logging.Level, "KANVAS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "KANVAS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "KANVAS_LOG_ASYNC")
	setBool(&cfg.Telemetry.Enabled, "KANVAS_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "KANVAS_OTEL_ENDPOINT")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port must not be empty")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres dsn must not be empty")
	}
	if cfg.Postgres.MaxConns < 1 {
		return fmt.Errorf("postgres max_conns must be >= 1, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Postgres.MinConns > cfg.Postgres.MaxConns {
		return fmt.Errorf("postgres min_conns (%d) exceeds max_conns (%d)", cfg.Postgres.MinConns, cfg.Postgres.MaxConns)
	}
	if cfg.GitHub.Timeout <= 0 {
		return errors.New("github timeout must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
