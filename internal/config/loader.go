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
const DefaultConfigFile = "zenora.yaml"

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

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
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
	setString(&cfg.Server.Port, "ZENORA_PORT")
	setString(&cfg.Server.CORSOrigin, "ZENORA_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ZENORA_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ZENORA_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ZENORA_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ZENORA_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ZENORA_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.SMTP.Host, "ZENORA_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "ZENORA_SMTP_PORT")
	setString(&cfg.SMTP.From, "ZENORA_SMTP_FROM")
	setString(&cfg.SMTP.Password, "ZENORA_SMTP_PASSWORD")
	setInt64(&cfg.Cache.MaxBytes, "ZENORA_CACHE_MAX_BYTES")
	setDuration(&cfg.Cache.TTL, "ZENORA_CACHE_TTL")
	setString(&cfg.Cache.Bucket, "ZENORA_CACHE_BUCKET")
	setString(&cfg.Logging.Level, "ZENORA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ZENORA_LOG_SERVICE")
	setFloat64(&cfg.Rate.RequestsPerSecond, "ZENORA_RATE_RPS")
	setInt(&cfg.Rate.Burst, "ZENORA_RATE_BURST")
	setDuration(&cfg.Rate.SweepInterval, "ZENORA_RATE_SWEEP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ZENORA_RATE_MAX_IDLE_TIME")
	setInt(&cfg.Auth.BcryptCost, "ZENORA_BCRYPT_COST")
	setDuration(&cfg.Import.BatchTimeout, "ZENORA_IMPORT_BATCH_TIMEOUT")
	setInt(&cfg.Breaker.MaxFailures, "ZENORA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ZENORA_BREAKER_TIMEOUT")
	setBool(&cfg.Telemetry.Enabled, "ZENORA_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "ZENORA_OTLP_ENDPOINT")
	setString(&cfg.Idempotency.Bucket, "ZENORA_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "ZENORA_IDEMPOTENCY_TTL")
}

// validate rejects configurations the server cannot start with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres dsn is required")
	}
	if cfg.Postgres.MaxConns < cfg.Postgres.MinConns {
		return fmt.Errorf("pg max_conns (%d) must be >= min_conns (%d)",
			cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	}
	if cfg.Auth.BcryptCost < 10 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range [10,31]", cfg.Auth.BcryptCost)
	}
	if cfg.Import.BatchTimeout <= 0 {
		return errors.New("import batch_timeout must be positive")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
