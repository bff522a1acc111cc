// Package config provides configuration management for the application.
// Sources are layered: built-in defaults, then an optional YAML file, then
// environment variables (a .env file is honored if present). Environment
// always wins.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"databank/internal/bytestore"
)

// DefaultConfigFile is the YAML file consulted when no -config flag is given.
const DefaultConfigFile = "databank.yaml"

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Source  SourceConfig  `yaml:"source"`
	Catalog CatalogConfig `yaml:"catalog"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// StoreConfig selects the byte store backend behind the indicator cache.
type StoreConfig struct {
	Backend  string `yaml:"backend"` // memory | file | sqlite | redis
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// SourceConfig points at the remote Data360 API.
type SourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CatalogConfig locates the local indicator metadata files.
type CatalogConfig struct {
	MetadataPath string `yaml:"metadata_path"`
	PopularPath  string `yaml:"popular_path"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Format string `yaml:"format"` // json | pretty
	Level  string `yaml:"level"`  // debug | info | warn | error
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Store: StoreConfig{
			Backend: bytestore.BackendMemory,
			Path:    ".cache/databank",
		},
		Source: SourceConfig{
			Timeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			MetadataPath: "data/metadata_indicators.json",
			PopularPath:  "data/popular_indicators.json",
		},
		Logging: LoggingConfig{Format: "json", Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Endpoint: "/metrics"},
	}
}

// Load reads configuration from the optional YAML file at path (or
// DefaultConfigFile when path is empty) and the environment.
func Load(path string) (*Config, error) {
	// Load .env into the process environment (optional, won't fail if absent)
	_ = godotenv.Load()

	cfg := defaults()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults + env cover everything.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("DATABANK_PORT", cfg.Server.Port)
	cfg.Store.Backend = getEnv("DATABANK_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = getEnv("DATABANK_STORE_PATH", cfg.Store.Path)
	cfg.Store.RedisURL = getEnv("DATABANK_REDIS_URL", cfg.Store.RedisURL)
	cfg.Store.MaxBytes = getEnvInt64("DATABANK_STORE_MAX_BYTES", cfg.Store.MaxBytes)
	cfg.Source.BaseURL = getEnv("DATABANK_SOURCE_BASE_URL", cfg.Source.BaseURL)
	cfg.Source.Timeout = getEnvDuration("DATABANK_SOURCE_TIMEOUT", cfg.Source.Timeout)
	cfg.Catalog.MetadataPath = getEnv("DATABANK_CATALOG_METADATA", cfg.Catalog.MetadataPath)
	cfg.Catalog.PopularPath = getEnv("DATABANK_CATALOG_POPULAR", cfg.Catalog.PopularPath)
	cfg.Logging.Format = getEnv("DATABANK_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getEnv("DATABANK_LOG_LEVEL", cfg.Logging.Level)
	cfg.Metrics.Enabled = getEnvBool("DATABANK_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Endpoint = getEnv("DATABANK_METRICS_ENDPOINT", cfg.Metrics.Endpoint)
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case bytestore.BackendMemory, bytestore.BackendFile, bytestore.BackendSQLite, bytestore.BackendRedis:
	default:
		return fmt.Errorf("invalid store backend %q (want memory, file, sqlite, or redis)", c.Store.Backend)
	}
	if c.Store.Backend == bytestore.BackendRedis && c.Store.RedisURL == "" {
		return fmt.Errorf("store backend redis requires DATABANK_REDIS_URL")
	}
	switch c.Logging.Format {
	case "json", "pretty":
	default:
		return fmt.Errorf("invalid log format %q (want json or pretty)", c.Logging.Format)
	}
	return nil
}
