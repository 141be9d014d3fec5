// Package config loads extractor settings from YAML files, the environment
// and .env files.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SECEXTRACT_SEC_FROM.
const EnvPrefix = "SECEXTRACT"

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SECConfig controls how EDGAR is contacted.
type SECConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	From              string        `mapstructure:"from"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BackoffFactor     float64       `mapstructure:"backoff_factor"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the document cache backend.
type CacheConfig struct {
	Backend     string `mapstructure:"backend"` // file, sqlite, postgres, none
	Dir         string `mapstructure:"dir"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	DatabaseURL string `mapstructure:"database_url"`
}

// PipelineConfig tunes batch extraction.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

// Load reads configuration from the first config.yaml found in:
//  1. ./config
//  2. ~/.secextract
//
// A .env file in the working directory is loaded first if present.
// Environment variables override file values.
func Load() (*Config, error) {
	return load("")
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join(homeDir(), ".secextract"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: decode")
	}

	// DATABASE_URL is the conventional name; honour it when not set otherwise.
	if cfg.Cache.DatabaseURL == "" {
		cfg.Cache.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return &cfg, cfg.Validate()
}

// Validate rejects settings the extractor cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.SEC.RequestsPerSecond <= 0 || c.SEC.RequestsPerSecond > 10 {
		return eris.Errorf("config: sec.requests_per_second must be in (0, 10], got %v", c.SEC.RequestsPerSecond)
	}
	if c.Pipeline.Workers < 1 {
		return eris.Errorf("config: pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC fair-access policy: under 10 requests per second.
	v.SetDefault("sec.user_agent", "SECExtractor/1.0 (contact@example.com)")
	v.SetDefault("sec.from", "")
	v.SetDefault("sec.requests_per_second", 9.9)
	v.SetDefault("sec.max_retries", 5)
	v.SetDefault("sec.backoff_factor", 0.8)
	v.SetDefault("sec.timeout", "30s")

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", filepath.Join(".cache", "edgar", "documents"))
	v.SetDefault("cache.sqlite_path", filepath.Join(".cache", "edgar", "documents.db"))
	v.SetDefault("cache.database_url", "")

	v.SetDefault("pipeline.workers", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
