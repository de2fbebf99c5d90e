package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Log struct {
		Level      string `koanf:"level"`
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
		MaxAgeDays int    `koanf:"max_age_days"`
	} `koanf:"log"`

	Catalog struct {
		// SourceURL is fetched when File is empty.
		SourceURL    string        `koanf:"source_url"`
		File         string        `koanf:"file"`
		FetchTimeout time.Duration `koanf:"fetch_timeout"`
	} `koanf:"catalog"`

	Metrics struct {
		Namespace string `koanf:"namespace"`
	} `koanf:"metrics"`

	Tracing struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"tracing"`
}

// Default returns the configuration used when neither a file nor the
// environment override a key.
func Default() Config {
	var cfg Config
	cfg.App.Name = "storefront"
	cfg.App.Env = "dev"
	cfg.App.HTTPAddr = ":8080"
	cfg.HTTP.ReadTimeout = 5 * time.Second
	cfg.HTTP.WriteTimeout = 10 * time.Second
	cfg.HTTP.ShutdownTimeout = 10 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 7
	cfg.Catalog.SourceURL = "https://63c10327716562671870f959.mockapi.io/products"
	cfg.Catalog.FetchTimeout = 5 * time.Second
	cfg.Metrics.Namespace = "storefront"
	return cfg
}

// Load layers, in increasing precedence: Default, the YAML file at path (if
// path is non-empty and exists), and STOREFRONT_* environment variables where
// a double underscore separates nested keys, e.g. STOREFRONT_CATALOG__FILE.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps STOREFRONT_CATALOG__FETCH_TIMEOUT to catalog.fetch_timeout.
func envKey(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("config: app.http_addr required")
	}
	if c.Catalog.SourceURL == "" && c.Catalog.File == "" {
		return fmt.Errorf("config: catalog.source_url or catalog.file required")
	}
	if c.Catalog.FetchTimeout <= 0 {
		return fmt.Errorf("config: catalog.fetch_timeout must be positive")
	}
	return nil
}
