// Package config defines the gorevlerim configuration: a YAML file layered
// under environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Database      Database `yaml:"database"`
	DefaultUserID string   `yaml:"default_user_id"`
	APIKey        string   `yaml:"api_key"`
	HTTP          HTTP     `yaml:"http"`
	CORS          CORS     `yaml:"cors"`
	OAuth         OAuth    `yaml:"oauth"`
	LogLevel      string   `yaml:"log_level"`
}

// Database selects and locates the store.
type Database struct {
	Driver   string `yaml:"driver"`   // "postgres" or "sqlite"
	URL      string `yaml:"url"`      // postgres URL or sqlite file path
	Password string `yaml:"password"` // overrides the URL's password
	MaxConns int    `yaml:"max_conns"`
}

// HTTP controls the API server.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// CORS is the header set applied to every HTTP response.
type CORS struct {
	AllowOrigin  string `yaml:"allow_origin"`
	AllowHeaders string `yaml:"allow_headers"`
	AllowMethods string `yaml:"allow_methods"`
}

// OAuth configures the consent redirect.
type OAuth struct {
	ConsentURL string `yaml:"consent_url"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: Database{
			Driver: DriverSQLite,
			URL:    "gorevlerim.db",
		},
		HTTP: HTTP{Addr: ":8080"},
		CORS: CORS{
			AllowOrigin:  "*",
			AllowHeaders: "authorization, x-client-info, apikey, content-type, x-api-key",
			AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		},
		OAuth:    OAuth{ConsentURL: "https://aliilkertopcu.github.io/gorevlerim/"},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DATABASE_DRIVER", &c.Database.Driver)
	set("DATABASE_URL", &c.Database.URL)
	set("DATABASE_PASSWORD", &c.Database.Password)
	set("TODO_USER_ID", &c.DefaultUserID)
	set("TODO_API_KEY", &c.APIKey)
	set("HTTP_ADDR", &c.HTTP.Addr)
	set("CONSENT_URL", &c.OAuth.ConsentURL)
	set("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("DATABASE_MAX_CONNS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DATABASE_MAX_CONNS: %w", err)
		}
		c.Database.MaxConns = n
	}
	return nil
}

// Validate reports configuration every command needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.DefaultUserID == "" {
		errs = append(errs, errors.New("default_user_id (TODO_USER_ID) is required"))
	}
	return errors.Join(errs...)
}

// ValidateServe additionally requires the static API key.
func (c *Config) ValidateServe() error {
	err := c.Validate()
	if c.APIKey == "" {
		err = errors.Join(err, errors.New("api_key (TODO_API_KEY) is required"))
	}
	return err
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
