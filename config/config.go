// Package config loads the crudl server configuration from defaults, an
// optional YAML file and CRUDL_ environment variables, and reloads it when
// the file changes.
package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/syssam/crudl/dialect"
)

// Config represents the crudl server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents the HTTP server configuration.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Route       string        `mapstructure:"route"`
	Playground  bool          `mapstructure:"playground"`
	Metrics     bool          `mapstructure:"metrics"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// StoreConfig represents the document store configuration. DSN is the
// database source for SQL dialects and the server address for redis.
type StoreConfig struct {
	Dialect       string        `mapstructure:"dialect"`
	DSN           string        `mapstructure:"dsn"`
	Prefix        string        `mapstructure:"prefix"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// LoggingConfig represents the logger configuration. Level and Format can
// be changed without restart.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var dialects = []string{dialect.Memory, dialect.SQLite, dialect.Postgres, dialect.MySQL, dialect.Redis}

// Load loads the configuration. An empty path reads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.route", "/graphql")
	v.SetDefault("server.playground", true)
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("store.dialect", dialect.Memory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.prefix", "crudl:")
	v.SetDefault("store.slow_threshold", 100*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("crudl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(dialects, c.Store.Dialect) {
		errs = append(errs, fmt.Errorf("store.dialect must be one of %v, got %q", dialects, c.Store.Dialect))
	}
	if c.Store.Dialect != dialect.Memory && c.Store.DSN == "" {
		errs = append(errs, fmt.Errorf("store.dsn is required for dialect %q", c.Store.Dialect))
	}
	if !strings.HasPrefix(c.Server.Route, "/") {
		errs = append(errs, fmt.Errorf("server.route must start with '/', got %q", c.Server.Route))
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured log level, info when invalid.
func (l LoggingConfig) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Logger returns a logger writing to w in the configured format.
func (l LoggingConfig) Logger(w io.Writer) zerolog.Logger {
	if l.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(l.LogLevel()).With().Timestamp().Logger()
}
