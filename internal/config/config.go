// Package config provides configuration management for taskboard.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/taskboard/internal/db/driver"
	"github.com/randalmurphal/taskboard/internal/order"
)

// ConfigFileName is the config file looked up by the CLI.
const ConfigFileName = "taskboard.yaml"

// Config is the full taskboard configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Board    BoardConfig    `yaml:"board"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// BoardCacheTTL bounds how long a rendered board may be served from
	// cache. Moves invalidate the affected project immediately.
	BoardCacheTTL time.Duration `yaml:"board_cache_ttl"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig defines database connection settings.
type DatabaseConfig struct {
	// Driver is the database type: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`

	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// SQLiteConfig defines SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` // Use env TASKBOARD_DB_PASSWORD
	SSLMode  string `yaml:"ssl_mode"`
}

// BoardConfig tunes the move engine.
type BoardConfig struct {
	// OrderSpacing is the gap between neighbours after a column is
	// renormalised, and the step used when appending.
	OrderSpacing float64 `yaml:"order_spacing"`
	// OrderMinGap is the narrowest gap that is still split at its midpoint.
	OrderMinGap float64 `yaml:"order_min_gap"`
}

// OrderOptions converts the board settings for the order package.
func (b BoardConfig) OrderOptions() order.Options {
	return order.Options{Spacing: b.OrderSpacing, MinGap: b.OrderMinGap}
}

// LogConfig defines logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BoardCacheTTL:   30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: string(driver.DialectSQLite),
			SQLite: SQLiteConfig{
				Path: "data/taskboard.db",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "taskboard",
				User:     "taskboard",
				SSLMode:  "disable",
			},
			AutoMigrate: true,
		},
		Board: BoardConfig{
			OrderSpacing: order.DefaultSpacing,
			OrderMinGap:  order.DefaultMinGap,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dialect returns the configured database dialect.
func (c *Config) Dialect() (driver.Dialect, error) {
	return driver.ParseDialect(c.Database.Driver)
}

// DSN returns the connection string for the configured driver: the file
// path for SQLite, a postgres:// URL for PostgreSQL.
func (c *Config) DSN() string {
	d, err := c.Dialect()
	if err != nil || d == driver.DialectSQLite {
		return c.Database.SQLite.Path
	}

	pg := c.Database.Postgres
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(pg.Host, strconv.Itoa(pg.Port)),
		Path:   "/" + pg.Database,
	}
	if pg.Password != "" {
		u.User = url.UserPassword(pg.User, pg.Password)
	} else if pg.User != "" {
		u.User = url.User(pg.User)
	}
	if pg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {pg.SSLMode}}.Encode()
	}
	return u.String()
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Dialect(); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if d, _ := c.Dialect(); d == driver.DialectSQLite && strings.TrimSpace(c.Database.SQLite.Path) == "" {
		return fmt.Errorf("database.sqlite.path is required for the sqlite driver")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.BoardCacheTTL < 0 {
		return fmt.Errorf("server.board_cache_ttl must not be negative")
	}
	if c.Board.OrderSpacing <= 0 {
		return fmt.Errorf("board.order_spacing must be positive, got %v", c.Board.OrderSpacing)
	}
	if c.Board.OrderMinGap <= 0 || c.Board.OrderMinGap >= c.Board.OrderSpacing {
		return fmt.Errorf("board.order_min_gap must be positive and below order_spacing, got %v", c.Board.OrderMinGap)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
