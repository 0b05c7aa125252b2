package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvVarMapping defines the mapping between environment variables and config paths.
var EnvVarMapping = map[string]string{
	"TASKBOARD_HOST":              "server.host",
	"TASKBOARD_PORT":              "server.port",
	"TASKBOARD_READ_TIMEOUT":      "server.read_timeout",
	"TASKBOARD_WRITE_TIMEOUT":     "server.write_timeout",
	"TASKBOARD_SHUTDOWN_TIMEOUT":  "server.shutdown_timeout",
	"TASKBOARD_BOARD_CACHE_TTL":   "server.board_cache_ttl",
	"TASKBOARD_DB_DRIVER":         "database.driver",
	"TASKBOARD_DB_PATH":           "database.sqlite.path",
	"TASKBOARD_DB_HOST":           "database.postgres.host",
	"TASKBOARD_DB_PORT":           "database.postgres.port",
	"TASKBOARD_DB_NAME":           "database.postgres.database",
	"TASKBOARD_DB_USER":           "database.postgres.user",
	"TASKBOARD_DB_PASSWORD":       "database.postgres.password",
	"TASKBOARD_DB_SSL_MODE":       "database.postgres.ssl_mode",
	"TASKBOARD_DB_AUTO_MIGRATE":   "database.auto_migrate",
	"TASKBOARD_ORDER_SPACING":     "board.order_spacing",
	"TASKBOARD_ORDER_MIN_GAP":     "board.order_min_gap",
	"TASKBOARD_LOG_LEVEL":         "log.level",
	"TASKBOARD_LOG_FORMAT":        "log.format",
}

// ApplyEnvVars applies environment variable overrides to cfg.
// Returns the config paths that were overridden, sorted.
func ApplyEnvVars(cfg *Config) []string {
	var overridden []string

	for envVar, configPath := range EnvVarMapping {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if applyEnvVar(cfg, configPath, value) {
			overridden = append(overridden, configPath)
		}
	}

	sort.Strings(overridden)
	return overridden
}

// applyEnvVar applies a single environment variable to the config.
// Returns true if the value was applied; unparseable values are ignored.
func applyEnvVar(cfg *Config, path string, value string) bool {
	switch path {
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		return setInt(&cfg.Server.Port, value)
	case "server.read_timeout":
		return setDuration(&cfg.Server.ReadTimeout, value)
	case "server.write_timeout":
		return setDuration(&cfg.Server.WriteTimeout, value)
	case "server.shutdown_timeout":
		return setDuration(&cfg.Server.ShutdownTimeout, value)
	case "server.board_cache_ttl":
		return setDuration(&cfg.Server.BoardCacheTTL, value)
	case "database.driver":
		cfg.Database.Driver = value
	case "database.sqlite.path":
		cfg.Database.SQLite.Path = value
	case "database.postgres.host":
		cfg.Database.Postgres.Host = value
	case "database.postgres.port":
		return setInt(&cfg.Database.Postgres.Port, value)
	case "database.postgres.database":
		cfg.Database.Postgres.Database = value
	case "database.postgres.user":
		cfg.Database.Postgres.User = value
	case "database.postgres.password":
		cfg.Database.Postgres.Password = value
	case "database.postgres.ssl_mode":
		cfg.Database.Postgres.SSLMode = value
	case "database.auto_migrate":
		cfg.Database.AutoMigrate = parseBool(value)
	case "board.order_spacing":
		return setFloat(&cfg.Board.OrderSpacing, value)
	case "board.order_min_gap":
		return setFloat(&cfg.Board.OrderMinGap, value)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return false
	}
	return true
}

func setInt(dst *int, value string) bool {
	v, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	*dst = v
	return true
}

func setFloat(dst *float64, value string) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	*dst = v
	return true
}

func setDuration(dst *time.Duration, value string) bool {
	d, err := time.ParseDuration(value)
	if err != nil {
		return false
	}
	*dst = d
	return true
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
