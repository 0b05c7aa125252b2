package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestApplyEnvVars(t *testing.T) {
	t.Setenv("TASKBOARD_DB_DRIVER", "postgres")
	t.Setenv("TASKBOARD_DB_PORT", "6543")
	t.Setenv("TASKBOARD_DB_PASSWORD", "pw")
	t.Setenv("TASKBOARD_DB_AUTO_MIGRATE", "no")
	t.Setenv("TASKBOARD_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TASKBOARD_ORDER_MIN_GAP", "0.001")

	cfg := Default()
	overridden := ApplyEnvVars(cfg)

	want := []string{
		"board.order_min_gap",
		"database.auto_migrate",
		"database.driver",
		"database.postgres.password",
		"database.postgres.port",
		"server.shutdown_timeout",
	}
	if strings.Join(overridden, ",") != strings.Join(want, ",") {
		t.Errorf("overridden = %v, want %v", overridden, want)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Database.AutoMigrate {
		t.Error("AutoMigrate should be false")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Board.OrderMinGap != 0.001 {
		t.Errorf("OrderMinGap = %v", cfg.Board.OrderMinGap)
	}
}

func TestApplyEnvVars_IgnoresUnparseable(t *testing.T) {
	t.Setenv("TASKBOARD_PORT", "eighty")
	t.Setenv("TASKBOARD_READ_TIMEOUT", "soon")

	cfg := Default()
	overridden := ApplyEnvVars(cfg)

	if len(overridden) != 0 {
		t.Errorf("overridden = %v, want none", overridden)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "on"} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"false", "0", "off", "nah"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true", s)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "task", "T-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"task":"T-1"`) {
		t.Errorf("json output missing attribute: %s", out)
	}
}
