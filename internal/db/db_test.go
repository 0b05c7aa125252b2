package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/taskboard/internal/db/driver"
)

func TestOpenInMemory_AppliesSchema(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"projects", "tasks", "task_dependencies", "task_events", "_migrations"} {
		var name string
		err := d.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// Re-running is a no-op.
	if err := d.Migrate(ctx); err != nil {
		t.Errorf("second Migrate: %v", err)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "board.db")

	d, err := Open(driver.DialectSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = d.Close() }()

	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if d.DSN() != path {
		t.Errorf("DSN() = %q, want %q", d.DSN(), path)
	}
	if d.Dialect() != driver.DialectSQLite {
		t.Errorf("Dialect() = %q", d.Dialect())
	}
	if err := d.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpen_UnknownDialect(t *testing.T) {
	t.Parallel()
	if _, err := Open(driver.Dialect("oracle"), "x"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestSchemaRejectsInvalidStatus(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	if _, err := d.ExecContext(ctx,
		"INSERT INTO projects (id, tenant_id, status, created_at) VALUES (?, ?, ?, ?)",
		"P-1", "T", "paused", "2026-01-01T00:00:00Z"); err == nil {
		t.Error("expected CHECK constraint to reject project status")
	}
	if _, err := d.ExecContext(ctx,
		"INSERT INTO projects (id, tenant_id, status, created_at) VALUES (?, ?, ?, ?)",
		"P-1", "T", "active", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	if _, err := d.ExecContext(ctx,
		"INSERT INTO tasks (id, tenant_id, project_id, status, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"T-1", "T", "P-1", "review", 1, "x", "x"); err == nil {
		t.Error("expected CHECK constraint to reject task status")
	}
	if _, err := d.ExecContext(ctx,
		"INSERT INTO tasks (id, tenant_id, project_id, status, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"T-1", "T", "P-1", "backlog", 0, "x", "x"); err == nil {
		t.Error("expected CHECK constraint to reject version 0")
	}
}

func TestRunInTx(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	insert := func(tx *Tx, id string) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO projects (id, tenant_id, created_at) VALUES (?, ?, ?)", id, "T", "2026-01-01T00:00:00Z")
		return err
	}

	if err := d.RunInTx(ctx, func(tx *Tx) error { return insert(tx, "P-ok") }); err != nil {
		t.Fatalf("RunInTx commit: %v", err)
	}

	boom := errors.New("boom")
	err := d.RunInTx(ctx, func(tx *Tx) error {
		if err := insert(tx, "P-rolled-back"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx error = %v, want boom", err)
	}

	var n int
	if err := d.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("projects = %d, want 1 (rollback must discard the second insert)", n)
	}
}
