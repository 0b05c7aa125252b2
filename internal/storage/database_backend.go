package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/taskboard/internal/db"
	"github.com/randalmurphal/taskboard/internal/order"
)

// DatabaseBackend stores the board in SQLite or PostgreSQL.
// It holds no locks; concurrent moves are arbitrated by the version check
// in CommitMove.
type DatabaseBackend struct {
	db       *db.DB
	assigner *order.Assigner
	logger   *slog.Logger
}

// Option configures a DatabaseBackend.
type Option func(*DatabaseBackend)

// WithLogger sets the logger for warnings and debug messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *DatabaseBackend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithOrderOptions sets the spacing used when appending new tasks.
func WithOrderOptions(opts order.Options) Option {
	return func(b *DatabaseBackend) {
		b.assigner = order.NewAssigner(opts)
	}
}

// NewDatabaseBackend wraps an open database. The backend takes ownership
// and closes it on Close.
func NewDatabaseBackend(d *db.DB, opts ...Option) *DatabaseBackend {
	b := &DatabaseBackend{
		db:       d,
		assigner: order.NewAssigner(order.DefaultOptions()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewInMemoryBackend creates a backend over an in-memory SQLite database
// with the schema applied.
func NewInMemoryBackend(opts ...Option) (*DatabaseBackend, error) {
	d, err := db.OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	return NewDatabaseBackend(d, opts...), nil
}

// DB returns the underlying database for direct access.
func (b *DatabaseBackend) DB() *db.DB {
	return b.db
}

// Ping verifies the database is reachable.
func (b *DatabaseBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

// Close closes the database.
func (b *DatabaseBackend) Close() error {
	return b.db.Close()
}
