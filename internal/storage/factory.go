package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/taskboard/internal/config"
	"github.com/randalmurphal/taskboard/internal/db"
)

// NewBackend opens the database described by cfg. Pending migrations are
// applied when cfg.Database.AutoMigrate is set.
func NewBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DatabaseBackend, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	d, err := db.Open(dialect, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if cfg.Database.AutoMigrate {
		if err := d.Migrate(ctx); err != nil {
			_ = d.Close()
			return nil, err
		}
	}

	return NewDatabaseBackend(d,
		WithLogger(logger),
		WithOrderOptions(cfg.Board.OrderOptions()),
	), nil
}
