package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/config"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/storage"
)

// openBackend loads the config and opens its database.
func openBackend(cmd *cobra.Command) (*config.Config, *storage.DatabaseBackend, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	backend, err := storage.NewBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, backend, logger, nil
}

// newCoordinator wires a coordinator that records every committed move in
// the backend's event log.
func newCoordinator(cfg *config.Config, backend storage.Backend, logger *slog.Logger) (*board.Coordinator, events.Publisher, error) {
	pub := events.NewPersistentPublisher(backend, logger)
	coord, err := board.NewCoordinator(board.Config{
		Tasks:    backend,
		Projects: backend,
		Events:   pub,
		Order:    cfg.Board.OrderOptions(),
		Logger:   logger,
	})
	if err != nil {
		pub.Close()
		return nil, nil, err
	}
	return coord, pub, nil
}

// addDatabaseFlags registers the flags that select a database.
func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", "", "database driver: sqlite or postgres")
	cmd.Flags().String("db", "", "SQLite database path")
}

// addCallerFlags registers the identity flags used in place of gateway
// headers.
func addCallerFlags(cmd *cobra.Command, tenant *string, actor *string) {
	cmd.Flags().StringVarP(tenant, "tenant", "t", "", "tenant the caller belongs to (required)")
	_ = cmd.MarkFlagRequired("tenant")
	if actor != nil {
		cmd.Flags().StringVar(actor, "actor", "cli", "actor recorded on events")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
