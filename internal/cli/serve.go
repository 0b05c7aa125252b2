package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/taskboard/internal/api"
	"github.com/randalmurphal/taskboard/internal/storage"
)

// healthInterval is how often serve pings the database.
const healthInterval = 30 * time.Second

// newServeCmd creates the serve command for the API server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the taskboard HTTP API.

Endpoints:
  POST /api/tasks/{id}/move       Move a task between or within columns
  GET  /api/projects/{id}/board   Board grouped by column
  GET  /api/tasks/{id}/events     Move history of a task
  GET  /api/ws                    Live move events for the caller's tenant

Callers are identified by the X-Tenant-ID and X-Actor-ID headers set by the
gateway in front of the server.

Example:
  taskboard serve              # Listen on the configured address
  taskboard serve --port 3000  # Listen on a custom port`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := storage.NewBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			server, err := api.New(api.Config{
				Addr:            cfg.Server.Addr(),
				Logger:          logger,
				Backend:         backend,
				Order:           cfg.Board.OrderOptions(),
				BoardCacheTTL:   cfg.Server.BoardCacheTTL,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
			if err != nil {
				return err
			}
			defer server.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (%s database)\n", cfg.Server.Addr(), cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.StartContext(gctx)
			})
			g.Go(func() error {
				watchDatabase(gctx, backend, logger)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().String("host", "", "interface to listen on")
	cmd.Flags().IntP("port", "p", 0, "port to listen on")
	addDatabaseFlags(cmd)

	return cmd
}

// watchDatabase logs when the database stops or resumes answering pings.
func watchDatabase(ctx context.Context, backend storage.Backend, logger *slog.Logger) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := backend.Ping(ctx)
			switch {
			case err != nil && healthy:
				logger.Warn("database unreachable", "error", err)
				healthy = false
			case err == nil && !healthy:
				logger.Info("database reachable again")
				healthy = true
			}
		}
	}
}
