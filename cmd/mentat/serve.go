package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mentat/internal/httpapi"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serveCmd runs the read-only HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
	Long: `Start an HTTP server exposing the learning state: /health,
/api/v1/stats, /api/v1/evolution, /api/v1/patterns, and Prometheus
metrics on /metrics. The server is read-only; all writes go through the
CLI or the MCP tools.

Shuts down gracefully on SIGINT or SIGTERM.

Examples:
  # Serve on the configured address (default localhost:8484)
  mentat serve

  # Different port via environment
  MENTAT_SERVER_HTTP_PORT=9090 mentat serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, svc, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Container-aware GOMAXPROCS; noisy default logger is not wanted here
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
		logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	server, err := httpapi.NewServer(svc, logger, &httpapi.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("serving HTTP API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
