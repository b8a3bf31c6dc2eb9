package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/httpadapter"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve frames, animation and metrics over HTTP while running once",
	Long: `Listens on HTTP_ADDR and runs the pipeline once. Routes:

  /healthz         liveness
  /readyz          readiness (ready once the run has completed)
  /metrics         Prometheus metrics
  /frames/         rendered frames
  /animation.gif   the assembled animation
  /manifest.yaml   the run manifest

Output routes answer 503 while the run is in progress. A failed run stops
the server and exits non-zero. The server stops on SIGINT or SIGTERM, draining within SHUTDOWN_TIMEOUT.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	metrics := newMetrics()

	p, closeFn, err := newPipeline(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.Outputs{
		FrameDir:      cfg.OutputDir,
		AnimationPath: cfg.AnimationPath,
		ManifestPath:  cfg.ManifestPath,
	}, logger)

	return serve(ctx, srv, func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	}, cfg.ShutdownTimeout, logger)
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve starts srv, runs the pipeline while it listens, and keeps serving
// until ctx is done. A failed run shuts the server down and returns the
// run error.
func serve(ctx context.Context, srv httpServer, run func(context.Context) error, shutdownTimeout time.Duration, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	shutdown := func() {
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
	}

	if err := run(ctx); err != nil {
		shutdown()
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	shutdown()
	return nil
}
