package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch cases, render one frame per day and assemble the animation",
	Long: `Runs the pipeline once: fetch case records, load and classify LGA
boundaries, join vaccination snapshots, render a frame per date into
OUTPUT_DIR, assemble ANIMATION_PATH and write MANIFEST_PATH.

When METRICS_TEXTFILE is set the run's metrics are written there in the
Prometheus text format, whether or not the run succeeded.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
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

	summary, runErr := p.Run(ctx)
	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			logger.Error("metrics textfile", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d frames (%s to %s) -> %s\n",
		summary.FramesRendered,
		summary.FirstDate.Format(domain.DateLayout),
		summary.LastDate.Format(domain.DateLayout),
		cfg.AnimationPath,
	)
	return nil
}
