package main

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/boundary"
	kafkaadapter "github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/kafka"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/nswhealth"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/vaccination"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/animate"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/config"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/pipeline"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/render"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// newMetrics registers with the default registry; tests swap it for an
// unregistered set.
var newMetrics = observability.NewMetrics

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat), nil
}

func boundaryFields(cfg *config.Config) boundary.Fields {
	return boundary.Fields{
		Code:  cfg.BoundaryCodeField,
		Name:  cfg.BoundaryNameField,
		State: cfg.BoundaryStateField,
	}
}

// newPipeline wires every stage from cfg. The returned close function
// releases the Kafka writer when publishing is enabled.
func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, func(), error) {
	renderer, err := render.New(render.Options{
		Dir:        cfg.OutputDir,
		Width:      cfg.FrameWidth,
		Height:     cfg.FrameHeight,
		Population: cfg.VaccinationPopulation,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	stages := pipeline.Stages{
		Fetcher:   nswhealth.NewClient(cfg.CasesURL, cfg.HTTPTimeout, metrics, logger),
		Regions:   boundary.NewSource(cfg.BoundaryPath, cfg.ClassificationPath, boundaryFields(cfg), cfg.BoundaryState, logger),
		Renderer:  renderer,
		Assembler: animate.NewAssembler(cfg.FrameRate, logger),
	}
	if cfg.VaccinationPath != "" {
		stages.Vaccinations = vaccination.NewLoader(cfg.VaccinationPath, logger)
	} else {
		logger.Info("vaccination join disabled")
	}

	closeFn := func() {}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		stages.Sink = writer
		closeFn = func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("aggregate publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	opts := pipeline.Options{
		FrameDir:      cfg.OutputDir,
		AnimationPath: cfg.AnimationPath,
		ManifestPath:  cfg.ManifestPath,
	}
	return pipeline.New(stages, opts, logger, metrics), closeFn, nil
}
