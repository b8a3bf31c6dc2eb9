package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
)

// CaseFetcher retrieves the raw case records.
type CaseFetcher interface {
	FetchCases(ctx context.Context) ([]domain.CaseRecord, error)
}

// RegionSource loads the classified regions frames are drawn from.
type RegionSource interface {
	LoadRegions() (domain.RegionSet, domain.ClassifyReport, error)
}

// VaccinationSource loads cumulative vaccination snapshots.
type VaccinationSource interface {
	LoadVaccinations() ([]domain.VaccinationSnapshot, error)
}

// FrameRenderer draws one frame to disk and returns its path.
type FrameRenderer interface {
	RenderFrame(frame domain.Frame, maxCount int) (string, error)
}

// SequenceAssembler combines the frames in a directory into an animation.
type SequenceAssembler interface {
	Assemble(dir, out string) (int, error)
}

// AggregateSink receives the daily aggregate table.
type AggregateSink interface {
	PublishAggregates(ctx context.Context, rows []domain.DailyAggregate) error
}

// Stages bundles the pipeline's collaborators. Vaccinations and Sink are
// optional: without Vaccinations every date is drawn with no progress bar,
// without Sink aggregates are not published.
type Stages struct {
	Fetcher      CaseFetcher
	Regions      RegionSource
	Vaccinations VaccinationSource
	Renderer     FrameRenderer
	Assembler    SequenceAssembler
	Sink         AggregateSink
}

// Options names the pipeline's outputs.
type Options struct {
	FrameDir      string
	AnimationPath string
	ManifestPath  string // empty disables the manifest
}

// Summary describes a completed run.
type Summary struct {
	domain.Report
	FirstDate           time.Time
	LastDate            time.Time
	FramesRendered      int
	StaleFramesRemoved  int
	AnimationFrames     int
	AggregatesPublished int
	Duration            time.Duration
}

// Pipeline runs fetch, aggregate, render and assemble once per Run.
type Pipeline struct {
	stages  Stages
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		stages:  stages,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the outputs are not available yet.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes every stage in order. Any stage error aborts the run; rows
// that cannot be mapped are counted and logged, not treated as errors.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "frame_dir", p.opts.FrameDir, "animation", p.opts.AnimationPath)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var summary Summary

	stageStart := time.Now()
	records, err := p.stages.Fetcher.FetchCases(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch cases: %w", err)
	}
	p.observeStage("fetch", stageStart)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	regions, classified, err := p.stages.Regions.LoadRegions()
	if err != nil {
		return summary, fmt.Errorf("load regions: %w", err)
	}
	p.observeStage("regions", stageStart)

	var vaccinations []domain.VaccinationSnapshot
	if p.stages.Vaccinations != nil {
		stageStart = time.Now()
		vaccinations, err = p.stages.Vaccinations.LoadVaccinations()
		if err != nil {
			return summary, fmt.Errorf("load vaccinations: %w", err)
		}
		p.observeStage("vaccinations", stageStart)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	rows, plan, report := Plan(records, regions, classified, vaccinations)
	p.observeStage("aggregate", stageStart)
	summary.Report = report
	p.recordReport(report)
	if len(plan.Frames) == 0 {
		return summary, errors.New("plan frames: no dates left to draw")
	}
	summary.FirstDate = plan.Frames[0].Date
	summary.LastDate = plan.Frames[len(plan.Frames)-1].Date

	stageStart = time.Now()
	keep := make(map[string]bool, len(plan.Frames))
	for _, frame := range plan.Frames {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		frameStart := time.Now()
		path, err := p.stages.Renderer.RenderFrame(frame, plan.MaxCount)
		if err != nil {
			return summary, fmt.Errorf("render %s: %w", frame.Date.Format(domain.DateLayout), err)
		}
		p.metrics.RenderDuration.Observe(time.Since(frameStart).Seconds())
		p.metrics.FramesRendered.Inc()
		keep[filepath.Base(path)] = true
		summary.FramesRendered++
	}
	p.observeStage("render", stageStart)
	summary.StaleFramesRemoved = p.removeStaleFrames(keep)

	stageStart = time.Now()
	n, err := p.stages.Assembler.Assemble(p.opts.FrameDir, p.opts.AnimationPath)
	if err != nil {
		return summary, fmt.Errorf("assemble: %w", err)
	}
	summary.AnimationFrames = n
	p.observeStage("assemble", stageStart)

	if p.stages.Sink != nil {
		stageStart = time.Now()
		if err := p.stages.Sink.PublishAggregates(ctx, rows); err != nil {
			return summary, fmt.Errorf("publish aggregates: %w", err)
		}
		summary.AggregatesPublished = len(rows)
		p.metrics.AggregatesSent.Add(float64(len(rows)))
		p.observeStage("publish", stageStart)
	}

	summary.Duration = time.Since(start)
	if p.opts.ManifestPath != "" {
		if err := writeManifest(p.opts.ManifestPath, newManifest(summary, p.opts)); err != nil {
			return summary, fmt.Errorf("write manifest: %w", err)
		}
	}

	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"frames", summary.FramesRendered,
		"first_date", summary.FirstDate.Format(domain.DateLayout),
		"last_date", summary.LastDate.Format(domain.DateLayout),
		"records_mapped", summary.RecordsMapped(),
		"max_count", summary.MaxCount,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// maxLoggedNames caps how many unmatched names or codes a warning lists.
const maxLoggedNames = 10

func (p *Pipeline) recordReport(r domain.Report) {
	p.metrics.RecordsFetched.Add(float64(r.RecordsFetched))
	p.metrics.RecordsSkipped.WithLabelValues("no_region").Add(float64(r.RecordsWithoutRegion))
	p.metrics.RecordsSkipped.WithLabelValues("unknown_region").Add(float64(r.RecordsUnknownRegion))
	p.metrics.RegionsLoaded.Set(float64(r.RegionsLoaded))
	p.metrics.RegionsDropped.WithLabelValues("outside_state").Add(float64(r.RegionsOutsideState))
	p.metrics.RegionsDropped.WithLabelValues("unclassified").Add(float64(len(r.RegionsUnclassified)))
	p.metrics.DatesDropped.Add(float64(len(r.DatesWithoutVaccination)))
	p.metrics.MaxDailyCount.Set(float64(r.MaxCount))

	if r.RecordsWithoutRegion > 0 {
		p.logger.Warn("case records without a region skipped", "count", r.RecordsWithoutRegion)
	}
	if r.RecordsUnknownRegion > 0 {
		p.logger.Warn("case records with unknown region codes skipped",
			"count", r.RecordsUnknownRegion,
			"codes", sample(r.UnknownRegionCodes),
		)
	}
	if len(r.RegionsUnclassified) > 0 {
		p.logger.Warn("regions without a classification dropped",
			"count", len(r.RegionsUnclassified),
			"names", sample(r.RegionsUnclassified),
		)
	}
	if len(r.DatesWithoutVaccination) > 0 {
		dates := make([]string, len(r.DatesWithoutVaccination))
		for i, d := range r.DatesWithoutVaccination {
			dates[i] = d.Format(domain.DateLayout)
		}
		p.logger.Warn("dates without vaccination data dropped",
			"count", len(dates),
			"dates", sample(dates),
		)
	}
	p.logger.Info("frames planned",
		"records", r.RecordsFetched,
		"regions", r.RegionsLoaded,
		"frames", r.FramesPlanned,
		"max_count", r.MaxCount,
	)
}

func sample(s []string) string {
	if len(s) <= maxLoggedNames {
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)", strings.Join(s[:maxLoggedNames], ", "), len(s)-maxLoggedNames)
}

// removeStaleFrames deletes dated frames left in the frame directory by an
// earlier run so the animation only contains this run's dates.
func (p *Pipeline) removeStaleFrames(keep map[string]bool) int {
	entries, err := os.ReadDir(p.opts.FrameDir)
	if err != nil {
		p.logger.Warn("list frame directory failed", "error", err)
		return 0
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || keep[name] || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		if _, err := domain.ParseDate(strings.TrimSuffix(name, filepath.Ext(name))); err != nil {
			continue
		}
		if err := os.Remove(filepath.Join(p.opts.FrameDir, name)); err != nil {
			p.logger.Warn("remove stale frame failed", "file", name, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		p.logger.Info("stale frames removed", "count", removed)
	}
	return removed
}
