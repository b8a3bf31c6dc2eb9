package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- mocks ---

type mockFetcher struct {
	records []domain.CaseRecord
	err     error
}

func (m *mockFetcher) FetchCases(_ context.Context) ([]domain.CaseRecord, error) {
	return m.records, m.err
}

type mockRegions struct {
	set    domain.RegionSet
	report domain.ClassifyReport
	err    error
}

func (m *mockRegions) LoadRegions() (domain.RegionSet, domain.ClassifyReport, error) {
	return m.set, m.report, m.err
}

type mockVaccinations struct {
	snaps []domain.VaccinationSnapshot
}

func (m *mockVaccinations) LoadVaccinations() ([]domain.VaccinationSnapshot, error) {
	return m.snaps, nil
}

type mockRenderer struct {
	dir      string
	frames   []domain.Frame
	maxCount []int
}

func (m *mockRenderer) RenderFrame(frame domain.Frame, maxCount int) (string, error) {
	m.frames = append(m.frames, frame)
	m.maxCount = append(m.maxCount, maxCount)
	path := filepath.Join(m.dir, frame.FileName())
	return path, os.WriteFile(path, []byte("png"), 0o644)
}

type mockAssembler struct {
	dir, out string
	listed   []string
}

func (m *mockAssembler) Assemble(dir, out string) (int, error) {
	m.dir, m.out = dir, out
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		m.listed = append(m.listed, e.Name())
	}
	return len(entries), nil
}

type mockSink struct {
	rows []domain.DailyAggregate
	err  error
}

func (m *mockSink) PublishAggregates(_ context.Context, rows []domain.DailyAggregate) error {
	m.rows = append(m.rows, rows...)
	return m.err
}

// --- helpers ---

func day(d int) time.Time {
	return time.Date(2021, time.July, d, 0, 0, 0, 0, time.UTC)
}

func testRegions() domain.RegionSet {
	return domain.NewRegionSet([]domain.Region{
		{Code: "17200", Name: "Sydney", Class: domain.ClassCapital},
		{Code: "10800", Name: "Bathurst Regional", Class: domain.ClassOther},
	})
}

func testRecords() []domain.CaseRecord {
	return []domain.CaseRecord{
		{Date: day(1), RegionCode: "17200", RegionName: "Sydney (C)"},
		{Date: day(1), RegionCode: "17200", RegionName: "Sydney (C)"},
		{Date: day(1), RegionCode: "10800", RegionName: "Bathurst Regional (A)"},
		{Date: day(2), RegionCode: "10800", RegionName: "Bathurst Regional (A)"},
		{Date: day(2)},
		{Date: day(2), RegionCode: "99999", RegionName: "Correctional settings"},
	}
}

type fixture struct {
	fetcher   *mockFetcher
	regions   *mockRegions
	renderer  *mockRenderer
	assembler *mockAssembler
	sink      *mockSink
	opts      pipeline.Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	out := t.TempDir()
	frames := filepath.Join(out, "frames")
	require.NoError(t, os.MkdirAll(frames, 0o755))
	return &fixture{
		fetcher:   &mockFetcher{records: testRecords()},
		regions:   &mockRegions{set: testRegions(), report: domain.ClassifyReport{OutsideState: 3}},
		renderer:  &mockRenderer{dir: frames},
		assembler: &mockAssembler{},
		sink:      &mockSink{},
		opts: pipeline.Options{
			FrameDir:      frames,
			AnimationPath: filepath.Join(out, "cases.gif"),
			ManifestPath:  filepath.Join(out, "manifest.yaml"),
		},
	}
}

func (f *fixture) pipeline(vacc pipeline.VaccinationSource) *pipeline.Pipeline {
	stages := pipeline.Stages{
		Fetcher:      f.fetcher,
		Regions:      f.regions,
		Vaccinations: vacc,
		Renderer:     f.renderer,
		Assembler:    f.assembler,
		Sink:         f.sink,
	}
	return pipeline.New(stages, f.opts, slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2021, time.November, 10, 9, 30, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	f := newFixture(t)
	p := f.pipeline(nil)
	require.Error(t, p.CheckReadiness(context.Background()))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FramesRendered)
	assert.Equal(t, 2, summary.AnimationFrames)
	assert.Equal(t, day(1), summary.FirstDate)
	assert.Equal(t, day(2), summary.LastDate)
	assert.Equal(t, 6, summary.RecordsFetched)
	assert.Equal(t, 1, summary.RecordsWithoutRegion)
	assert.Equal(t, 1, summary.RecordsUnknownRegion)
	assert.Equal(t, 4, summary.RecordsMapped())
	assert.Equal(t, 2, summary.MaxCount)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	// Every frame shares the same colour ceiling.
	assert.Equal(t, []int{2, 2}, f.renderer.maxCount)
	assert.Equal(t, f.opts.FrameDir, f.assembler.dir)
	assert.Equal(t, f.opts.AnimationPath, f.assembler.out)

	// The sink sees the full aggregate table, unknown codes included.
	assert.Len(t, f.sink.rows, 4)
	assert.Equal(t, 4, summary.AggregatesPublished)

	data, err := os.ReadFile(f.opts.ManifestPath)
	require.NoError(t, err)
	var m pipeline.Manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.True(t, clock.Now().Equal(m.GeneratedAt))
	assert.Equal(t, "2021-07-01", m.FirstDate)
	assert.Equal(t, "2021-07-02", m.LastDate)
	assert.Equal(t, 2, m.Frames)
	assert.Equal(t, 4, m.Records.Mapped)
	assert.Equal(t, []string{"99999"}, m.Records.UnknownRegionCodes)
	assert.Equal(t, 3, m.Regions.OutsideState)
	assert.Equal(t, 4, m.Published)
}

func TestPipeline_Run_VaccinationJoinDropsDates(t *testing.T) {
	f := newFixture(t)
	vacc := &mockVaccinations{snaps: []domain.VaccinationSnapshot{
		{Date: day(2), FirstDoseCumulative: 10, SecondDoseCumulative: 5},
	}}

	summary, err := f.pipeline(vacc).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.renderer.frames, 1)
	frame := f.renderer.frames[0]
	assert.Equal(t, day(2), frame.Date)
	require.NotNil(t, frame.Vaccination)
	assert.Equal(t, int64(10), frame.Vaccination.FirstDoseCumulative)
	if diff := cmp.Diff([]time.Time{day(1)}, summary.DatesWithoutVaccination); diff != "" {
		t.Fatalf("dropped dates mismatch (-want +got):\n%s", diff)
	}
	// Day 1 was dropped but its count still sets the ceiling.
	assert.Equal(t, []int{2}, f.renderer.maxCount)
}

func TestPipeline_Run_ZeroFillsEveryRegion(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline(nil).Run(context.Background())
	require.NoError(t, err)

	day2 := f.renderer.frames[1]
	require.Len(t, day2.Capital, 1)
	require.Len(t, day2.Other, 1)
	assert.Equal(t, "17200", day2.Capital[0].Region.Code)
	assert.Zero(t, day2.Capital[0].Count)
	assert.Equal(t, 1, day2.Other[0].Count)
}

func TestPipeline_Run_RemovesStaleFrames(t *testing.T) {
	f := newFixture(t)
	stale := filepath.Join(f.opts.FrameDir, "2020-03-01.png")
	other := filepath.Join(f.opts.FrameDir, "legend.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	summary, err := f.pipeline(nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.StaleFramesRemoved)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, other)
	assert.ElementsMatch(t, []string{"2021-07-01.png", "2021-07-02.png", "legend.png"}, f.assembler.listed)
}

func TestPipeline_Run_FetchError(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errors.New("503 service unavailable")
	p := f.pipeline(nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch cases")
	assert.Empty(t, f.renderer.frames)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.NoFileExists(t, f.opts.ManifestPath)
}

func TestPipeline_Run_RegionError(t *testing.T) {
	f := newFixture(t)
	f.regions.err = errors.New("no such file")

	_, err := f.pipeline(nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load regions")
}

func TestPipeline_Run_SinkError(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("broker down")
	p := f.pipeline(nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish aggregates")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_NoDrawableDates(t *testing.T) {
	f := newFixture(t)
	vacc := &mockVaccinations{snaps: []domain.VaccinationSnapshot{{Date: day(30)}}}

	_, err := f.pipeline(vacc).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.renderer.frames)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline(nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.renderer.frames)
}

func TestPipeline_Run_WithoutManifestOrSink(t *testing.T) {
	f := newFixture(t)
	f.opts.ManifestPath = ""
	stages := pipeline.Stages{
		Fetcher:   f.fetcher,
		Regions:   f.regions,
		Renderer:  f.renderer,
		Assembler: f.assembler,
	}
	summary, err := pipeline.New(stages, f.opts, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.AggregatesPublished)
}

func TestPlan_Report(t *testing.T) {
	classified := domain.ClassifyReport{OutsideState: 2, Unclassified: []string{"Unincorporated NSW"}}
	rows, plan, report := pipeline.Plan(testRecords(), testRegions(), classified, nil)

	want := domain.Report{
		RecordsFetched:       6,
		RecordsWithoutRegion: 1,
		RecordsUnknownRegion: 1,
		UnknownRegionCodes:   []string{"99999"},
		RegionsLoaded:        2,
		RegionsOutsideState:  2,
		RegionsUnclassified:  []string{"Unincorporated NSW"},
		FramesPlanned:        2,
		MaxCount:             2,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, rows, 4)
	assert.Len(t, plan.Frames, 2)
}
