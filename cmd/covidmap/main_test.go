package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/vaccination"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/config"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/fixture"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureEnv writes the synthetic inputs and points the environment at them.
func fixtureEnv(t *testing.T) (fixture.Paths, fixture.Summary, string) {
	t.Helper()
	in := t.TempDir()
	paths, summary, err := fixture.Write(in, fixture.DefaultOptions)
	require.NoError(t, err)

	srv := httptest.NewServer(http.FileServer(http.Dir(in)))
	t.Cleanup(srv.Close)

	out := t.TempDir()
	t.Setenv("CASES_URL", srv.URL+"/"+fixture.CasesFile)
	t.Setenv("BOUNDARY_PATH", paths.Boundaries)
	t.Setenv("BOUNDARY_STATE", fixture.State)
	t.Setenv("CLASSIFICATION_PATH", paths.Classifications)
	t.Setenv("VACCINATION_PATH", paths.Vaccinations)
	t.Setenv("OUTPUT_DIR", filepath.Join(out, "frames"))
	t.Setenv("ANIMATION_PATH", filepath.Join(out, "cases.gif"))
	t.Setenv("MANIFEST_PATH", filepath.Join(out, "manifest.yaml"))
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("FRAME_WIDTH", "640")
	t.Setenv("FRAME_HEIGHT", "400")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOG_LEVEL", "error")
	return paths, summary, out
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRunCommand(t *testing.T) {
	_, summary, out := fixtureEnv(t)
	t.Setenv("METRICS_TEXTFILE", filepath.Join(out, "covidmap.prom"))

	orig := newMetrics
	newMetrics = observability.NewMetricsForTesting
	t.Cleanup(func() { newMetrics = orig })

	stdout, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "20 frames (2021-07-02 to 2021-07-21)")

	frames, err := filepath.Glob(filepath.Join(out, "frames", "*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, summary.Dates-1)
	assert.FileExists(t, filepath.Join(out, "manifest.yaml"))
	assert.FileExists(t, filepath.Join(out, "covidmap.prom"))

	f, err := os.Open(filepath.Join(out, "cases.gif"))
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, summary.Dates-1)
}

func TestAssembleCommand(t *testing.T) {
	fixtureEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"2021-07-02.png", "2021-07-01.png"} {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(0, 0, color.Black)
		fh, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(fh, img))
		require.NoError(t, fh.Close())
	}
	out := filepath.Join(t.TempDir(), "rebuilt.gif")

	stdout, err := execute(t, "assemble", "--frames", dir, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 frames")
	assert.FileExists(t, out)
}

func TestValidateCommand_Fixture(t *testing.T) {
	fixtureEnv(t)

	stdout, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "All validations passed.")
	assert.Contains(t, stdout, "Unincorporated NSW")
	assert.Contains(t, stdout, "3 capital, 9 other, 1 outside state")
}

func TestValidateInputs_Failures(t *testing.T) {
	paths, _, _ := fixtureEnv(t)

	classes := filepath.Join(t.TempDir(), "classes.csv")
	require.NoError(t, os.WriteFile(classes, []byte("lga_name,classification\nSynthetic 04,capital\n"), 0o644))
	vacc := filepath.Join(t.TempDir(), "vacc.csv")
	require.NoError(t, os.WriteFile(vacc, []byte("date,first_dose_cumulative,second_dose_cumulative\n"+
		"2021-07-01,100,50\n"+
		"2021-07-02,90,60\n"+
		"2021-07-03,120,130\n"+
		"2021-07-04,9000000,100\n"), 0o644))
	t.Setenv("CLASSIFICATION_PATH", classes)
	t.Setenv("VACCINATION_PATH", vacc)

	cfg, err := config.Load()
	require.NoError(t, err)
	phases := validateInputs(cfg, vaccination.NewLoader(cfg.VaccinationPath, slog.Default()))
	require.Len(t, phases, 3)

	assert.True(t, phases[0].passed(), "boundary file %v", phases[0].errors)
	assert.Equal(t, paths.Boundaries, cfg.BoundaryPath)

	assert.False(t, phases[1].passed())
	assert.Contains(t, phases[1].errors, "no other regions")

	assert.False(t, phases[2].passed())
	assert.Contains(t, phases[2].errors, "2021-07-02: cumulative count decreased")
	assert.Contains(t, phases[2].errors, "2021-07-03: second doses (130) exceed first doses (120)")
	assert.Contains(t, phases[2].errors, "2021-07-04: first doses (9000000) exceed VACCINATION_POPULATION (6565651)")

	var buf bytes.Buffer
	assert.False(t, report(&buf, phases))
	assert.Contains(t, buf.String(), "Validation FAILED.")
}

func TestValidateInputs_VaccinationDisabled(t *testing.T) {
	fixtureEnv(t)
	t.Setenv("VACCINATION_PATH", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	phases := validateInputs(cfg, nil)
	require.Len(t, phases, 3)
	assert.True(t, phases[2].passed())
	assert.Contains(t, phases[2].notes[0], "disabled")
}
