package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultCasesURL, cfg.CasesURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "data/LGA_2021_NSW_GDA2020.shp", cfg.BoundaryPath)
	assert.Equal(t, "New South Wales", cfg.BoundaryState)
	assert.Equal(t, "LGA_CODE21", cfg.BoundaryCodeField)
	assert.Equal(t, "LGA_NAME21", cfg.BoundaryNameField)
	assert.Equal(t, "STE_NAME21", cfg.BoundaryStateField)
	assert.Equal(t, "data/lga_classification.csv", cfg.ClassificationPath)
	assert.Equal(t, "data/nsw_vaccinations.csv", cfg.VaccinationPath)
	assert.Equal(t, int64(6565651), cfg.VaccinationPopulation)
	assert.Equal(t, "output/frames", cfg.OutputDir)
	assert.Equal(t, "output/nsw_covid_cases.gif", cfg.AnimationPath)
	assert.Equal(t, "output/manifest.yaml", cfg.ManifestPath)
	assert.Equal(t, 4, cfg.FrameRate)
	assert.Equal(t, 1280, cfg.FrameWidth)
	assert.Equal(t, 720, cfg.FrameHeight)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "nsw-covid-daily-aggregates", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("CASES_URL", "http://localhost:9000/cases.json")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("BOUNDARY_PATH", "testdata/lga.geojson")
	t.Setenv("BOUNDARY_STATE", "")
	t.Setenv("CLASSIFICATION_PATH", "testdata/classes.csv")
	t.Setenv("VACCINATION_PATH", "testdata/vacc.csv")
	t.Setenv("VACCINATION_POPULATION", "8166000")
	t.Setenv("OUTPUT_DIR", "/tmp/frames")
	t.Setenv("ANIMATION_PATH", "/tmp/out.gif")
	t.Setenv("FRAME_RATE", "10")
	t.Setenv("FRAME_WIDTH", "800")
	t.Setenv("FRAME_HEIGHT", "600")
	t.Setenv("METRICS_TEXTFILE", "/tmp/covidmap.prom")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/cases.json", cfg.CasesURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "testdata/lga.geojson", cfg.BoundaryPath)
	assert.Empty(t, cfg.BoundaryState)
	assert.Equal(t, "testdata/classes.csv", cfg.ClassificationPath)
	assert.Equal(t, "testdata/vacc.csv", cfg.VaccinationPath)
	assert.Equal(t, int64(8166000), cfg.VaccinationPopulation)
	assert.Equal(t, "/tmp/frames", cfg.OutputDir)
	assert.Equal(t, "/tmp/out.gif", cfg.AnimationPath)
	assert.Equal(t, 10, cfg.FrameRate)
	assert.Equal(t, 800, cfg.FrameWidth)
	assert.Equal(t, 600, cfg.FrameHeight)
	assert.Equal(t, "/tmp/covidmap.prom", cfg.MetricsTextfile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidHTTPTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoad_InvalidPopulation(t *testing.T) {
	for _, v := range []string{"0", "-10", "lots"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("VACCINATION_POPULATION", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "VACCINATION_POPULATION")
		})
	}
}

func TestLoad_InvalidFrameRate(t *testing.T) {
	t.Setenv("FRAME_RATE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRAME_RATE")
}

func TestLoad_FrameRateTooHigh(t *testing.T) {
	t.Setenv("FRAME_RATE", "240")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRAME_RATE")
}

func TestLoad_InvalidFrameSize(t *testing.T) {
	t.Setenv("FRAME_WIDTH", "wide")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRAME_WIDTH")
}

func TestLoad_EmptyVaccinationPathDisablesJoin(t *testing.T) {
	t.Setenv("VACCINATION_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.VaccinationPath)
}
