package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultCasesURL selects the date and LGA columns of the NSW Health
// "COVID-19 cases by notification date and LGA" dataset.
const DefaultCasesURL = "https://data.nsw.gov.au/data/api/3/action/datastore_search_sql?sql=" +
	"SELECT%20notification_date,lga_code19,lga_name19%20from%20%2221304414-1ff1-4243-a5d2-f52778048b29%22"

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	CasesURL    string
	HTTPTimeout time.Duration

	BoundaryPath       string
	BoundaryState      string
	BoundaryCodeField  string
	BoundaryNameField  string
	BoundaryStateField string
	ClassificationPath string

	VaccinationPath       string
	VaccinationPopulation int64

	OutputDir     string
	AnimationPath string
	ManifestPath  string
	FrameRate     int
	FrameWidth    int
	FrameHeight   int

	MetricsTextfile string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Aggregate publishing is enabled when KAFKA_BROKERS is set.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	population, err := strconv.ParseInt(sharedcfg.EnvOrDefault("VACCINATION_POPULATION", "6565651"), 10, 64)
	if err != nil || population <= 0 {
		return nil, errors.New("invalid VACCINATION_POPULATION")
	}

	frameRate, err := parsePositiveInt("FRAME_RATE", 4)
	if err != nil {
		return nil, err
	}
	if frameRate > 100 {
		return nil, errors.New("FRAME_RATE must be at most 100")
	}
	width, err := parsePositiveInt("FRAME_WIDTH", 1280)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveInt("FRAME_HEIGHT", 720)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CasesURL:    sharedcfg.EnvOrDefault("CASES_URL", DefaultCasesURL),
		HTTPTimeout: httpTimeout,

		BoundaryPath:       sharedcfg.EnvOrDefault("BOUNDARY_PATH", "data/LGA_2021_NSW_GDA2020.shp"),
		BoundaryState:      lookupOrDefault("BOUNDARY_STATE", "New South Wales"),
		BoundaryCodeField:  sharedcfg.EnvOrDefault("BOUNDARY_CODE_FIELD", "LGA_CODE21"),
		BoundaryNameField:  sharedcfg.EnvOrDefault("BOUNDARY_NAME_FIELD", "LGA_NAME21"),
		BoundaryStateField: sharedcfg.EnvOrDefault("BOUNDARY_STATE_FIELD", "STE_NAME21"),
		ClassificationPath: sharedcfg.EnvOrDefault("CLASSIFICATION_PATH", "data/lga_classification.csv"),

		VaccinationPath:       lookupOrDefault("VACCINATION_PATH", "data/nsw_vaccinations.csv"),
		VaccinationPopulation: population,

		OutputDir:     sharedcfg.EnvOrDefault("OUTPUT_DIR", "output/frames"),
		AnimationPath: sharedcfg.EnvOrDefault("ANIMATION_PATH", "output/nsw_covid_cases.gif"),
		ManifestPath:  sharedcfg.EnvOrDefault("MANIFEST_PATH", "output/manifest.yaml"),
		FrameRate:     frameRate,
		FrameWidth:    width,
		FrameHeight:   height,

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "nsw-covid-daily-aggregates"),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
		cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	}

	if cfg.CasesURL == "" {
		return nil, errors.New("CASES_URL is required")
	}
	if cfg.BoundaryPath == "" {
		return nil, errors.New("BOUNDARY_PATH is required")
	}
	if cfg.ClassificationPath == "" {
		return nil, errors.New("CLASSIFICATION_PATH is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// lookupOrDefault is EnvOrDefault for settings where an explicitly empty
// value is meaningful (it disables the feature).
func lookupOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

