package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/theme"
)

// DefaultGeoJSONURL is the US state boundary set used by the choropleth.
const DefaultGeoJSONURL = "https://raw.githubusercontent.com/python-visualization/folium/master/examples/data/us-states.json"

// Config is passed explicitly to the dashboard pipeline and report assembler.
type Config struct {
	Server  ServerConfig
	Paths   PathConfig
	Report  ReportConfig
	GeoJSON string
}

type ServerConfig struct {
	Port        string
	HTTPTimeout time.Duration
}

type PathConfig struct {
	Dataset   string
	Stopwords string
	Logo      string
}

// ReportConfig holds the knobs shared by the dashboard and the document report.
type ReportConfig struct {
	Theme       string
	TopStates   int
	TopProducts int
	TopCities   int
	SampleSize  int
	// Seed pins comment sampling; nil means a fresh random source per request.
	Seed *int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Paths: PathConfig{
			Dataset:   getEnvOrDefault("DATASET_PATH", "complaints.xlsx"),
			Stopwords: getEnvOrDefault("STOPWORDS_PATH", "stop_words_english.txt"),
			Logo:      getEnvOrDefault("LOGO_PATH", "logo.jpg"),
		},
		Report: ReportConfig{
			Theme: strings.ToLower(getEnvOrDefault("REPORT_THEME", "corporate")),
		},
		GeoJSON: getEnvOrDefault("GEOJSON_URL", DefaultGeoJSONURL),
	}

	timeoutSec, err := getEnvInt("HTTP_TIMEOUT_SEC", 15)
	if err != nil {
		return nil, err
	}
	cfg.Server.HTTPTimeout = time.Duration(timeoutSec) * time.Second

	if cfg.Report.TopStates, err = getEnvInt("TOP_STATES", 5); err != nil {
		return nil, err
	}
	if cfg.Report.TopProducts, err = getEnvInt("TOP_PRODUCTS", 10); err != nil {
		return nil, err
	}
	if cfg.Report.TopCities, err = getEnvInt("TOP_CITIES", 10); err != nil {
		return nil, err
	}
	if cfg.Report.SampleSize, err = getEnvInt("SAMPLE_SIZE", 3); err != nil {
		return nil, err
	}
	if v := os.Getenv("SAMPLE_SEED"); v != "" {
		seed, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			return nil, apperrors.ConfigInvalid("SAMPLE_SEED must be an integer")
		}
		cfg.Report.Seed = &seed
	}

	if err := validate(cfg); err != nil {
		return nil, apperrors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", HTTPTimeout: 15 * time.Second},
		Paths: PathConfig{
			Dataset:   "complaints.xlsx",
			Stopwords: "stop_words_english.txt",
			Logo:      "logo.jpg",
		},
		Report: ReportConfig{
			Theme:       "corporate",
			TopStates:   5,
			TopProducts: 10,
			TopCities:   10,
			SampleSize:  3,
		},
		GeoJSON: DefaultGeoJSONURL,
	}
}

func validate(cfg *Config) error {
	if _, err := theme.ByName(cfg.Report.Theme); err != nil {
		return err
	}
	if cfg.Report.TopStates <= 0 || cfg.Report.TopProducts <= 0 || cfg.Report.TopCities <= 0 {
		return apperrors.ConfigInvalid("top-N sizes must be positive")
	}
	if cfg.Report.SampleSize < 0 {
		return apperrors.ConfigInvalid("SAMPLE_SIZE must not be negative")
	}
	if cfg.Server.HTTPTimeout <= 0 {
		return apperrors.ConfigInvalid("HTTP_TIMEOUT_SEC must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.ConfigInvalid(key + " must be an integer")
	}
	return n, nil
}
