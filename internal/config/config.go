// Package config loads service settings from environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sidetalker/rental-registry/internal/domain"
)

// Default Summit County endpoints. The registry layer powers the county's
// public STR map; the referer header must match the county GIS host for
// cross-domain queries to succeed.
const (
	defaultLayerURL = "https://services6.arcgis.com/dmNYNuTJZDtkcRJq/arcgis/rest/services/" +
		"STR_Licenses_October_2025_public_view_layer/FeatureServer/0"
	defaultReferer = "https://experience.arcgis.com/experience/706a6886322445479abadb904db00bc0/"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// ArcGIS registry layer.
	LayerURL           string
	Referer            string
	Where              string
	OutFields          string
	PageSize           int
	MaxRecords         int // 0 = unlimited
	ArcGISTimeout      time.Duration
	SearchLat          float64
	SearchLng          float64
	SearchRadiusM      float64 // 0 disables the spatial envelope filter
	SplitBySubdivision bool

	// Municipal rosters.
	RostersEnabled      bool
	RosterOverridesPath string

	// Persistence.
	SqlitePath string

	// Optional Kafka listing-change publishing.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// Service.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	SyncInterval    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	arcgisTimeout, err := durationEnv("ARCGIS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	syncInterval, err := durationEnv("SYNC_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	pageSize, err := intEnv("ARCGIS_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	maxRecords, err := intEnv("ARCGIS_MAX_RECORDS", 0)
	if err != nil {
		return nil, err
	}

	searchLat, err := floatEnv("SEARCH_LAT", 0)
	if err != nil {
		return nil, err
	}
	searchLng, err := floatEnv("SEARCH_LNG", 0)
	if err != nil {
		return nil, err
	}
	searchRadius, err := floatEnv("SEARCH_RADIUS_M", 0)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	sinkTopic := os.Getenv("KAFKA_SINK_TOPIC")
	kafkaEnabled := len(brokers) > 0 && sinkTopic != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		LayerURL:           envOrDefault("ARCGIS_LAYER_URL", defaultLayerURL),
		Referer:            envOrDefault("ARCGIS_REFERER", defaultReferer),
		Where:              envOrDefault("ARCGIS_WHERE", "1=1"),
		OutFields:          envOrDefault("ARCGIS_OUT_FIELDS", "*"),
		PageSize:           pageSize,
		MaxRecords:         maxRecords,
		ArcGISTimeout:      arcgisTimeout,
		SearchLat:          searchLat,
		SearchLng:          searchLng,
		SearchRadiusM:      searchRadius,
		SplitBySubdivision: os.Getenv("ARCGIS_SPLIT_BY_SUBDIVISION") == "true",

		RostersEnabled:      os.Getenv("ROSTERS_ENABLED") == "true",
		RosterOverridesPath: os.Getenv("ROSTER_SOURCES"),

		SqlitePath: envOrDefault("SQLITE_PATH", "data/listings.db"),

		KafkaBrokers:   brokers,
		KafkaSinkTopic: sinkTopic,
		KafkaEnabled:   kafkaEnabled,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		SyncInterval:    syncInterval,
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.LayerURL == "" {
		return nil, errors.New("ARCGIS_LAYER_URL is required")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("ARCGIS_PAGE_SIZE must be positive")
	}
	if cfg.KafkaEnabled && (len(cfg.KafkaBrokers) == 0 || cfg.KafkaSinkTopic == "") {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS or KAFKA_SINK_TOPIC is not set")
	}
	return cfg, nil
}

// RosterSources merges the built-in municipal roster configuration with the
// optional JSON override file. Overrides replace built-ins with the same
// municipality (case-insensitive) and may add new ones.
func (c *Config) RosterSources() ([]domain.RosterSource, error) {
	sources := domain.DefaultRosterSources()
	if c.RosterOverridesPath == "" {
		return sources, nil
	}

	data, err := os.ReadFile(c.RosterOverridesPath)
	if err != nil {
		return nil, fmt.Errorf("read roster overrides: %w", err)
	}
	var overrides []domain.RosterSource
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse roster overrides: %w", err)
	}

	byKey := make(map[string]int, len(sources))
	for i, source := range sources {
		byKey[strings.ToLower(source.Municipality)] = i
	}
	for _, override := range overrides {
		if override.Municipality == "" || override.LayerURL == "" {
			continue
		}
		if i, ok := byKey[strings.ToLower(override.Municipality)]; ok {
			sources[i] = override
			continue
		}
		byKey[strings.ToLower(override.Municipality)] = len(sources)
		sources = append(sources, override)
	}
	return sources, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
