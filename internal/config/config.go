package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cache store.
	CachePath      string
	CacheTTL       time.Duration
	GridResolution float64
	BulkSeedPath   string

	// LocationIQ reverse geocoding.
	LocationIQKey     string
	LocationIQBaseURL string
	GeocodeTimeout    time.Duration
	GeocodeCacheSize  int

	// Open-Meteo forecasts.
	WeatherBaseURL string
	WeatherTimeout time.Duration
	WeatherDays    int

	// OpenAI statistics generation.
	OpenAIKey         string
	OpenAIBaseURL     string
	ResearchModel     string
	ScoringModel      string
	StatisticsTimeout time.Duration

	// External risk oracle.
	OracleURL     string
	OracleTimeout time.Duration

	// Nearby towns (Overpass + FCC census block lookup).
	OverpassBaseURL  string
	CensusBaseURL    string
	NeighborsTimeout time.Duration
	NeighborRadiusM  int

	// Score weighting policy.
	WeightRisk     float64
	WeightHazard   float64
	WeightExposure float64

	// Optional Kafka assessment publishing (enabled when brokers are set).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. Missing upstream credentials fail Load; the server never
// starts without its sources.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CACHE_PATH", "burn-cache.db")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("GRID_RESOLUTION", "0.01")
	v.SetDefault("LOCATIONIQ_BASE_URL", "https://us1.locationiq.com")
	v.SetDefault("GEOCODE_TIMEOUT", "5s")
	v.SetDefault("GEOCODE_CACHE_SIZE", "1000")
	v.SetDefault("WEATHER_BASE_URL", "https://api.open-meteo.com")
	v.SetDefault("WEATHER_TIMEOUT", "5s")
	v.SetDefault("WEATHER_DAYS", "7")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_RESEARCH_MODEL", "gpt-4o-search-preview")
	v.SetDefault("OPENAI_SCORING_MODEL", "gpt-4o-mini")
	v.SetDefault("STATISTICS_TIMEOUT", "30s")
	v.SetDefault("ORACLE_TIMEOUT", "5s")
	v.SetDefault("OVERPASS_BASE_URL", "https://overpass-api.de")
	v.SetDefault("CENSUS_BASE_URL", "https://geo.fcc.gov")
	v.SetDefault("NEIGHBORS_TIMEOUT", "8s")
	v.SetDefault("NEIGHBOR_RADIUS_M", "5000")
	v.SetDefault("WEIGHT_RISK", "0.65")
	v.SetDefault("WEIGHT_HAZARD", "0.20")
	v.SetDefault("WEIGHT_EXPOSURE", "0.15")
	v.SetDefault("KAFKA_TOPIC", "burn-risk-assessments")

	shutdownTimeout, err := parseDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "CACHE_TTL")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration(v, "GEOCODE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration(v, "WEATHER_TIMEOUT")
	if err != nil {
		return nil, err
	}
	statisticsTimeout, err := parseDuration(v, "STATISTICS_TIMEOUT")
	if err != nil {
		return nil, err
	}
	oracleTimeout, err := parseDuration(v, "ORACLE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	neighborsTimeout, err := parseDuration(v, "NEIGHBORS_TIMEOUT")
	if err != nil {
		return nil, err
	}

	gridResolution, err := parseFloat(v, "GRID_RESOLUTION")
	if err != nil {
		return nil, err
	}
	weightRisk, err := parseFloat(v, "WEIGHT_RISK")
	if err != nil {
		return nil, err
	}
	weightHazard, err := parseFloat(v, "WEIGHT_HAZARD")
	if err != nil {
		return nil, err
	}
	weightExposure, err := parseFloat(v, "WEIGHT_EXPOSURE")
	if err != nil {
		return nil, err
	}

	geocodeCacheSize, err := parseInt(v, "GEOCODE_CACHE_SIZE")
	if err != nil {
		return nil, err
	}
	weatherDays, err := parseInt(v, "WEATHER_DAYS")
	if err != nil {
		return nil, err
	}
	neighborRadius, err := parseInt(v, "NEIGHBOR_RADIUS_M")
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(v.GetString("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if raw := v.GetString("KAFKA_ENABLED"); raw != "" {
		kafkaEnabled = raw == "true"
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: shutdownTimeout,

		CachePath:      v.GetString("CACHE_PATH"),
		CacheTTL:       cacheTTL,
		GridResolution: gridResolution,
		BulkSeedPath:   v.GetString("BULK_SEED_PATH"),

		LocationIQKey:     v.GetString("LOCATIONIQ_KEY"),
		LocationIQBaseURL: v.GetString("LOCATIONIQ_BASE_URL"),
		GeocodeTimeout:    geocodeTimeout,
		GeocodeCacheSize:  geocodeCacheSize,

		WeatherBaseURL: v.GetString("WEATHER_BASE_URL"),
		WeatherTimeout: weatherTimeout,
		WeatherDays:    weatherDays,

		OpenAIKey:         v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
		ResearchModel:     v.GetString("OPENAI_RESEARCH_MODEL"),
		ScoringModel:      v.GetString("OPENAI_SCORING_MODEL"),
		StatisticsTimeout: statisticsTimeout,

		OracleURL:     v.GetString("ORACLE_URL"),
		OracleTimeout: oracleTimeout,

		OverpassBaseURL:  v.GetString("OVERPASS_BASE_URL"),
		CensusBaseURL:    v.GetString("CENSUS_BASE_URL"),
		NeighborsTimeout: neighborsTimeout,
		NeighborRadiusM:  neighborRadius,

		WeightRisk:     weightRisk,
		WeightHazard:   weightHazard,
		WeightExposure: weightExposure,

		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.LocationIQKey == "" {
		return nil, errors.New("LOCATIONIQ_KEY is required")
	}
	if cfg.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if cfg.OracleURL == "" {
		return nil, errors.New("ORACLE_URL is required")
	}
	if cfg.GridResolution <= 0 || cfg.GridResolution > 1 {
		return nil, errors.New("GRID_RESOLUTION must be in (0, 1]")
	}
	if cfg.WeatherDays < 1 || cfg.WeatherDays > 16 {
		return nil, errors.New("WEATHER_DAYS must be in [1, 16]")
	}
	if cfg.NeighborRadiusM <= 0 {
		return nil, errors.New("NEIGHBOR_RADIUS_M must be positive")
	}
	for name, w := range map[string]float64{"WEIGHT_RISK": cfg.WeightRisk, "WEIGHT_HAZARD": cfg.WeightHazard, "WEIGHT_EXPOSURE": cfg.WeightExposure} {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%s must be in [0, 1]", name)
		}
	}
	weightSum := cfg.WeightRisk + cfg.WeightHazard + cfg.WeightExposure
	if weightSum <= 0 || weightSum > 1 {
		return nil, errors.New("score weights must sum to a value in (0, 1]")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(v *viper.Viper, key string) (float64, error) {
	f, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// parseBrokers splits a comma-separated broker list, dropping empties.
func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
