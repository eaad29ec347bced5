package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/burn-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/burn-risk/internal/adapter/kafka"
	"github.com/couchcryptid/burn-risk/internal/adapter/locationiq"
	"github.com/couchcryptid/burn-risk/internal/adapter/openai"
	"github.com/couchcryptid/burn-risk/internal/adapter/openmeteo"
	"github.com/couchcryptid/burn-risk/internal/adapter/oracle"
	"github.com/couchcryptid/burn-risk/internal/adapter/overpass"
	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/config"
	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
	"github.com/couchcryptid/burn-risk/internal/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := cache.NewSQLiteStore(cfg.CachePath, logger)
	if err != nil {
		logger.Error("failed to open cache store", "path", cfg.CachePath, "error", err)
		os.Exit(1)
	}

	if cfg.BulkSeedPath != "" {
		if err := seedIfEmpty(context.Background(), store, cfg, logger); err != nil {
			logger.Error("bulk seed failed", "path", cfg.BulkSeedPath, "error", err)
			os.Exit(1)
		}
	}

	geocoder := locationiq.NewCachedGeocoder(
		locationiq.NewClient(cfg.LocationIQKey, cfg.LocationIQBaseURL, cfg.GeocodeTimeout, metrics, logger),
		cfg.GridResolution,
		cfg.GeocodeCacheSize,
	)
	weather := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
	generator := openai.NewGenerator(
		openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.StatisticsTimeout, metrics, logger),
		cfg.ResearchModel,
		cfg.ScoringModel,
		metrics,
		logger,
	)
	riskOracle := oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout, metrics, logger)
	neighbors := overpass.NewClient(cfg.OverpassBaseURL, cfg.CensusBaseURL, cfg.NeighborRadiusM, cfg.NeighborsTimeout, metrics, logger)

	// Publishing is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var publisher orchestrator.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, metrics, logger)
		publisher = kafkaPublisher
		logger.Info("assessment publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("assessment publishing disabled")
	}

	orch := orchestrator.New(store, orchestrator.Sources{
		Geocoder:  geocoder,
		Weather:   weather,
		Generator: generator,
		Oracle:    riskOracle,
		Neighbors: neighbors,
	}, publisher, orchestrator.Options{
		GridResolution: cfg.GridResolution,
		TTL:            cfg.CacheTTL,
		WeatherDays:    cfg.WeatherDays,
		Weights: domain.ScoreWeights{
			Risk:     cfg.WeightRisk,
			Hazard:   cfg.WeightHazard,
			Exposure: cfg.WeightExposure,
		},
		Timeouts: orchestrator.Timeouts{
			Geocode:    cfg.GeocodeTimeout,
			Weather:    cfg.WeatherTimeout,
			Statistics: cfg.StatisticsTimeout,
			Oracle:     cfg.OracleTimeout,
			Neighbors:  cfg.NeighborsTimeout,
		},
	}, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("cache store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// seedIfEmpty imports the bulk seed document on first boot. A store that
// already holds entries is left untouched.
func seedIfEmpty(ctx context.Context, store cache.Store, cfg *config.Config, logger *slog.Logger) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("cache already seeded", "entries", count)
		return nil
	}

	data, err := os.ReadFile(cfg.BulkSeedPath)
	if err != nil {
		return err
	}
	imported, err := cache.ImportBulk(ctx, store, data, cfg.GridResolution, cfg.CacheTTL)
	if err != nil {
		return err
	}
	logger.Info("cache seeded from bulk document", "path", cfg.BulkSeedPath, "records", imported)
	return nil
}
