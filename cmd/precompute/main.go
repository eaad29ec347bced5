// Command precompute walks a list of coordinates through the full resolve
// path (geocoding, weather, statistics generation, neighbor pricing) with
// fire probabilities taken from an offline classifier run instead of the live
// oracle, then exports the computed collection as a bulk JSON document
// suitable for seeding a server cache or serving from /v0.
//
// Requires the server's upstream credentials (LOCATIONIQ_KEY, OPENAI_API_KEY,
// ORACLE_URL) in the environment.
//
// Usage:
//
//	go run ./cmd/precompute \
//	  -cache precompute-cache.db \
//	  -out precomputed.json \
//	  -coords seeds/california.json \
//	  -s3-bucket burn-exports -s3-region us-west-2
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/burn-risk/internal/adapter/locationiq"
	"github.com/couchcryptid/burn-risk/internal/adapter/openai"
	"github.com/couchcryptid/burn-risk/internal/adapter/openmeteo"
	"github.com/couchcryptid/burn-risk/internal/adapter/overpass"
	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/config"
	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/export"
	"github.com/couchcryptid/burn-risk/internal/observability"
	"github.com/couchcryptid/burn-risk/internal/orchestrator"
)

// seedPoint is one precompute target: coordinates plus the classifier's
// probability for them.
type seedPoint struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Probability float64 `json:"probability"`
}

// defaultPoints is the historical California seed set with probabilities
// from the offline classifier run.
var defaultPoints = []seedPoint{
	{Lat: 39.997488, Lng: -122.705376, Probability: 0.0523},
	{Lat: 40.051387, Lng: -122.741309, Probability: 0.0523},
	{Lat: 33.448770, Lng: -116.102759, Probability: 0.0510},
	{Lat: 39.853758, Lng: -122.867073, Probability: 0.0501},
	{Lat: 41.524624, Lng: -123.639624, Probability: 0.0493},
	{Lat: 39.638162, Lng: -123.010803, Probability: 0.0493},
	{Lat: 36.556940, Lng: -119.920599, Probability: 0.0479},
	{Lat: 36.071850, Lng: -121.025527, Probability: 0.0441},
	{Lat: 41.497675, Lng: -123.666574, Probability: 0.0438},
	{Lat: 34.580647, Lng: -118.402446, Probability: 0.0428},
}

// staticOracle serves probabilities from the seed list instead of the live
// classifier, keyed by grid cell.
type staticOracle struct {
	resolution    float64
	probabilities map[string]float64
}

func newStaticOracle(points []seedPoint, resolution float64) *staticOracle {
	probs := make(map[string]float64, len(points))
	for _, p := range points {
		probs[domain.CellKey(p.Lat, p.Lng, resolution)] = p.Probability
	}
	return &staticOracle{resolution: resolution, probabilities: probs}
}

func (o *staticOracle) Probability(_ context.Context, lat, lng float64) (float64, error) {
	key := domain.CellKey(lat, lng, o.resolution)
	p, ok := o.probabilities[key]
	if !ok {
		return 0, fmt.Errorf("no precomputed probability for cell %s", key)
	}
	return domain.NormalizeUnitScale(p)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	coordsPath := flag.String("coords", "", "JSON file of {lat, lng, probability} seed points (default: built-in California set)")
	cachePath := flag.String("cache", "precompute-cache.db", "cache database to fill")
	outPath := flag.String("out", "precomputed.json", "bulk JSON document to write")
	s3Bucket := flag.String("s3-bucket", "", "optional S3 bucket to upload the document to")
	s3Region := flag.String("s3-region", "us-west-2", "S3 region")
	s3Key := flag.String("s3-key", "seeds/precomputed.json", "S3 object key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	points := defaultPoints
	if *coordsPath != "" {
		points, err = loadPoints(*coordsPath)
		if err != nil {
			return fmt.Errorf("load seed points: %w", err)
		}
	}
	if len(points) == 0 {
		return errors.New("no seed points")
	}

	store, err := cache.NewSQLiteStore(*cachePath, logger)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer store.Close()

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
	neighbors := overpass.NewClient(cfg.OverpassBaseURL, cfg.CensusBaseURL, cfg.NeighborRadiusM, cfg.NeighborsTimeout, metrics, logger)

	orch := orchestrator.New(store, orchestrator.Sources{
		Geocoder:  geocoder,
		Weather:   weather,
		Generator: generator,
		Oracle:    newStaticOracle(points, cfg.GridResolution),
		Neighbors: neighbors,
	}, nil, orchestrator.Options{
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

	ctx := context.Background()
	var computed, degraded, failed int
	for _, p := range points {
		res, err := orch.Resolve(ctx, domain.LocationQuery{Lat: p.Lat, Lng: p.Lng})
		if err != nil {
			log.Printf("resolve %g,%g failed: %v", p.Lat, p.Lng, err)
			failed++
			continue
		}
		computed++
		if res.Degraded {
			degraded++
			log.Printf("%s (%s): degraded sources %v", res.ID, res.Name, res.DegradedSources)
			continue
		}
		log.Printf("%s (%s): threat %.3f", res.ID, res.Name, res.CalculatedThreatRating)
	}
	log.Printf("computed %d records (%d degraded, %d failed)", computed, degraded, failed)
	if computed == 0 {
		return errors.New("no records computed")
	}

	areas, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("read computed records: %w", err)
	}
	data, err := json.MarshalIndent(cache.BulkDocument{Status: "success", Data: areas}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bulk document: %w", err)
	}
	data = append(data, '\n')

	if err := writeFile(*outPath, data); err != nil {
		return fmt.Errorf("write bulk document: %w", err)
	}
	log.Printf("wrote %s (%d records)", *outPath, len(areas))

	if *s3Bucket != "" {
		uploader, err := export.NewS3Uploader(ctx, *s3Region, *s3Bucket)
		if err != nil {
			return fmt.Errorf("s3 uploader: %w", err)
		}
		if err := uploader.Upload(ctx, *s3Key, data); err != nil {
			return fmt.Errorf("s3 upload: %w", err)
		}
		log.Printf("uploaded to s3://%s/%s", *s3Bucket, *s3Key)
	}
	return nil
}

func loadPoints(path string) ([]seedPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []seedPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
