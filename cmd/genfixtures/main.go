// Command genfixtures generates a synthetic bulk assessment document for
// exercising the import path, /v0 serving, and cmd/validate without live
// upstream calls. Identity fields derive from the grid cell the same way the
// resolve pipeline derives them, so generated documents pass validation.
//
// Usage:
//
//	go run ./cmd/genfixtures -n 50 -seed 1 -out testdata/bulk_fixture.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/jaswdr/faker"
)

// baseDate anchors the synthetic forecast windows so fixtures do not churn
// on regeneration.
var baseDate = time.Date(2026, time.August, 22, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 50, "number of records to generate")
	seed := flag.Int64("seed", 1, "random seed")
	out := flag.String("out", "testdata/bulk_fixture.json", "output path for the bulk document")
	resolution := flag.Float64("resolution", domain.DefaultGridResolution, "grid resolution")
	degradedShare := flag.Float64("degraded", 0.2, "fraction of records carrying one degraded source")
	flag.Parse()

	if *n <= 0 {
		flag.Usage()
		return fmt.Errorf("-n must be positive, got %d", *n)
	}

	fake := faker.NewWithSeed(rand.NewSource(*seed))

	cells := make(map[string]bool, *n)
	areas := make([]domain.BurnArea, 0, *n)
	attempts := 0
	for len(areas) < *n {
		attempts++
		if attempts > 100*(*n) {
			return fmt.Errorf("grid too coarse for %d distinct cells at resolution %g", *n, *resolution)
		}
		lat := fake.Float64(6, 33, 41)
		lng := fake.Float64(6, -124, -115)
		key := domain.CellKey(lat, lng, *resolution)
		if cells[key] {
			continue
		}
		cells[key] = true
		areas = append(areas, buildArea(fake, key, domain.CellCenter(lat, lng, *resolution), *degradedShare))
	}

	bySource := map[string]int{}
	for i := range areas {
		for _, src := range areas[i].DegradedSources {
			bySource[src]++
		}
	}
	log.Printf("generated %d records (%d degraded: geocoding=%d weather=%d statistics=%d risk-oracle=%d neighbors=%d)",
		len(areas),
		bySource[domain.SourceGeocoding]+bySource[domain.SourceWeather]+bySource[domain.SourceStatistics]+bySource[domain.SourceRiskOracle]+bySource[domain.SourceNeighbors],
		bySource[domain.SourceGeocoding], bySource[domain.SourceWeather], bySource[domain.SourceStatistics],
		bySource[domain.SourceRiskOracle], bySource[domain.SourceNeighbors])

	if err := writeJSON(*out, cache.BulkDocument{Status: "success", Data: areas}); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)
	return nil
}

// buildArea assembles one synthetic record with the same derivations the
// resolve pipeline applies, optionally substituting one source's neutral
// default so degraded bookkeeping shows up in fixtures.
func buildArea(fake faker.Faker, key string, center domain.Coordinates, degradedShare float64) domain.BurnArea {
	factors := make(map[string]float64, len(domain.FactorKeys))
	for _, k := range domain.FactorKeys {
		factors[k] = fake.Float64(2, 0, 1)
	}
	stats := domain.FillStatistics(factors)

	name := fmt.Sprintf("%s, California, USA", fake.Address().City())

	weather := domain.WeatherSnapshot{Available: true, Days: map[string]domain.DayWeather{}}
	for d := 0; d < fake.IntBetween(3, 7); d++ {
		weather.Days[baseDate.AddDate(0, 0, d).Format("2006-01-02")] = domain.DayWeather{
			TemperatureMean:  fake.Float64(1, 12, 38),
			WindSpeedMean:    fake.Float64(1, 2, 45),
			PrecipitationSum: fake.Float64(1, 0, 12),
		}
	}

	towns := make([]domain.NearbyTown, 0, 4)
	for t := 0; t < fake.IntBetween(0, 4); t++ {
		population := int64(fake.IntBetween(200, 400_000))
		towns = append(towns, domain.NearbyTown{
			Name:          fake.Address().City(),
			Population:    population,
			ValueEstimate: float64(population) * float64(fake.IntBetween(20_000, 220_000)),
		})
	}

	probability := fake.Float64(4, 0, 1)

	var degradedSources []string
	if fake.Float64(2, 0, 1) < degradedShare {
		switch fake.IntBetween(0, 4) {
		case 0:
			name = domain.UnknownLocationName
			degradedSources = []string{domain.SourceGeocoding}
		case 1:
			weather = domain.WeatherSnapshot{}
			degradedSources = []string{domain.SourceWeather}
		case 2:
			stats = domain.NeutralStatistics()
			degradedSources = []string{domain.SourceStatistics}
		case 3:
			probability = domain.NeutralFactor
			degradedSources = []string{domain.SourceRiskOracle}
		case 4:
			towns = towns[:0]
			degradedSources = []string{domain.SourceNeighbors}
		}
	}

	pop, value := domain.SumTowns(towns)
	scores := domain.ComputeScores(domain.ScoreInput{
		Statistics:         stats,
		Weather:            weather,
		RiskProbability:    probability,
		TotalPopulation:    pop,
		TotalValueEstimate: value,
	}, domain.DefaultScoreWeights())

	return domain.BurnArea{
		ID:                          domain.BurnAreaID(key),
		Name:                        name,
		Coordinates:                 center,
		Statistics:                  stats,
		ThreatRating:                probability,
		CalculatedThreatRating:      scores.CalculatedThreatRating,
		PreliminaryFeasibilityScore: scores.PreliminaryFeasibilityScore,
		TotalPopulation:             pop,
		TotalValueEstimate:          value,
		LastBurnDate:                domain.DeriveLastBurnDate(key),
		Weather:                     weather,
		NearbyTowns:                 towns,
		DegradedSources:             degradedSources,
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
