// Command validate runs integrity checks over a bulk assessment export:
// document shape, identity derivation, score ranges, recomputed score
// consistency, and degraded-source bookkeeping. Point it at the output of
// cmd/precompute (or a saved /v0 response) before shipping it as a seed
// document.
//
// Usage:
//
//	go run ./cmd/validate -bulk precomputed.json
//	go run ./cmd/validate -bulk precomputed.json -resolution 0.02 -weight-risk 0.5
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	defaults := domain.DefaultScoreWeights()

	bulkPath := flag.String("bulk", "", "path to a bulk assessment export (envelope or bare array)")
	resolution := flag.Float64("resolution", domain.DefaultGridResolution, "grid resolution the export was computed at")
	weightRisk := flag.Float64("weight-risk", defaults.Risk, "oracle probability weight used at compute time")
	weightHazard := flag.Float64("weight-hazard", defaults.Hazard, "hazard mean weight used at compute time")
	weightExposure := flag.Float64("weight-exposure", defaults.Exposure, "exposure index weight used at compute time")
	flag.Parse()

	if *bulkPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	weights := domain.ScoreWeights{Risk: *weightRisk, Hazard: *weightHazard, Exposure: *weightExposure}
	if err := weights.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*bulkPath, *resolution, weights); code != 0 {
		os.Exit(code)
	}
}

func run(bulkPath string, resolution float64, weights domain.ScoreWeights) int {
	fmt.Println("=== Burn Risk Export Validation ===")
	fmt.Println()

	doc, err := loadDocument(bulkPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load bulk document: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDocumentShape(doc),
		validateIdentity(doc.Data, resolution),
		validateScoreRanges(doc.Data),
		validateScoreConsistency(doc.Data, weights),
		validateDegradedSources(doc.Data),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	var degradedCount, townCount int
	for i := range doc.Data {
		if len(doc.Data[i].DegradedSources) > 0 {
			degradedCount++
		}
		townCount += len(doc.Data[i].NearbyTowns)
	}
	fmt.Println()
	fmt.Printf("Records: %d burn areas (%d degraded), %d nearby towns\n",
		len(doc.Data), degradedCount, townCount)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadDocument reads an export in either persisted form: the status envelope
// cmd/precompute writes, or a bare record array as served by /v0.
func loadDocument(path string) (cache.BulkDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cache.BulkDocument{}, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var areas []domain.BurnArea
		if err := json.Unmarshal(trimmed, &areas); err != nil {
			return cache.BulkDocument{}, fmt.Errorf("decode record array: %w", err)
		}
		return cache.BulkDocument{Status: "success", Data: areas}, nil
	}
	var doc cache.BulkDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return cache.BulkDocument{}, fmt.Errorf("decode bulk document: %w", err)
	}
	return doc, nil
}

// ── Phase 1: Document Shape ──
// Validates the envelope and per-record structural fields.

func validateDocumentShape(doc cache.BulkDocument) *phase {
	p := &phase{name: "Phase 1: Document Shape"}

	if doc.Status != "success" {
		p.errorf("status is %q (expected \"success\")", doc.Status)
	}
	if len(doc.Data) == 0 {
		p.errorf("document has no records")
	}

	seen := make(map[string]int, len(doc.Data))
	for i := range doc.Data {
		a := &doc.Data[i]
		if a.ID == "" {
			p.errorf("record %d: missing id", i)
		} else if first, dup := seen[a.ID]; dup {
			p.errorf("record %d: duplicate id %q (first at record %d)", i, a.ID, first)
		} else {
			seen[a.ID] = i
		}
		if a.Name == "" {
			p.errorf("record %d (%s): missing name", i, a.ID)
		}

		if a.Weather.Available && len(a.Weather.Days) == 0 {
			p.errorf("record %d (%s): weather available but carries no days", i, a.ID)
		}
		if !a.Weather.Available && len(a.Weather.Days) > 0 {
			p.errorf("record %d (%s): weather unavailable but carries %d days", i, a.ID, len(a.Weather.Days))
		}
		for day := range a.Weather.Days {
			if _, err := time.Parse("2006-01-02", day); err != nil {
				p.errorf("record %d (%s): weather day key %q is not YYYY-MM-DD", i, a.ID, day)
			}
		}
	}
	return p
}

// ── Phase 2: Identity Derivation ──
// Validates that coordinates sit on the grid and that id and last-burn-date
// derive from the cell key.

func validateIdentity(areas []domain.BurnArea, resolution float64) *phase {
	p := &phase{name: "Phase 2: Identity Derivation"}

	for i := range areas {
		a := &areas[i]
		if q := domain.QuantizeCoord(a.Coordinates.Lat, resolution); !floatEq(q, a.Coordinates.Lat) {
			p.errorf("record %d (%s): lat %g not on the %g grid", i, a.ID, a.Coordinates.Lat, resolution)
		}
		if q := domain.QuantizeCoord(a.Coordinates.Lng, resolution); !floatEq(q, a.Coordinates.Lng) {
			p.errorf("record %d (%s): lng %g not on the %g grid", i, a.ID, a.Coordinates.Lng, resolution)
		}

		key := domain.CellKey(a.Coordinates.Lat, a.Coordinates.Lng, resolution)
		if want := domain.BurnAreaID(key); a.ID != want {
			p.errorf("record %d: id %q does not derive from cell %s (want %q)", i, a.ID, key, want)
		}
		if _, err := time.Parse("2006-01-02", a.LastBurnDate); err != nil {
			p.errorf("record %d (%s): last-burn-date %q is not YYYY-MM-DD", i, a.ID, a.LastBurnDate)
		} else if want := domain.DeriveLastBurnDate(key); a.LastBurnDate != want {
			p.errorf("record %d (%s): last-burn-date %q does not derive from cell %s (want %q)", i, a.ID, a.LastBurnDate, key, want)
		}
	}
	return p
}

// ── Phase 3: Score Ranges ──
// Validates that every factor and derived score sits on the canonical scale.

func validateScoreRanges(areas []domain.BurnArea) *phase {
	p := &phase{name: "Phase 3: Score Ranges"}

	for i := range areas {
		a := &areas[i]
		factors := a.Statistics.Factors()
		for _, key := range domain.FactorKeys {
			if v := factors[key]; v < 0 || v > 1 {
				p.errorf("record %d (%s): factor %q = %g outside [0,1]", i, a.ID, key, v)
			}
		}
		for name, v := range map[string]float64{
			"threat-rating":                 a.ThreatRating,
			"calculated-threat-rating":      a.CalculatedThreatRating,
			"preliminary-feasibility-score": a.PreliminaryFeasibilityScore,
		} {
			if v < 0 || v > 1 {
				p.errorf("record %d (%s): %s = %g outside [0,1]", i, a.ID, name, v)
			}
		}
		if a.TotalPopulation < 0 {
			p.errorf("record %d (%s): total-population %d is negative", i, a.ID, a.TotalPopulation)
		}
		if a.TotalValueEstimate < 0 {
			p.errorf("record %d (%s): total-value-estimate %g is negative", i, a.ID, a.TotalValueEstimate)
		}
		for j, t := range a.NearbyTowns {
			if t.Name == "" {
				p.errorf("record %d (%s): town %d missing name", i, a.ID, j)
			}
			if t.Population < 0 {
				p.errorf("record %d (%s): town %q population %d is negative", i, a.ID, t.Name, t.Population)
			}
			if t.ValueEstimate < 0 {
				p.errorf("record %d (%s): town %q value-estimate %g is negative", i, a.ID, t.Name, t.ValueEstimate)
			}
		}
	}
	return p
}

// ── Phase 4: Score Consistency ──
// Recomputes derived fields from their inputs and compares.

func validateScoreConsistency(areas []domain.BurnArea, weights domain.ScoreWeights) *phase {
	p := &phase{name: "Phase 4: Score Consistency"}

	for i := range areas {
		a := &areas[i]
		pop, value := domain.SumTowns(a.NearbyTowns)
		if pop != a.TotalPopulation {
			p.errorf("record %d (%s): total-population %d != town sum %d", i, a.ID, a.TotalPopulation, pop)
		}
		if !floatEq(value, a.TotalValueEstimate) {
			p.errorf("record %d (%s): total-value-estimate %g != town sum %g", i, a.ID, a.TotalValueEstimate, value)
		}

		scores := domain.ComputeScores(domain.ScoreInput{
			Statistics:         a.Statistics,
			Weather:            a.Weather,
			RiskProbability:    a.ThreatRating,
			TotalPopulation:    a.TotalPopulation,
			TotalValueEstimate: a.TotalValueEstimate,
		}, weights)
		if !floatEq(scores.CalculatedThreatRating, a.CalculatedThreatRating) {
			p.errorf("record %d (%s): calculated-threat-rating %g, recomputed %g", i, a.ID, a.CalculatedThreatRating, scores.CalculatedThreatRating)
		}
		if !floatEq(scores.PreliminaryFeasibilityScore, a.PreliminaryFeasibilityScore) {
			p.errorf("record %d (%s): preliminary-feasibility-score %g, recomputed %g", i, a.ID, a.PreliminaryFeasibilityScore, scores.PreliminaryFeasibilityScore)
		}
	}
	return p
}

// ── Phase 5: Degraded Sources ──
// Validates the degraded-source list and that each listed source's neutral
// default is actually what the record carries.

var sourceRank = map[string]int{
	domain.SourceGeocoding:  0,
	domain.SourceWeather:    1,
	domain.SourceStatistics: 2,
	domain.SourceRiskOracle: 3,
	domain.SourceNeighbors:  4,
}

func validateDegradedSources(areas []domain.BurnArea) *phase {
	p := &phase{name: "Phase 5: Degraded Sources"}

	for i := range areas {
		a := &areas[i]
		if len(a.DegradedSources) == len(sourceRank) {
			p.errorf("record %d (%s): all sources degraded; such records are never persisted", i, a.ID)
		}

		last := -1
		for _, src := range a.DegradedSources {
			rank, ok := sourceRank[src]
			if !ok {
				p.errorf("record %d (%s): unknown degraded source %q", i, a.ID, src)
				continue
			}
			if rank == last {
				p.errorf("record %d (%s): degraded source %q listed twice", i, a.ID, src)
			} else if rank < last {
				p.errorf("record %d (%s): degraded source %q out of canonical order", i, a.ID, src)
			}
			last = rank
		}

		degraded := make(map[string]bool, len(a.DegradedSources))
		for _, src := range a.DegradedSources {
			degraded[src] = true
		}
		if degraded[domain.SourceGeocoding] && a.Name != domain.UnknownLocationName {
			p.errorf("record %d (%s): geocoding degraded but name is %q", i, a.ID, a.Name)
		}
		if degraded[domain.SourceWeather] == a.Weather.Available {
			if degraded[domain.SourceWeather] {
				p.errorf("record %d (%s): weather degraded but snapshot is available", i, a.ID)
			} else {
				p.errorf("record %d (%s): weather not degraded but snapshot is unavailable", i, a.ID)
			}
		}
		if degraded[domain.SourceStatistics] && a.Statistics != domain.NeutralStatistics() {
			p.errorf("record %d (%s): statistics degraded but factors are not neutral", i, a.ID)
		}
		if degraded[domain.SourceRiskOracle] && !floatEq(a.ThreatRating, domain.NeutralFactor) {
			p.errorf("record %d (%s): risk-oracle degraded but threat-rating is %g", i, a.ID, a.ThreatRating)
		}
		if degraded[domain.SourceNeighbors] && len(a.NearbyTowns) > 0 {
			p.errorf("record %d (%s): neighbors degraded but %d towns present", i, a.ID, len(a.NearbyTowns))
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
