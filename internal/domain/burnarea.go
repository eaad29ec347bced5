package domain

import "fmt"

// Names reported in the degraded-sources list when an upstream branch fails
// and its neutral default is substituted.
const (
	SourceGeocoding  = "geocoding"
	SourceWeather    = "weather"
	SourceStatistics = "statistics"
	SourceRiskOracle = "risk-oracle"
	SourceNeighbors  = "neighbors"
)

// UnknownLocationName is substituted when reverse geocoding fails or the
// provider has no name for the coordinates.
const UnknownLocationName = "Unknown location"

// LocationQuery is a validated resolve request.
type LocationQuery struct {
	Lat float64
	Lng float64
}

// Validate checks the coordinates against WGS-84 bounds.
func (q LocationQuery) Validate() error {
	if q.Lat < -90 || q.Lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", q.Lat)
	}
	if q.Lng < -180 || q.Lng > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", q.Lng)
	}
	return nil
}

// Coordinates is a WGS-84 latitude/longitude pair. Persisted records carry
// the quantized cell center, not the raw query coordinates.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DayWeather holds the daily aggregates used by assessment consumers.
type DayWeather struct {
	TemperatureMean  float64 `json:"temperature-mean"`  // °C
	WindSpeedMean    float64 `json:"wind-speed-mean"`   // km/h
	PrecipitationSum float64 `json:"precipitation-sum"` // mm
}

// WeatherSnapshot is the forecast window for a cell, keyed by ISO date
// (YYYY-MM-DD). Available is false when the weather branch was degraded;
// consumers must not read Days in that case.
type WeatherSnapshot struct {
	Available bool                  `json:"available"`
	Days      map[string]DayWeather `json:"days,omitempty"`
}

// NearbyTown is a populated place within the neighbor search radius.
// ValueEstimate apportions county GDP by the town's share of county
// population, in USD; zero when the county is unknown or unpriced.
type NearbyTown struct {
	Name          string  `json:"name"`
	Population    int64   `json:"population"`
	ValueEstimate float64 `json:"value-estimate"`
}

// SumTowns totals population and value estimates across nearby towns.
func SumTowns(towns []NearbyTown) (population int64, value float64) {
	for _, t := range towns {
		population += t.Population
		value += t.ValueEstimate
	}
	return population, value
}

// BurnArea is the precomputed assessment for one grid cell. Field names
// follow the established wire format consumed by the map frontend.
type BurnArea struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Statistics  Statistics  `json:"statistics"`

	// ThreatRating is the raw oracle probability; CalculatedThreatRating
	// folds in assessment factors and exposure. Both are canonical [0, 1].
	ThreatRating                float64 `json:"threat-rating"`
	CalculatedThreatRating      float64 `json:"calculated-threat-rating"`
	PreliminaryFeasibilityScore float64 `json:"preliminary-feasibility-score"`

	TotalPopulation    int64   `json:"total-population"`
	TotalValueEstimate float64 `json:"total-value-estimate"`
	LastBurnDate       string  `json:"last-burn-date"` // YYYY-MM-DD

	Weather     WeatherSnapshot `json:"weather"`
	NearbyTowns []NearbyTown    `json:"nearby-towns"`

	// DegradedSources lists upstream sources whose neutral defaults were
	// substituted when this record was computed. Empty for clean records.
	DegradedSources []string `json:"degraded-sources,omitempty"`
}

// ResolveResult is a BurnArea plus the resolution-path flag: Degraded is
// true only when the computation that produced this response substituted at
// least one default. Serving a previously degraded record from cache is not
// itself a degraded resolution; the record's DegradedSources still show
// which inputs were defaulted.
type ResolveResult struct {
	BurnArea
	Degraded bool `json:"degraded"`
}
