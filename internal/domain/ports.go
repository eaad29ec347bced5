package domain

import "context"

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	// ReverseGeocode returns the display name for the coordinates, or ""
	// when the provider has no name for them. A "" with nil error is a
	// successful lookup of an unnamed location, not a failure.
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// WeatherProvider fetches the daily forecast window for a location.
type WeatherProvider interface {
	FetchDaily(ctx context.Context, lat, lng float64, days int) (WeatherSnapshot, error)
}

// StatisticsResult is the tagged output of the assessment generator: either
// a validated Statistics value, or the neutral fallback with the reason the
// generated output was rejected. Fallback results are valid data and flow
// into records as-is; the flag exists so callers can mark degradation.
type StatisticsResult struct {
	Statistics     Statistics
	Fallback       bool
	FallbackReason string
}

// StatisticsGenerator produces the eleven-factor complexity assessment for
// a location. Implementations own validation and retry of malformed model
// output; a non-nil error means the provider itself was unreachable, not
// that the output was invalid.
type StatisticsGenerator interface {
	Generate(ctx context.Context, query LocationQuery, placeName string) (StatisticsResult, error)
}

// RiskOracle supplies the externally computed wildfire probability on the
// canonical [0, 1] scale. Implementations normalize legacy scales before
// returning.
type RiskOracle interface {
	Probability(ctx context.Context, lat, lng float64) (float64, error)
}

// NeighborFinder locates populated places near the coordinates and prices
// their exposure.
type NeighborFinder interface {
	NearbyTowns(ctx context.Context, lat, lng float64) ([]NearbyTown, error)
}
