package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"
	"time"
)

// DefaultGridResolution is the cache grid spacing in degrees. 0.01° is about
// 1.1 km of latitude, coarse enough that map clicks on the same hillside
// land in one cell.
const DefaultGridResolution = 0.01

// lastBurnWindowDays bounds the placeholder burn-history window to the five
// years preceding lastBurnAnchor.
const lastBurnWindowDays = 1825

var lastBurnAnchor = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// QuantizeCoord snaps a coordinate to the nearest grid point.
// Non-positive resolutions fall back to DefaultGridResolution.
func QuantizeCoord(v, resolution float64) float64 {
	if resolution <= 0 {
		resolution = DefaultGridResolution
	}
	q := math.Round(v/resolution) * resolution
	if q == 0 {
		q = 0 // normalize -0 so keys never render "-0.00"
	}
	return q
}

// CellCenter quantizes a query to its grid cell's representative coordinates.
func CellCenter(lat, lng, resolution float64) Coordinates {
	return Coordinates{
		Lat: QuantizeCoord(lat, resolution),
		Lng: QuantizeCoord(lng, resolution),
	}
}

// CellKey renders the quantized coordinate pair as the canonical cache key,
// e.g. "34.05,-118.24" at the default resolution. Nearby queries quantize to
// the same key on purpose; they share one cache entry.
func CellKey(lat, lng, resolution float64) string {
	if resolution <= 0 {
		resolution = DefaultGridResolution
	}
	d := resolutionDecimals(resolution)
	c := CellCenter(lat, lng, resolution)
	return strconv.FormatFloat(c.Lat, 'f', d, 64) + "," + strconv.FormatFloat(c.Lng, 'f', d, 64)
}

// resolutionDecimals returns the fractional digits needed to render grid
// points distinctly: 0.01 → 2, 0.1 → 1, 1 → 0. Rounding to this precision
// moves a point by less than half the grid spacing, so distinct cells never
// collide in the rendered key.
func resolutionDecimals(resolution float64) int {
	d := int(math.Ceil(-math.Log10(resolution)))
	if d < 0 {
		d = 0
	}
	if d > 6 {
		d = 6
	}
	return d
}

// BurnAreaID produces the deterministic record ID for a cell key. Stable IDs
// keep cache refreshes and bulk exports idempotent downstream.
func BurnAreaID(cellKey string) string {
	hash := sha256.Sum256([]byte(cellKey))
	return "burn-" + hex.EncodeToString(hash[:8])
}

// DeriveLastBurnDate maps the cell key hash into the five years preceding
// the anchor date, formatted YYYY-MM-DD. A placeholder until a burn-history
// source is wired; the hash bytes are disjoint from those used by
// [BurnAreaID] so the two fields vary independently across cells.
func DeriveLastBurnDate(cellKey string) string {
	hash := sha256.Sum256([]byte(cellKey))
	days := int(binary.BigEndian.Uint32(hash[8:12]) % lastBurnWindowDays)
	return lastBurnAnchor.AddDate(0, 0, -days).Format("2006-01-02")
}
