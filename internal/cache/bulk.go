package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
)

// BulkDocument is the persisted bulk form: the full record collection under
// the success envelope the original precompute tooling produced. Exports
// write this shape; imports accept it or a bare record array.
type BulkDocument struct {
	Status string            `json:"status"`
	Data   []domain.BurnArea `json:"data"`
}

// bulkRecord decodes one imported record leniently. Historical exports may
// carry partial statistics, legacy [0,10] scores, or missing derived fields;
// reconcile repairs all of that before the record is persisted.
type bulkRecord struct {
	ID                          string                 `json:"id"`
	Name                        string                 `json:"name"`
	Coordinates                 domain.Coordinates     `json:"coordinates"`
	Statistics                  map[string]float64     `json:"statistics"`
	ThreatRating                float64                `json:"threat-rating"`
	CalculatedThreatRating      float64                `json:"calculated-threat-rating"`
	PreliminaryFeasibilityScore float64                `json:"preliminary-feasibility-score"`
	TotalPopulation             int64                  `json:"total-population"`
	TotalValueEstimate          float64                `json:"total-value-estimate"`
	LastBurnDate                string                 `json:"last-burn-date"`
	Weather                     domain.WeatherSnapshot `json:"weather"`
	NearbyTowns                 []domain.NearbyTown    `json:"nearby-towns"`
	DegradedSources             []string               `json:"degraded-sources"`
}

// ImportBulk seeds the store from a bulk document, reconciling every record
// to the canonical scale and filling derived fields. Returns the number of
// records persisted.
func ImportBulk(ctx context.Context, store Store, data []byte, resolution float64, ttl time.Duration) (int, error) {
	records, err := decodeBulk(data)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, rec := range records {
		area, key := rec.reconcile(resolution)
		if err := store.Put(ctx, Entry{Key: key, Payload: area, TTL: ttl}); err != nil {
			return imported, fmt.Errorf("import record %q: %w", key, err)
		}
		imported++
	}
	return imported, nil
}

func decodeBulk(data []byte) ([]bulkRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []bulkRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode bulk array: %w", err)
		}
		return records, nil
	}

	var doc struct {
		Data []bulkRecord `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode bulk document: %w", err)
	}
	return doc.Data, nil
}

// reconcile repairs an imported record: scores normalized once here at
// ingestion, statistics completed, identity fields derived when absent.
func (r bulkRecord) reconcile(resolution float64) (domain.BurnArea, string) {
	key := domain.CellKey(r.Coordinates.Lat, r.Coordinates.Lng, resolution)

	area := domain.BurnArea{
		ID:                          r.ID,
		Name:                        r.Name,
		Coordinates:                 domain.CellCenter(r.Coordinates.Lat, r.Coordinates.Lng, resolution),
		Statistics:                  domain.FillStatistics(r.Statistics),
		ThreatRating:                lenientScale(r.ThreatRating),
		CalculatedThreatRating:      lenientScale(r.CalculatedThreatRating),
		PreliminaryFeasibilityScore: lenientScale(r.PreliminaryFeasibilityScore),
		TotalPopulation:             r.TotalPopulation,
		TotalValueEstimate:          r.TotalValueEstimate,
		LastBurnDate:                r.LastBurnDate,
		Weather:                     r.Weather,
		NearbyTowns:                 r.NearbyTowns,
		DegradedSources:             r.DegradedSources,
	}
	if area.ID == "" {
		area.ID = domain.BurnAreaID(key)
	}
	if area.Name == "" {
		area.Name = domain.UnknownLocationName
	}
	if _, err := time.Parse("2006-01-02", area.LastBurnDate); err != nil {
		area.LastBurnDate = domain.DeriveLastBurnDate(key)
	}
	return area, key
}

// lenientScale resolves legacy [0,10] score encodings the same way
// FillStatistics does for factors: rescale the ten-point range, clamp the
// rest. Imports repair rather than reject.
func lenientScale(v float64) float64 {
	if v > 1 && v <= 10 {
		v /= 10
	}
	return domain.Clamp01(v)
}
