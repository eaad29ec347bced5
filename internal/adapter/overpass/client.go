package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
)

// Client implements domain.NeighborFinder. Towns and cities near the
// coordinates come from the Overpass OSM API; their exposure value is priced
// from county figures, with the county resolved through the FCC census block
// lookup. One county lookup covers the whole query: the search radius is far
// smaller than a county.
type Client struct {
	httpClient  *http.Client
	overpassURL string
	censusURL   string
	radiusM     int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a nearby-towns client.
func NewClient(overpassURL, censusURL string, radiusM int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		overpassURL: overpassURL,
		censusURL:   censusURL,
		radiusM:     radiusM,
		metrics:     metrics,
		logger:      logger,
	}
}

// NearbyTowns finds populated places within the search radius and prices
// their exposure. No towns in range is a valid empty result. A failed or
// unknown county lookup keeps the towns and prices them at zero rather than
// failing the whole source.
func (c *Client) NearbyTowns(ctx context.Context, lat, lng float64) ([]domain.NearbyTown, error) {
	elements, err := c.queryTowns(ctx, lat, lng)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceNeighbors, "error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(domain.SourceNeighbors, "success").Inc()

	if len(elements) == 0 {
		return []domain.NearbyTown{}, nil
	}

	gdp, countyPop, priced := c.lookupCountyValues(ctx, lat, lng)

	towns := make([]domain.NearbyTown, 0, len(elements))
	for _, e := range elements {
		name := e.Tags["name"]
		if name == "" {
			continue
		}
		population := parsePopulation(e.Tags["population"])

		var value float64
		if priced && countyPop > 0 && population > 0 {
			value = gdp * (float64(population) / float64(countyPop))
		}
		towns = append(towns, domain.NearbyTown{
			Name:          name,
			Population:    population,
			ValueEstimate: value,
		})
	}

	sort.Slice(towns, func(i, j int) bool { return towns[i].Name < towns[j].Name })
	return towns, nil
}

// queryTowns asks Overpass for town and city nodes around the coordinates.
func (c *Client) queryTowns(ctx context.Context, lat, lng float64) ([]overpassElement, error) {
	query := fmt.Sprintf(
		"[out:json]; node[\"place\"~\"town|city\"](around:%d,%s,%s); out;",
		c.radiusM, formatCoord(lat), formatCoord(lng),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL+"/api/interpreter", strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(domain.SourceNeighbors).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", domain.ClassifyTransport(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("overpass error response", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("overpass API: status %d: %w", resp.StatusCode, domain.ClassifyStatus(resp.StatusCode))
	}

	var opResp overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", domain.ErrMalformedResponse)
	}
	return opResp.Elements, nil
}

// lookupCountyValues resolves the county through the FCC census block API
// and returns its pricing figures. Any failure downgrades to unpriced.
func (c *Client) lookupCountyValues(ctx context.Context, lat, lng float64) (gdp float64, population int64, ok bool) {
	params := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lng)},
		"format":    {"json"},
	}
	fullURL := fmt.Sprintf("%s/api/census/block/find?%s", c.censusURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("census block lookup failed, towns stay unpriced", "error", err)
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("census block lookup failed, towns stay unpriced", "status", resp.StatusCode)
		return 0, 0, false
	}

	var censusResp censusResponse
	if err := json.NewDecoder(resp.Body).Decode(&censusResp); err != nil {
		c.logger.Warn("census block lookup failed, towns stay unpriced", "error", err)
		return 0, 0, false
	}

	county := strings.TrimSpace(strings.TrimSuffix(censusResp.County.Name, " County"))
	gdp, population, ok = countyValues(county)
	if !ok {
		c.logger.Info("county not in pricing table, towns stay unpriced", "county", county)
	}
	return gdp, population, ok
}

// parsePopulation reads the OSM population tag, which is a free-form string.
func parsePopulation(tag string) int64 {
	if tag == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(tag), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Overpass and FCC API response types.

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type censusResponse struct {
	County struct {
		Name string `json:"name"`
	} `json:"County"`
}
