package locationiq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
)

// Client implements domain.Geocoder using the LocationIQ reverse geocoding API.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a LocationIQ geocoding client.
func NewClient(key, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts coordinates to a display name. Coordinates that
// resolve to nothing (open water, wilderness) return "" with a nil error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{
		"key":    {c.key},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		"format": {"json"},
	}
	fullURL := fmt.Sprintf("%s/v1/reverse.php?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(domain.SourceGeocoding).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceGeocoding, "error").Inc()
		return "", fmt.Errorf("reverse geocode request: %w", domain.ClassifyTransport(err))
	}
	defer resp.Body.Close()

	// LocationIQ answers 404 for coordinates with no reverse match.
	if resp.StatusCode == http.StatusNotFound {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceGeocoding, "success").Inc()
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceGeocoding, "error").Inc()
		c.logger.Warn("locationiq error response", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("locationiq API: status %d: %w", resp.StatusCode, domain.ClassifyStatus(resp.StatusCode))
	}

	var liqResp response
	if err := json.NewDecoder(resp.Body).Decode(&liqResp); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceGeocoding, "error").Inc()
		return "", fmt.Errorf("decode response: %w", domain.ErrMalformedResponse)
	}

	c.metrics.UpstreamRequests.WithLabelValues(domain.SourceGeocoding, "success").Inc()
	return liqResp.DisplayName, nil
}

// LocationIQ API response types.

type response struct {
	DisplayName string `json:"display_name"`
}
