package oracle

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

// Client implements domain.RiskOracle against the external classifier
// service. The oracle is consumed as an opaque probability source; nothing
// about the model behind it is assumed here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a risk oracle client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Probability fetches the calibrated fire probability for the coordinates.
// Older oracle deployments emit the probability on the ten-point scale; it
// is normalized here so callers only ever see [0, 1].
func (c *Client) Probability(ctx context.Context, lat, lng float64) (float64, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	fullURL := fmt.Sprintf("%s/predict?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(domain.SourceRiskOracle).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "error").Inc()
		return 0, fmt.Errorf("predict request: %w", domain.ClassifyTransport(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "error").Inc()
		c.logger.Warn("oracle error response", "status", resp.StatusCode, "body", string(body))
		return 0, fmt.Errorf("oracle API: status %d: %w", resp.StatusCode, domain.ClassifyStatus(resp.StatusCode))
	}

	var oracleResp response
	if err := json.NewDecoder(resp.Body).Decode(&oracleResp); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "error").Inc()
		return 0, fmt.Errorf("decode response: %w", domain.ErrMalformedResponse)
	}
	if oracleResp.Probability == nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "error").Inc()
		return 0, fmt.Errorf("reply lacks probability: %w", domain.ErrMalformedResponse)
	}

	p, err := domain.NormalizeUnitScale(*oracleResp.Probability)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "error").Inc()
		return 0, fmt.Errorf("probability: %w", err)
	}

	c.metrics.UpstreamRequests.WithLabelValues(domain.SourceRiskOracle, "success").Inc()
	return p, nil
}

type response struct {
	Probability *float64 `json:"probability"`
}
