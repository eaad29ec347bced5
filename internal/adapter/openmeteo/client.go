package openmeteo

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

// Client implements domain.WeatherProvider using the Open-Meteo forecast API.
// Open-Meteo is keyless for non-commercial volumes, so the client carries no
// credential.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo forecast client.
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

// FetchDaily fetches a days-long daily forecast window for the coordinates.
func (c *Client) FetchDaily(ctx context.Context, lat, lng float64, days int) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(lng, 'f', -1, 64)},
		"daily":         {"temperature_2m_mean,windspeed_10m_mean,precipitation_sum"},
		"forecast_days": {strconv.Itoa(days)},
		"timezone":      {"UTC"},
	}
	fullURL := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(domain.SourceWeather).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceWeather, "error").Inc()
		return domain.WeatherSnapshot{}, fmt.Errorf("forecast request: %w", domain.ClassifyTransport(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceWeather, "error").Inc()
		c.logger.Warn("open-meteo error response", "status", resp.StatusCode, "body", string(body))
		return domain.WeatherSnapshot{}, fmt.Errorf("open-meteo API: status %d: %w", resp.StatusCode, domain.ClassifyStatus(resp.StatusCode))
	}

	var omResp response
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceWeather, "error").Inc()
		return domain.WeatherSnapshot{}, fmt.Errorf("decode response: %w", domain.ErrMalformedResponse)
	}

	snapshot, err := omResp.snapshot()
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceWeather, "error").Inc()
		return domain.WeatherSnapshot{}, err
	}

	c.metrics.UpstreamRequests.WithLabelValues(domain.SourceWeather, "success").Inc()
	return snapshot, nil
}

// Open-Meteo API response types. The daily block is parallel arrays keyed by
// position; snapshot re-keys them by ISO date.

type response struct {
	Daily daily `json:"daily"`
}

type daily struct {
	Time             []string  `json:"time"`
	TemperatureMean  []float64 `json:"temperature_2m_mean"`
	WindSpeedMean    []float64 `json:"windspeed_10m_mean"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
}

func (r response) snapshot() (domain.WeatherSnapshot, error) {
	d := r.Daily
	if len(d.Time) == 0 {
		return domain.WeatherSnapshot{}, fmt.Errorf("empty daily series: %w", domain.ErrMalformedResponse)
	}
	if len(d.TemperatureMean) != len(d.Time) || len(d.WindSpeedMean) != len(d.Time) || len(d.PrecipitationSum) != len(d.Time) {
		return domain.WeatherSnapshot{}, fmt.Errorf("daily series lengths disagree: %w", domain.ErrMalformedResponse)
	}

	daysByDate := make(map[string]domain.DayWeather, len(d.Time))
	for i, date := range d.Time {
		daysByDate[date] = domain.DayWeather{
			TemperatureMean:  d.TemperatureMean[i],
			WindSpeedMean:    d.WindSpeedMean[i],
			PrecipitationSum: d.PrecipitationSum[i],
		}
	}
	return domain.WeatherSnapshot{Available: true, Days: daysByDate}, nil
}
