package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const laElements = `{"elements":[
	{"type":"node","id":1,"lat":34.02,"lon":-118.21,"tags":{"name":"Vernon","population":"222"}},
	{"type":"node","id":2,"lat":34.08,"lon":-118.22,"tags":{"name":"Alhambra","population":"82868"}}
]}`

func testClient(overpassURL, censusURL string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		overpassURL: overpassURL,
		censusURL:   censusURL,
		radiusM:     5000,
		metrics:     observability.NewMetricsForTesting(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func censusServer(t *testing.T, county string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/census/block/find", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"County":{"FIPS":"06037","name":"` + county + `"}}`))
	}))
}

func TestClient_NearbyTowns_Success(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/interpreter", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `node["place"~"town|city"]`)
		assert.Contains(t, string(body), "around:5000,34.05,-118.24")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(laElements))
	}))
	defer overpassSrv.Close()

	censusSrv := censusServer(t, "Los Angeles County")
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	towns, err := c.NearbyTowns(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	require.Len(t, towns, 2)

	// Sorted by name.
	assert.Equal(t, "Alhambra", towns[0].Name)
	assert.Equal(t, int64(82868), towns[0].Population)
	assert.InDelta(t, 1_200_000_000_000*(82868.0/10_330_000.0), towns[0].ValueEstimate, 1)

	assert.Equal(t, "Vernon", towns[1].Name)
	assert.Equal(t, int64(222), towns[1].Population)
	assert.InDelta(t, 1_200_000_000_000*(222.0/10_330_000.0), towns[1].ValueEstimate, 1)
}

func TestClient_NearbyTowns_NoTownsInRange(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer overpassSrv.Close()

	censusCalled := false
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		censusCalled = true
		w.WriteHeader(http.StatusOK)
	}))
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	towns, err := c.NearbyTowns(context.Background(), 41.5, -123.6)
	require.NoError(t, err)
	assert.Empty(t, towns)
	assert.False(t, censusCalled, "no county lookup needed without towns")
}

func TestClient_NearbyTowns_UnknownCountyUnpriced(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(laElements))
	}))
	defer overpassSrv.Close()

	censusSrv := censusServer(t, "Washoe County")
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	towns, err := c.NearbyTowns(context.Background(), 39.52, -119.81)
	require.NoError(t, err)
	require.Len(t, towns, 2)
	assert.Equal(t, int64(82868), towns[0].Population)
	assert.Zero(t, towns[0].ValueEstimate)
	assert.Zero(t, towns[1].ValueEstimate)
}

func TestClient_NearbyTowns_CensusFailureKeepsTowns(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(laElements))
	}))
	defer overpassSrv.Close()

	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	towns, err := c.NearbyTowns(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	require.Len(t, towns, 2)
	assert.Zero(t, towns[0].ValueEstimate)
}

func TestClient_NearbyTowns_SkipsUnnamedAndBadPopulation(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":34.0,"lon":-118.2,"tags":{"population":"1000"}},
			{"type":"node","id":2,"lat":34.1,"lon":-118.3,"tags":{"name":"Glendale","population":"about 200k"}}
		]}`))
	}))
	defer overpassSrv.Close()

	censusSrv := censusServer(t, "Los Angeles County")
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	towns, err := c.NearbyTowns(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	require.Len(t, towns, 1)
	assert.Equal(t, "Glendale", towns[0].Name)
	assert.Zero(t, towns[0].Population, "unparsable population tag reads as zero")
	assert.Zero(t, towns[0].ValueEstimate)
}

func TestClient_NearbyTowns_OverpassUnavailable(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer overpassSrv.Close()

	censusSrv := censusServer(t, "Los Angeles County")
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	_, err := c.NearbyTowns(context.Background(), 34.05, -118.24)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_NearbyTowns_OverpassRateLimited(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer overpassSrv.Close()

	censusSrv := censusServer(t, "Los Angeles County")
	defer censusSrv.Close()

	c := testClient(overpassSrv.URL, censusSrv.URL)
	_, err := c.NearbyTowns(context.Background(), 34.05, -118.24)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRateLimited)
}

func TestParsePopulation(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want int64
	}{
		{"plain number", "39000", 39000},
		{"padded", " 1200 ", 1200},
		{"empty", "", 0},
		{"free text", "about 200k", 0},
		{"negative", "-5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePopulation(tt.tag))
		})
	}
}
