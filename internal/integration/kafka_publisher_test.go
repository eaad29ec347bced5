//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/burn-risk/internal/adapter/kafka"
	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
	"github.com/couchcryptid/burn-risk/internal/orchestrator"
	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const assessmentsTopic = "test-assessments"

// startKafka runs a single-broker Kafka container and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("burn-risk-test"))
	t.Cleanup(func() {
		if container != nil {
			_ = container.Terminate(context.Background())
		}
	})
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// publishedMessage holds a deserialized assessment read from the topic.
type publishedMessage struct {
	Area    domain.BurnArea
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from assessments topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var area domain.BurnArea
	require.NoError(t, json.Unmarshal(msg.Value, &area), "unmarshal assessment")

	return publishedMessage{Area: area, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       assessmentsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// cleanArea builds a record with the same derivations the resolve pipeline
// applies, so payload assertions exercise the real wire shape.
func cleanArea() domain.BurnArea {
	const key = "34.05,-118.24"
	stats := domain.NeutralStatistics()
	towns := []domain.NearbyTown{{Name: "Burbank", Population: 105_000, ValueEstimate: 1.2e10}}
	pop, value := domain.SumTowns(towns)
	scores := domain.ComputeScores(domain.ScoreInput{
		Statistics:         stats,
		RiskProbability:    0.82,
		TotalPopulation:    pop,
		TotalValueEstimate: value,
	}, domain.DefaultScoreWeights())

	return domain.BurnArea{
		ID:                          domain.BurnAreaID(key),
		Name:                        "Los Angeles, Los Angeles County, California, USA",
		Coordinates:                 domain.Coordinates{Lat: 34.05, Lng: -118.24},
		Statistics:                  stats,
		ThreatRating:                0.82,
		CalculatedThreatRating:      scores.CalculatedThreatRating,
		PreliminaryFeasibilityScore: scores.PreliminaryFeasibilityScore,
		TotalPopulation:             pop,
		TotalValueEstimate:          value,
		LastBurnDate:                domain.DeriveLastBurnDate(key),
		Weather: domain.WeatherSnapshot{Available: true, Days: map[string]domain.DayWeather{
			"2026-08-22": {TemperatureMean: 28.4, WindSpeedMean: 11.2, PrecipitationSum: 0},
		}},
		NearbyTowns: towns,
	}
}

// TestPublisherRoundTrip verifies the adapter layer: a published assessment
// comes back with its key, headers, and payload intact.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, assessmentsTopic)

	metrics := observability.NewMetricsForTesting()
	publisher := kafkaadapter.NewPublisher([]string{broker}, assessmentsTopic, metrics, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	area := cleanArea()
	computedAt := time.Date(2026, time.August, 22, 12, 0, 0, 0, time.UTC)
	require.NoError(t, publisher.Publish(ctx, area, computedAt))

	degraded := cleanArea()
	degraded.Weather = domain.WeatherSnapshot{}
	degraded.DegradedSources = []string{domain.SourceWeather}
	require.NoError(t, publisher.Publish(ctx, degraded, computedAt))

	consumer := newConsumer(t, broker)

	first := readPublished(ctx, t, consumer)
	assert.Equal(t, area.ID, first.Key)
	assert.Equal(t, "false", first.Headers["degraded"])
	assert.Equal(t, "2026-08-22T12:00:00Z", first.Headers["computed_at"])
	if diff := cmp.Diff(area, first.Area); diff != "" {
		t.Errorf("published area mismatch (-want +got):\n%s", diff)
	}

	second := readPublished(ctx, t, consumer)
	assert.Equal(t, degraded.ID, second.Key)
	assert.Equal(t, "true", second.Headers["degraded"])
	assert.Equal(t, []string{domain.SourceWeather}, second.Area.DegradedSources)
	assert.False(t, second.Area.Weather.Available)
}

// staticSources implements all five upstream ports with canned responses so
// the end-to-end test needs no live providers.
type staticSources struct {
	name        string
	weather     domain.WeatherSnapshot
	stats       domain.Statistics
	probability float64
	towns       []domain.NearbyTown
}

func (s staticSources) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return s.name, nil
}

func (s staticSources) FetchDaily(context.Context, float64, float64, int) (domain.WeatherSnapshot, error) {
	return s.weather, nil
}

func (s staticSources) Generate(context.Context, domain.LocationQuery, string) (domain.StatisticsResult, error) {
	return domain.StatisticsResult{Statistics: s.stats}, nil
}

func (s staticSources) Probability(context.Context, float64, float64) (float64, error) {
	return s.probability, nil
}

func (s staticSources) NearbyTowns(context.Context, float64, float64) ([]domain.NearbyTown, error) {
	return s.towns, nil
}

// TestResolvePublishesAssessment wires the full resolve path (orchestrator,
// SQLite cache, Kafka publisher) against a real broker and verifies the
// published assessment matches the resolved record.
func TestResolvePublishesAssessment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, assessmentsTopic)

	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()

	store, err := cache.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	publisher := kafkaadapter.NewPublisher([]string{broker}, assessmentsTopic, metrics, logger)
	t.Cleanup(func() { _ = publisher.Close() })

	src := staticSources{
		name: "Paradise, Butte County, California, USA",
		weather: domain.WeatherSnapshot{Available: true, Days: map[string]domain.DayWeather{
			"2026-08-22": {TemperatureMean: 31.5, WindSpeedMean: 18.0, PrecipitationSum: 0},
		}},
		stats:       domain.NeutralStatistics(),
		probability: 0.61,
		towns: []domain.NearbyTown{
			{Name: "Paradise", Population: 26_800, ValueEstimate: 2.1e9},
		},
	}

	orch := orchestrator.New(store, orchestrator.Sources{
		Geocoder:  src,
		Weather:   src,
		Generator: src,
		Oracle:    src,
		Neighbors: src,
	}, publisher, orchestrator.Options{
		GridResolution: 0.01,
		TTL:            time.Hour,
		WeatherDays:    7,
		Weights:        domain.DefaultScoreWeights(),
		Timeouts: orchestrator.Timeouts{
			Geocode:    5 * time.Second,
			Weather:    5 * time.Second,
			Statistics: 5 * time.Second,
			Oracle:     5 * time.Second,
			Neighbors:  5 * time.Second,
		},
	}, metrics, logger)

	res, err := orch.Resolve(ctx, domain.LocationQuery{Lat: 39.7596, Lng: -121.6219})
	require.NoError(t, err)
	require.False(t, res.Degraded)

	consumer := newConsumer(t, broker)

	pm := readPublished(ctx, t, consumer)
	assert.Equal(t, res.ID, pm.Key)
	assert.Equal(t, "false", pm.Headers["degraded"])
	_, err = time.Parse(time.RFC3339, pm.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")

	if diff := cmp.Diff(res.BurnArea, pm.Area); diff != "" {
		t.Errorf("published area differs from resolved record (-want +got):\n%s", diff)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
