package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	computedAt := time.Date(2026, 8, 22, 15, 10, 0, 0, time.UTC)
	area := domain.BurnArea{
		ID:                     "burn-1a2b3c4d",
		Name:                   "Los Angeles, California, USA",
		Coordinates:            domain.Coordinates{Lat: 34.05, Lng: -118.24},
		Statistics:             domain.NeutralStatistics(),
		ThreatRating:           0.82,
		CalculatedThreatRating: 0.74,
		LastBurnDate:           "2024-11-03",
	}

	msg, err := serializeToMessage(area, computedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("burn-1a2b3c4d"), msg.Key)
	assert.Contains(t, string(msg.Value), `"calculated-threat-rating":0.74`)
	assert.Contains(t, string(msg.Value), `"last-burn-date":"2024-11-03"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "degraded", msg.Headers[0].Key)
	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
	assert.Equal(t, "computed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-08-22T15:10:00Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_DegradedHeader(t *testing.T) {
	area := domain.BurnArea{
		ID:              "burn-ffffffff",
		DegradedSources: []string{domain.SourceWeather},
	}

	msg, err := serializeToMessage(area, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
}
