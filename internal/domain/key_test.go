package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellKey(t *testing.T) {
	tests := []struct {
		name       string
		lat        float64
		lng        float64
		resolution float64
		want       string
	}{
		{"default resolution", 34.0522, -118.2437, 0.01, "34.05,-118.24"},
		{"rounds to nearest cell", 34.056, -118.244, 0.01, "34.06,-118.24"},
		{"coarse grid", 34.0522, -118.2437, 0.1, "34.1,-118.2"},
		{"integer grid", 34.49, -118.51, 1, "34,-119"},
		{"negative zero normalized", -0.004, 0.004, 0.01, "0.00,0.00"},
		{"zero resolution falls back to default", 34.0522, -118.2437, 0, "34.05,-118.24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellKey(tt.lat, tt.lng, tt.resolution))
		})
	}

	t.Run("nearby queries share a cell", func(t *testing.T) {
		a := CellKey(34.0522, -118.2437, 0.01)
		b := CellKey(34.0549, -118.2449, 0.01)
		assert.Equal(t, a, b)
	})

	t.Run("distinct cells get distinct keys", func(t *testing.T) {
		a := CellKey(34.05, -118.24, 0.01)
		b := CellKey(34.06, -118.24, 0.01)
		assert.NotEqual(t, a, b)
	})
}

func TestCellCenter(t *testing.T) {
	c := CellCenter(34.0549, -118.2449, 0.01)
	assert.InDelta(t, 34.05, c.Lat, 1e-9)
	assert.InDelta(t, -118.24, c.Lng, 1e-9)
}

func TestBurnAreaID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, BurnAreaID("34.05,-118.24"), BurnAreaID("34.05,-118.24"))
	})

	t.Run("prefixed short hash", func(t *testing.T) {
		id := BurnAreaID("34.05,-118.24")
		assert.True(t, strings.HasPrefix(id, "burn-"))
		assert.Len(t, id, len("burn-")+16)
	})

	t.Run("distinct keys distinct ids", func(t *testing.T) {
		assert.NotEqual(t, BurnAreaID("34.05,-118.24"), BurnAreaID("34.06,-118.24"))
	})
}

func TestDeriveLastBurnDate(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, DeriveLastBurnDate("34.05,-118.24"), DeriveLastBurnDate("34.05,-118.24"))
	})

	t.Run("within the five year window", func(t *testing.T) {
		got := DeriveLastBurnDate("34.05,-118.24")
		d, err := time.Parse("2006-01-02", got)
		require.NoError(t, err)
		assert.False(t, d.After(lastBurnAnchor))
		assert.True(t, d.After(lastBurnAnchor.AddDate(0, 0, -lastBurnWindowDays)))
	})

	t.Run("varies across cells", func(t *testing.T) {
		dates := map[string]bool{}
		for _, key := range []string{"34.05,-118.24", "37.77,-122.42", "40.71,-74.01", "38.58,-121.49"} {
			dates[DeriveLastBurnDate(key)] = true
		}
		assert.Greater(t, len(dates), 1)
	})
}
