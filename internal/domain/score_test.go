package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScores(t *testing.T) {
	weights := DefaultScoreWeights()

	t.Run("high oracle probability lands in the high band", func(t *testing.T) {
		// Urban cell: neutral assessment, high oracle probability, LA-scale
		// exposure. The default weighting must keep this in the high band.
		in := ScoreInput{
			Statistics:         NeutralStatistics(),
			RiskProbability:    0.82,
			TotalPopulation:    3_900_000,
			TotalValueEstimate: 7e11,
		}
		got := ComputeScores(in, weights)
		assert.GreaterOrEqual(t, got.CalculatedThreatRating, 0.7)
		assert.LessOrEqual(t, got.CalculatedThreatRating, 1.0)
		assert.InDelta(t, 0.5, got.PreliminaryFeasibilityScore, 1e-9)
	})

	t.Run("wilderness cell has no exposure term", func(t *testing.T) {
		in := ScoreInput{
			Statistics:      NeutralStatistics(),
			RiskProbability: 0.82,
		}
		got := ComputeScores(in, weights)
		assert.InDelta(t, 0.65*0.82+0.20*0.5, got.CalculatedThreatRating, 1e-9)
	})

	t.Run("saturated inputs clamp to one", func(t *testing.T) {
		stats, err := ParseStatistics(func() map[string]any {
			m := make(map[string]any)
			for _, key := range FactorKeys {
				m[key] = 1.0
			}
			return m
		}())
		require.NoError(t, err)

		in := ScoreInput{
			Statistics:         stats,
			RiskProbability:    1,
			TotalPopulation:    500_000_000,
			TotalValueEstimate: 9e13,
		}
		got := ComputeScores(in, weights)
		assert.InDelta(t, 1.0, got.CalculatedThreatRating, 1e-9)
		assert.LessOrEqual(t, got.CalculatedThreatRating, 1.0)
	})

	t.Run("monotonic in oracle probability", func(t *testing.T) {
		in := ScoreInput{Statistics: NeutralStatistics(), RiskProbability: 0.3, TotalPopulation: 1000}
		low := ComputeScores(in, weights)
		in.RiskProbability = 0.8
		high := ComputeScores(in, weights)
		assert.GreaterOrEqual(t, high.CalculatedThreatRating, low.CalculatedThreatRating)
	})

	t.Run("monotonic in hazard factors", func(t *testing.T) {
		in := ScoreInput{Statistics: NeutralStatistics(), RiskProbability: 0.5}
		base := ComputeScores(in, weights)
		in.Statistics.FireBehavior = 0.95
		raised := ComputeScores(in, weights)
		assert.GreaterOrEqual(t, raised.CalculatedThreatRating, base.CalculatedThreatRating)
	})

	t.Run("monotonic in exposure", func(t *testing.T) {
		in := ScoreInput{Statistics: NeutralStatistics(), RiskProbability: 0.5, TotalPopulation: 1_000}
		small := ComputeScores(in, weights)
		in.TotalPopulation = 1_000_000
		big := ComputeScores(in, weights)
		assert.GreaterOrEqual(t, big.CalculatedThreatRating, small.CalculatedThreatRating)
	})

	t.Run("feasibility falls as organizational burden rises", func(t *testing.T) {
		easy := NeutralStatistics()
		easy.ManagementOrganizations = 0.1
		easy.Constraints = 0.1
		easy.ProjectLogistics = 0.1
		hard := NeutralStatistics()
		hard.ManagementOrganizations = 0.9
		hard.Constraints = 0.9
		hard.ProjectLogistics = 0.9

		gotEasy := ComputeScores(ScoreInput{Statistics: easy}, weights)
		gotHard := ComputeScores(ScoreInput{Statistics: hard}, weights)
		assert.Greater(t, gotEasy.PreliminaryFeasibilityScore, gotHard.PreliminaryFeasibilityScore)
		assert.InDelta(t, 0.9, gotEasy.PreliminaryFeasibilityScore, 1e-9)
		assert.InDelta(t, 0.1, gotHard.PreliminaryFeasibilityScore, 1e-9)
	})

	t.Run("feasibility independent of threat inputs", func(t *testing.T) {
		in := ScoreInput{Statistics: NeutralStatistics(), RiskProbability: 0.1}
		a := ComputeScores(in, weights)
		in.RiskProbability = 0.9
		in.TotalPopulation = 2_000_000
		in.TotalValueEstimate = 5e11
		b := ComputeScores(in, weights)
		assert.Equal(t, a.PreliminaryFeasibilityScore, b.PreliminaryFeasibilityScore)
	})

	t.Run("deterministic", func(t *testing.T) {
		in := ScoreInput{
			Statistics:         NeutralStatistics(),
			RiskProbability:    0.42,
			TotalPopulation:    123_456,
			TotalValueEstimate: 3.2e9,
		}
		assert.Equal(t, ComputeScores(in, weights), ComputeScores(in, weights))
	})
}

func TestExposureIndex(t *testing.T) {
	t.Run("wilderness is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ExposureIndex(0, 0))
	})

	t.Run("saturates at the ceilings", func(t *testing.T) {
		assert.InDelta(t, 1.0, ExposureIndex(maxExposurePopulation, maxExposureValue), 1e-6)
	})

	t.Run("capped above the ceilings", func(t *testing.T) {
		assert.LessOrEqual(t, ExposureIndex(2_000_000_000, 1e15), 1.0)
	})

	t.Run("monotonic in population", func(t *testing.T) {
		assert.GreaterOrEqual(t, ExposureIndex(100_000, 1e9), ExposureIndex(1_000, 1e9))
	})

	t.Run("monotonic in value", func(t *testing.T) {
		assert.GreaterOrEqual(t, ExposureIndex(1_000, 1e11), ExposureIndex(1_000, 1e9))
	})
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"negative clamps to zero", -0.2, 0},
		{"in range unchanged", 0.42, 0.42},
		{"above one clamps", 1.7, 1},
		{"boundary zero", 0, 0},
		{"boundary one", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp01(tt.in))
		})
	}
}

func TestNormalizeUnitScale(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    float64
		wantErr bool
	}{
		{"zero passes", 0, 0, false},
		{"canonical passes", 0.3, 0.3, false},
		{"boundary one passes", 1, 1, false},
		{"legacy scale rescaled", 7, 0.7, false},
		{"legacy boundary ten", 10, 1, false},
		{"negative malformed", -0.1, 0, true},
		{"above ten malformed", 10.5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUnitScale(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights ScoreWeights
		wantErr bool
	}{
		{"defaults valid", DefaultScoreWeights(), false},
		{"risk only", ScoreWeights{Risk: 1}, false},
		{"negative weight", ScoreWeights{Risk: -0.1, Hazard: 0.5, Exposure: 0.1}, true},
		{"sum above one", ScoreWeights{Risk: 0.8, Hazard: 0.5, Exposure: 0.2}, true},
		{"all zero", ScoreWeights{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
