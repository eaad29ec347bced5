package domain

import (
	"fmt"
	"math"
)

// Exposure saturation anchors. Both come from Los Angeles County, the most
// populous and highest-GDP county in the service area; exposure terms cap at
// these values so no single input can push the rating past its weight.
const (
	maxExposurePopulation = 10_000_000
	maxExposureValue      = 1.2e12 // USD
)

// ScoreWeights tunes the calculated-threat-rating combination. The oracle
// probability is the primary signal; assessment factors and economic
// exposure are secondary modifiers. Weather is carried in the score input
// for policy evolution but the default policy does not weight it.
type ScoreWeights struct {
	Risk     float64
	Hazard   float64
	Exposure float64
}

// DefaultScoreWeights returns the documented default policy.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Risk: 0.65, Hazard: 0.20, Exposure: 0.15}
}

// Validate rejects weight sets that could produce ratings outside [0, 1]
// before clamping, or that zero out the score entirely.
func (w ScoreWeights) Validate() error {
	for name, v := range map[string]float64{"risk": w.Risk, "hazard": w.Hazard, "exposure": w.Exposure} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s weight %g outside [0,1]", name, v)
		}
	}
	sum := w.Risk + w.Hazard + w.Exposure
	if sum <= 0 {
		return fmt.Errorf("weights sum to %g, must be positive", sum)
	}
	if sum > 1 {
		return fmt.Errorf("weights sum to %g, must not exceed 1", sum)
	}
	return nil
}

// ScoreInput carries the canonical [0, 1] inputs for one cell. Callers
// normalize scales at ingestion; the calculator never rescales.
type ScoreInput struct {
	Statistics         Statistics
	Weather            WeatherSnapshot
	RiskProbability    float64
	TotalPopulation    int64
	TotalValueEstimate float64
}

// Scores is the pair of derived ratings persisted on a BurnArea.
type Scores struct {
	CalculatedThreatRating      float64
	PreliminaryFeasibilityScore float64
}

// ComputeScores derives the composite ratings. Pure and deterministic.
//
// The threat rating is a weighted sum of the oracle probability, the hazard
// factor mean, and the exposure index, clamped to [0, 1]. It is monotonic:
// raising the oracle probability, any hazard factor, nearby population, or
// value estimate never lowers the rating, all else equal.
//
// The feasibility score is the organizational axis, independent of threat:
// 1 minus the mean of management-organizations, constraints, and
// project-logistics. Harder logistics mean lower feasibility.
func ComputeScores(in ScoreInput, w ScoreWeights) Scores {
	rating := w.Risk*in.RiskProbability +
		w.Hazard*in.Statistics.HazardMean() +
		w.Exposure*ExposureIndex(in.TotalPopulation, in.TotalValueEstimate)

	burden := (in.Statistics.ManagementOrganizations +
		in.Statistics.Constraints +
		in.Statistics.ProjectLogistics) / 3

	return Scores{
		CalculatedThreatRating:      Clamp01(rating),
		PreliminaryFeasibilityScore: Clamp01(1 - burden),
	}
}

// ExposureIndex maps nearby population and value estimates onto [0, 1].
// Population contributes logarithmically (the difference between 0 and 10k
// residents matters more than between 1M and 2M) and value by square root,
// each capped at half the index. Unpopulated, unpriced wilderness scores 0.
func ExposureIndex(population int64, value float64) float64 {
	if population <= 0 && value <= 0 {
		return 0
	}
	popTerm := math.Log10(1+math.Max(float64(population), 0)) / math.Log10(1+maxExposurePopulation)
	valueTerm := math.Sqrt(math.Max(value, 0)) / math.Sqrt(maxExposureValue)
	return 0.5*math.Min(popTerm, 1) + 0.5*math.Min(valueTerm, 1)
}

// Clamp01 bounds v to the canonical score range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeUnitScale resolves the legacy dual-scale encoding once, at
// ingestion: values already in [0, 1] pass through, (1, 10] is treated as
// the historical ten-point scale and divided by 10, anything else is
// malformed. Downstream code assumes canonical [0, 1] and never rescales.
func NormalizeUnitScale(v float64) (float64, error) {
	switch {
	case v >= 0 && v <= 1:
		return v, nil
	case v > 1 && v <= 10:
		return v / 10, nil
	default:
		return 0, fmt.Errorf("%w: score %g outside [0,10]", ErrMalformedResponse, v)
	}
}
