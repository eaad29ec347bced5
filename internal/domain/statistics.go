package domain

import (
	"fmt"
	"strings"
)

// NeutralFactor is the documented fallback score substituted when the
// generator cannot produce a valid assessment. Midpoint of the canonical
// scale: neither reassuring nor alarming.
const NeutralFactor = 0.5

// FactorKeys lists the eleven assessment factors in canonical wire order.
var FactorKeys = []string{
	"safety",
	"fire-behavior",
	"resistance-to-containment",
	"ignition-procedures-and-methods",
	"prescribed-fire-duration",
	"smoke-management",
	"number-and-dependence-of-activities",
	"management-organizations",
	"treatment-resource-objectives",
	"constraints",
	"project-logistics",
}

// Statistics holds the eleven complexity factors on the canonical [0, 1]
// scale. The struct always carries all eleven; validation happens at the
// generator boundary, not here.
type Statistics struct {
	Safety                          float64 `json:"safety"`
	FireBehavior                    float64 `json:"fire-behavior"`
	ResistanceToContainment         float64 `json:"resistance-to-containment"`
	IgnitionProceduresAndMethods    float64 `json:"ignition-procedures-and-methods"`
	PrescribedFireDuration          float64 `json:"prescribed-fire-duration"`
	SmokeManagement                 float64 `json:"smoke-management"`
	NumberAndDependenceOfActivities float64 `json:"number-and-dependence-of-activities"`
	ManagementOrganizations         float64 `json:"management-organizations"`
	TreatmentResourceObjectives     float64 `json:"treatment-resource-objectives"`
	Constraints                     float64 `json:"constraints"`
	ProjectLogistics                float64 `json:"project-logistics"`
}

// fields returns pointers to the factor values in FactorKeys order.
func (s *Statistics) fields() []*float64 {
	return []*float64{
		&s.Safety,
		&s.FireBehavior,
		&s.ResistanceToContainment,
		&s.IgnitionProceduresAndMethods,
		&s.PrescribedFireDuration,
		&s.SmokeManagement,
		&s.NumberAndDependenceOfActivities,
		&s.ManagementOrganizations,
		&s.TreatmentResourceObjectives,
		&s.Constraints,
		&s.ProjectLogistics,
	}
}

// NeutralStatistics returns the all-neutral fallback assessment.
func NeutralStatistics() Statistics {
	var s Statistics
	for _, f := range s.fields() {
		*f = NeutralFactor
	}
	return s
}

// ParseStatistics strictly validates generator output. Every factor key must
// be present, numeric, and within [0, 1]; anything else fails with a message
// naming each offending key, suitable for feeding back into a retry prompt.
// Unknown keys are ignored. Values are never clamped here: an out-of-range
// score means the generator misread the scale, not that it overshot.
func ParseStatistics(values map[string]any) (Statistics, error) {
	var s Statistics
	fields := s.fields()
	var problems []string
	for i, key := range FactorKeys {
		raw, ok := values[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing key %q", key))
			continue
		}
		v, ok := raw.(float64)
		if !ok {
			problems = append(problems, fmt.Sprintf("key %q: non-numeric value", key))
			continue
		}
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("key %q: value %g outside [0,1]", key, v))
			continue
		}
		*fields[i] = v
	}
	if len(problems) > 0 {
		return Statistics{}, fmt.Errorf("invalid statistics: %s", strings.Join(problems, "; "))
	}
	return s, nil
}

// FillStatistics reconciles at-rest data (bulk imports, historical payloads)
// into a complete assessment: missing keys take the neutral default, legacy
// [0, 10] values are rescaled, and everything is clamped to [0, 1]. Strict
// validation belongs at the generator boundary, not here.
func FillStatistics(values map[string]float64) Statistics {
	var s Statistics
	fields := s.fields()
	for i, key := range FactorKeys {
		v, ok := values[key]
		if !ok {
			v = NeutralFactor
		}
		if v > 1 && v <= 10 {
			v /= 10
		}
		*fields[i] = Clamp01(v)
	}
	return s
}

// Factors returns the assessment as a key/value map in wire naming.
func (s Statistics) Factors() map[string]float64 {
	fields := s.fields()
	m := make(map[string]float64, len(FactorKeys))
	for i, key := range FactorKeys {
		m[key] = *fields[i]
	}
	return m
}

// Mean averages all eleven factors.
func (s Statistics) Mean() float64 {
	var sum float64
	for _, f := range s.fields() {
		sum += *f
	}
	return sum / float64(len(FactorKeys))
}

// HazardMean averages the eight factors describing the burn itself, leaving
// out the three organizational factors used by the feasibility score
// (management-organizations, constraints, project-logistics).
func (s Statistics) HazardMean() float64 {
	sum := s.Safety +
		s.FireBehavior +
		s.ResistanceToContainment +
		s.IgnitionProceduresAndMethods +
		s.PrescribedFireDuration +
		s.SmokeManagement +
		s.NumberAndDependenceOfActivities +
		s.TreatmentResourceObjectives
	return sum / 8
}
