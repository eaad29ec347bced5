package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
)

const researchPrompt = `You are a research agent gathering environmental, geographic, and logistical information for prescribed fire planning.

When given a location, produce factual findings for each assessment area:
1. Natural, cultural, or human resources inside the project boundary
2. Significant developments or sensitive resources just outside the boundary
3. Degree of public or political sensitivity
4. Environmental hazards onsite or along travel routes
5. Nearest EMS facilities and transport times
6. Dominant fuel models and variability
7. Wind and microclimate effects from terrain
8. Ignition probability outside the unit (spotting or slopover)
9. Dependence on natural fuel breaks and heavy-fuel concerns
10. Suppression restrictions if fire escapes into nearby areas
11. Accessibility, remoteness, and travel limitations

Summarize concisely with enough detail for risk analysis. State plainly when information cannot be determined. Do not invent information.`

const scoringPrompt = `You are a scoring agent for prescribed fire risk. Classify the provided findings into a risk tier per category and convert each tier to a numeric score:

Low: 0.00-0.33 (default 0.20)
Moderate: 0.34-0.66 (default 0.50)
High: 0.67-1.00 (default 0.80)

Round to two decimals. If a category is ambiguous or missing, default to Moderate.

Respond with only a JSON object of this exact shape:

{"statistics": {"safety": number, "fire-behavior": number, "resistance-to-containment": number, "ignition-procedures-and-methods": number, "prescribed-fire-duration": number, "smoke-management": number, "number-and-dependence-of-activities": number, "management-organizations": number, "treatment-resource-objectives": number, "constraints": number, "project-logistics": number}}

All eleven fields are required. Values must be between 0.00 and 1.00. No extra fields. No text outside the JSON.`

// scoringTemperature keeps the extraction stage near-deterministic.
const scoringTemperature = 0.1

// Generator implements domain.StatisticsGenerator with a two-stage chat
// workflow: an open-ended research pass over the location, then a structured
// extraction pass that must emit exactly the eleven factors in range. Invalid
// extraction output gets one re-prompt carrying the validation failure; a
// second invalid reply falls back to the neutral assessment, flagged so the
// caller can mark the record degraded. Out-of-range values are never clamped
// into range here: clamping would hide that the model misread the scale.
type Generator struct {
	client        completer
	researchModel string
	scoringModel  string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

type completer interface {
	complete(ctx context.Context, req completionRequest) (string, error)
}

// NewGenerator creates the assessment generator on top of a chat client.
func NewGenerator(client *Client, researchModel, scoringModel string, metrics *observability.Metrics, logger *slog.Logger) *Generator {
	return &Generator{
		client:        client,
		researchModel: researchModel,
		scoringModel:  scoringModel,
		metrics:       metrics,
		logger:        logger,
	}
}

// Generate produces the eleven-factor assessment for a location. A non-nil
// error means the provider was unreachable; validation fallbacks come back
// as a result with Fallback set, not as errors.
func (g *Generator) Generate(ctx context.Context, query domain.LocationQuery, placeName string) (domain.StatisticsResult, error) {
	location := placeName
	if location == "" || location == domain.UnknownLocationName {
		location = fmt.Sprintf("%g, %g", query.Lat, query.Lng)
	}

	findings := g.research(ctx, location)

	raw, err := g.client.complete(ctx, completionRequest{
		model:       g.scoringModel,
		messages:    scoringMessages(location, findings, ""),
		temperature: ptr(scoringTemperature),
		jsonOnly:    true,
	})
	if err != nil {
		return domain.StatisticsResult{}, fmt.Errorf("scoring stage: %w", err)
	}

	stats, parseErr := parseScored(raw)
	if parseErr == nil {
		return domain.StatisticsResult{Statistics: stats}, nil
	}

	g.logger.Warn("assessment failed validation, re-prompting", "location", location, "error", parseErr)

	raw, err = g.client.complete(ctx, completionRequest{
		model:       g.scoringModel,
		messages:    scoringMessages(location, findings, parseErr.Error()),
		temperature: ptr(scoringTemperature),
		jsonOnly:    true,
	})
	if err != nil {
		return domain.StatisticsResult{}, fmt.Errorf("scoring retry: %w", err)
	}

	stats, parseErr = parseScored(raw)
	if parseErr == nil {
		return domain.StatisticsResult{Statistics: stats}, nil
	}

	g.metrics.GeneratorFallbacks.Inc()
	g.logger.Warn("assessment failed validation twice, using neutral fallback", "location", location, "error", parseErr)
	return domain.StatisticsResult{
		Statistics:     domain.NeutralStatistics(),
		Fallback:       true,
		FallbackReason: parseErr.Error(),
	}, nil
}

// research runs the open-ended stage. Failures are not fatal: scoring can
// still proceed from the place name alone.
func (g *Generator) research(ctx context.Context, location string) string {
	findings, err := g.client.complete(ctx, completionRequest{
		model: g.researchModel,
		messages: []Message{
			{Role: roleSystem, Content: researchPrompt},
			{Role: roleUser, Content: "Research the following location: " + location},
		},
	})
	if err != nil {
		g.logger.Warn("research stage failed, scoring without findings", "location", location, "error", err)
		return ""
	}
	return findings
}

func scoringMessages(location, findings, validationErr string) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Score the following location strictly per the schema: %s\n", location)
	if findings != "" {
		fmt.Fprintf(&b, "\nResearch findings:\n%s\n", findings)
	}
	if validationErr != "" {
		fmt.Fprintf(&b, "\nYour previous answer was rejected: %s.\nReturn only the corrected JSON object with all eleven fields present and in range.", validationErr)
	}
	return []Message{
		{Role: roleSystem, Content: scoringPrompt},
		{Role: roleUser, Content: b.String()},
	}
}

// parseScored validates one model reply against the strict schema.
func parseScored(raw string) (domain.Statistics, error) {
	var envelope struct {
		Statistics map[string]any `json:"statistics"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return domain.Statistics{}, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if envelope.Statistics == nil {
		return domain.Statistics{}, errors.New(`reply lacks a "statistics" object`)
	}
	return domain.ParseStatistics(envelope.Statistics)
}

func ptr(v float64) *float64 { return &v }
