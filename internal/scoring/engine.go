package scoring

import (
	"context"
	"math"

	"github.com/nightowl-labs/safescore/internal/errors"
)

// Config holds engine policy knobs.
type Config struct {
	// OracleFallback opts into rule-based degradation when an oracle call
	// fails. The default (false) propagates the failure and aborts the
	// whole score computation.
	OracleFallback bool
}

// Engine computes safety scores. It holds no mutable state and is safe for
// concurrent use; all working data is request-scoped.
type Engine struct {
	routes *RouteAnalyzer
}

// NewEngine creates a scoring engine. predictor may be nil to disable
// oracle-refined route analysis entirely.
func NewEngine(predictor Predictor, cfg Config) *Engine {
	return &Engine{routes: NewRouteAnalyzer(predictor, cfg.OracleFallback)}
}

// ComputeSafetyScore validates the input, resolves the five risk factors,
// applies the transport mode profile and aggregates them into a 0-100
// safety score.
func (e *Engine) ComputeSafetyScore(ctx context.Context, in SafetyScoreInput) (SafetyScoreResult, error) {
	if err := validateInput(in); err != nil {
		return SafetyScoreResult{}, err
	}

	profile := ProfileFor(in.TransportMode)

	locationRisk, err := e.routes.LocationRisk(ctx, *in.Location, in.RouteWaypoints, in.TransportMode, *in.Time)
	if err != nil {
		return SafetyScoreResult{}, err
	}

	breakdown := RiskBreakdown{
		CrimeRisk:    clamp(CrimeRisk(*in.Crime)*profile.Multipliers.Crime, 0, 1),
		LocationRisk: clamp(locationRisk*profile.Multipliers.Location, 0, 1),
		TimeRisk:     clamp(TimeRisk(*in.Time)*profile.Multipliers.Time, 0, 1),
		WeatherRisk:  clamp(WeatherRisk(*in.Weather)*profile.Multipliers.Weather, 0, 1),
		BatteryRisk:  clamp(BatteryRisk(*in.Battery)*profile.Multipliers.Battery, 0, 1),
	}

	totalRisk := profile.Weights.Crime*breakdown.CrimeRisk +
		profile.Weights.Location*breakdown.LocationRisk +
		profile.Weights.Time*breakdown.TimeRisk +
		profile.Weights.Weather*breakdown.WeatherRisk +
		profile.Weights.Battery*breakdown.BatteryRisk
	totalRisk = clamp(totalRisk, 0, 1)

	return SafetyScoreResult{
		TotalScore: int(math.Round(100 * (1 - totalRisk))),
		Risk:       totalRisk,
		Breakdown:  breakdown,
		Weights:    profile.Weights,
	}, nil
}

// validateInput rejects requests missing required sub-structures before any
// computation. Degenerate numeric values are not rejected; the calculators
// clamp them.
func validateInput(in SafetyScoreInput) error {
	missing := map[string]string{}
	if in.Crime == nil {
		missing["crime"] = "crime data is required"
	}
	if in.Location == nil {
		missing["location"] = "location data is required"
	}
	if in.Time == nil {
		missing["time"] = "time data is required"
	}
	if in.Weather == nil {
		missing["weather"] = "weather data is required"
	}
	if in.Battery == nil {
		missing["battery"] = "battery data is required"
	}
	if len(missing) > 0 {
		return errors.NewValidationErrorWithMap(missing)
	}
	return nil
}
