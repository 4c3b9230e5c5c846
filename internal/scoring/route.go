package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SegmentQuery describes one route leg for the predictive oracle.
type SegmentQuery struct {
	StartLat      float64
	StartLon      float64
	EndLat        float64
	EndLon        float64
	TimeOfDay     string
	TransportMode TransportMode
}

// SegmentPrediction is the oracle's assessment of one leg, already
// validated and clamped by the client.
type SegmentPrediction struct {
	SafetyScore float64  `json:"safetyScore"`
	RiskLevel   string   `json:"riskLevel"`
	Factors     []string `json:"factors"`
	Confidence  float64  `json:"confidence"`
}

// Predictor is the external predictive oracle capability. Implementations
// must be safe for concurrent use; the analyzer issues one call per segment
// in parallel.
type Predictor interface {
	PredictSegment(ctx context.Context, q SegmentQuery) (SegmentPrediction, error)
}

// Blend ratio policy constants. Per segment the oracle
// dominates the rule-based point estimate; the route average dominates the
// base location.
const (
	segmentOracleWeight = 0.6
	segmentRuleWeight   = 0.4
	baseLocationWeight  = 0.3
	routeAverageWeight  = 0.7

	// Rule-only blend used when no predictor is configured.
	ruleBaseLocationWeight = 0.4
	ruleRouteAverageWeight = 0.6
)

// RouteAnalyzer resolves the location-risk component for a whole route.
// fallbackToRules selects the oracle failure policy: false (the default)
// propagates the failure and aborts the score, true degrades the failing
// segment to its rule-based risk and logs the downgrade.
type RouteAnalyzer struct {
	predictor       Predictor
	fallbackToRules bool
}

// NewRouteAnalyzer creates a route analyzer. predictor may be nil, in which
// case all routes are scored rule-based.
func NewRouteAnalyzer(predictor Predictor, fallbackToRules bool) *RouteAnalyzer {
	return &RouteAnalyzer{predictor: predictor, fallbackToRules: fallbackToRules}
}

// LocationRisk computes the [0,1] location risk for the route described by
// base plus waypoints. With no waypoints this degenerates to the
// single-point rule-based risk of base.
func (ra *RouteAnalyzer) LocationRisk(ctx context.Context, base LocationData, waypoints []LocationData, mode TransportMode, t TimeData) (float64, error) {
	baseRisk := LocationRisk(base)
	if len(waypoints) == 0 {
		return baseRisk, nil
	}

	if ra.predictor == nil {
		avg := ra.ruleBasedAverage(waypoints)
		return clamp(ruleBaseLocationWeight*baseRisk+ruleRouteAverageWeight*avg, 0, 1), nil
	}

	avg, err := ra.predictedAverage(ctx, base, waypoints, mode, t)
	if err != nil {
		return 0, err
	}
	return clamp(baseLocationWeight*baseRisk+routeAverageWeight*avg, 0, 1), nil
}

func (ra *RouteAnalyzer) ruleBasedAverage(waypoints []LocationData) float64 {
	sum := 0.0
	for _, wp := range waypoints {
		sum += LocationRisk(wp)
	}
	return sum / float64(len(waypoints))
}

// predictedAverage fans out one oracle call per segment and joins all
// results before averaging. There is no partial-result path: either every
// segment resolves (by oracle or, under the fallback policy, by rules) or
// the first failure aborts the route.
func (ra *RouteAnalyzer) predictedAverage(ctx context.Context, base LocationData, waypoints []LocationData, mode TransportMode, t TimeData) (float64, error) {
	if mode == "" {
		mode = ModeWalking
	}
	timeOfDay := fmt.Sprintf("%02d:00", t.Hour)

	risks := make([]float64, len(waypoints))
	errs := make([]error, len(waypoints))

	var wg sync.WaitGroup
	prev := base
	for i, wp := range waypoints {
		wg.Add(1)
		go func(i int, start, end LocationData) {
			defer wg.Done()
			risks[i], errs[i] = ra.segmentRisk(ctx, SegmentQuery{
				StartLat:      start.Latitude,
				StartLon:      start.Longitude,
				EndLat:        end.Latitude,
				EndLon:        end.Longitude,
				TimeOfDay:     timeOfDay,
				TransportMode: mode,
			}, end)
		}(i, prev, wp)
		prev = wp
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	sum := 0.0
	for _, r := range risks {
		sum += r
	}
	return sum / float64(len(waypoints)), nil
}

// segmentRisk blends the oracle's prediction for one leg with the
// rule-based risk of the leg's endpoint.
func (ra *RouteAnalyzer) segmentRisk(ctx context.Context, q SegmentQuery, endpoint LocationData) (float64, error) {
	ruleRisk := LocationRisk(endpoint)

	pred, err := ra.predictor.PredictSegment(ctx, q)
	if err != nil {
		if !ra.fallbackToRules {
			return 0, err
		}
		// Explicit, logged policy decision, never a silent default score.
		slog.Warn("oracle prediction failed, degrading segment to rule-based risk",
			"error", err,
			"end_lat", q.EndLat,
			"end_lon", q.EndLon,
			"transport_mode", string(q.TransportMode))
		return ruleRisk, nil
	}

	oracleRisk := 1 - pred.SafetyScore/100
	return segmentOracleWeight*oracleRisk + segmentRuleWeight*ruleRisk, nil
}
