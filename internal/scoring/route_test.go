package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePredictor returns a fixed score, or an error for segments whose end
// latitude is in failLats.
type fakePredictor struct {
	score    float64
	failLats map[float64]bool

	mu      sync.Mutex
	queries []SegmentQuery
}

func (f *fakePredictor) PredictSegment(_ context.Context, q SegmentQuery) (SegmentPrediction, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.failLats[q.EndLat] {
		return SegmentPrediction{}, errors.New("oracle unavailable")
	}
	return SegmentPrediction{SafetyScore: f.score, RiskLevel: "low", Confidence: 0.9}, nil
}

func TestRouteLocationRiskNoWaypoints(t *testing.T) {
	ra := NewRouteAnalyzer(&fakePredictor{score: 100}, false)
	base := LocationData{IsIsolated: true} // rule risk 0.55

	risk, err := ra.LocationRisk(context.Background(), base, nil, ModeWalking, TimeData{Hour: 12})

	require.NoError(t, err)
	assert.InDelta(t, 0.55, risk, 1e-9)
}

func TestRouteLocationRiskOracleBlend(t *testing.T) {
	// Base and waypoint both have bare rule risk 0.3. Oracle score 80 gives
	// segment risk 0.6*0.2 + 0.4*0.3 = 0.24, and the final blend
	// 0.3*0.3 + 0.7*0.24 = 0.258.
	pred := &fakePredictor{score: 80}
	ra := NewRouteAnalyzer(pred, false)

	risk, err := ra.LocationRisk(context.Background(),
		LocationData{Latitude: 30.6, Longitude: -96.3},
		[]LocationData{{Latitude: 30.7, Longitude: -96.4}},
		ModeDriving, TimeData{Hour: 9})

	require.NoError(t, err)
	assert.InDelta(t, 0.258, risk, 1e-9)

	require.Len(t, pred.queries, 1)
	q := pred.queries[0]
	assert.Equal(t, 30.6, q.StartLat)
	assert.Equal(t, 30.7, q.EndLat)
	assert.Equal(t, "09:00", q.TimeOfDay)
	assert.Equal(t, ModeDriving, q.TransportMode)
}

func TestRouteSegmentsChainConsecutively(t *testing.T) {
	pred := &fakePredictor{score: 100}
	ra := NewRouteAnalyzer(pred, false)

	waypoints := []LocationData{
		{Latitude: 1}, {Latitude: 2}, {Latitude: 3},
	}
	_, err := ra.LocationRisk(context.Background(), LocationData{Latitude: 0}, waypoints, ModeWalking, TimeData{Hour: 12})
	require.NoError(t, err)

	require.Len(t, pred.queries, 3)
	starts := map[float64]float64{}
	for _, q := range pred.queries {
		starts[q.StartLat] = q.EndLat
	}
	// Each segment starts where the previous one ended.
	assert.Equal(t, map[float64]float64{0: 1, 1: 2, 2: 3}, starts)
}

func TestRouteOracleFailurePropagates(t *testing.T) {
	pred := &fakePredictor{score: 90, failLats: map[float64]bool{2: true}}
	ra := NewRouteAnalyzer(pred, false)

	_, err := ra.LocationRisk(context.Background(), LocationData{},
		[]LocationData{{Latitude: 1}, {Latitude: 2}}, ModeWalking, TimeData{Hour: 12})

	assert.Error(t, err)
}

func TestRouteOracleFailureFallsBackPerSegment(t *testing.T) {
	// Segment to lat 2 fails; under the fallback policy it degrades to its
	// rule-based endpoint risk (isolated, 0.55) while the healthy segment
	// still blends the oracle score: 0.6*0.1 + 0.4*0.3 = 0.18.
	// avg = (0.18+0.55)/2 = 0.365; final = 0.3*0.3 + 0.7*0.365 = 0.3455.
	pred := &fakePredictor{score: 90, failLats: map[float64]bool{2: true}}
	ra := NewRouteAnalyzer(pred, true)

	risk, err := ra.LocationRisk(context.Background(), LocationData{},
		[]LocationData{
			{Latitude: 1},
			{Latitude: 2, IsIsolated: true},
		}, ModeWalking, TimeData{Hour: 12})

	require.NoError(t, err)
	assert.InDelta(t, 0.3455, risk, 1e-9)
}

func TestRouteNilPredictorUsesRuleBlend(t *testing.T) {
	// No predictor: 0.4*base + 0.6*average of rule risks.
	// base 0.3, waypoint isolated 0.55 -> 0.12 + 0.33 = 0.45.
	ra := NewRouteAnalyzer(nil, false)

	risk, err := ra.LocationRisk(context.Background(), LocationData{},
		[]LocationData{{IsIsolated: true}}, ModeWalking, TimeData{Hour: 12})

	require.NoError(t, err)
	assert.InDelta(t, 0.45, risk, 1e-9)
}

func TestRouteEmptyModeDefaultsToWalking(t *testing.T) {
	pred := &fakePredictor{score: 100}
	ra := NewRouteAnalyzer(pred, false)

	_, err := ra.LocationRisk(context.Background(), LocationData{},
		[]LocationData{{Latitude: 1}}, "", TimeData{Hour: 12})

	require.NoError(t, err)
	require.Len(t, pred.queries, 1)
	assert.Equal(t, ModeWalking, pred.queries[0].TransportMode)
}
