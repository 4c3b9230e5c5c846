package oracle

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nightowl-labs/safescore/internal/errors"
	"github.com/nightowl-labs/safescore/internal/monitoring"
	"github.com/nightowl-labs/safescore/internal/scoring"
)

// flakyPredictor fails the first failCount calls, then succeeds.
type flakyPredictor struct {
	failCount int32
	calls     int32
	err       error
}

func (f *flakyPredictor) PredictSegment(_ context.Context, _ scoring.SegmentQuery) (scoring.SegmentPrediction, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failCount {
		return scoring.SegmentPrediction{}, f.err
	}
	return scoring.SegmentPrediction{SafetyScore: 75, RiskLevel: "low", Confidence: 0.8}, nil
}

func TestResilientPredictorRetriesTransientFailures(t *testing.T) {
	inner := &flakyPredictor{failCount: 2, err: apperrors.NewOracleError("oracle request failed", nil)}
	metrics := monitoring.NewMetrics()
	rp := NewResilientPredictor(inner, metrics)

	pred, err := rp.PredictSegment(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Equal(t, 75.0, pred.SafetyScore)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
	assert.Equal(t, int64(1), metrics.OracleCalls)
	assert.Equal(t, int64(0), metrics.OracleFailures)
}

func TestResilientPredictorExhaustsRetries(t *testing.T) {
	inner := &flakyPredictor{failCount: 100, err: apperrors.NewOracleError("oracle request failed", nil)}
	metrics := monitoring.NewMetrics()
	rp := NewResilientPredictor(inner, metrics)

	_, err := rp.PredictSegment(context.Background(), testQuery())

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
	assert.Equal(t, int64(1), metrics.OracleFailures)
}

func TestResilientPredictorDoesNotRetryNonRetryable(t *testing.T) {
	inner := &flakyPredictor{failCount: 100, err: apperrors.NewValidationError("bad segment")}
	rp := NewResilientPredictor(inner, nil)

	_, err := rp.PredictSegment(context.Background(), testQuery())

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
}
