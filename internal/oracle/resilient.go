package oracle

import (
	"context"

	"github.com/nightowl-labs/safescore/internal/errors"
	"github.com/nightowl-labs/safescore/internal/monitoring"
	"github.com/nightowl-labs/safescore/internal/resilience"
	"github.com/nightowl-labs/safescore/internal/scoring"
)

// ResilientPredictor wraps a Predictor with retry, health tracking and
// metrics. Route fan-out goes through this wrapper so every segment call is
// retried under the oracle policy and recorded for degradation tracking.
type ResilientPredictor struct {
	inner   scoring.Predictor
	metrics *monitoring.Metrics
}

// NewResilientPredictor wraps inner. metrics may be nil.
func NewResilientPredictor(inner scoring.Predictor, metrics *monitoring.Metrics) *ResilientPredictor {
	return &ResilientPredictor{inner: inner, metrics: metrics}
}

// PredictSegment implements scoring.Predictor.
func (rp *ResilientPredictor) PredictSegment(ctx context.Context, q scoring.SegmentQuery) (scoring.SegmentPrediction, error) {
	if !resilience.IsServiceAvailable(ServiceName) {
		return scoring.SegmentPrediction{}, errors.NewOracleError("oracle is unavailable due to high error rate", nil)
	}

	var pred scoring.SegmentPrediction
	err := resilience.ExecuteWithRetry(ctx, ServiceName, func() error {
		var callErr error
		pred, callErr = rp.inner.PredictSegment(ctx, q)
		return callErr
	})

	if rp.metrics != nil {
		rp.metrics.IncrementOracleCalls()
	}
	if err != nil {
		resilience.RecordError(ServiceName, err)
		if rp.metrics != nil {
			rp.metrics.IncrementOracleFailures()
		}
		return scoring.SegmentPrediction{}, err
	}

	resilience.RecordRequest(ServiceName, true)
	return pred, nil
}
