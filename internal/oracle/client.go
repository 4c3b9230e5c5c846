// Package oracle implements the client for the external predictive safety
// model. The oracle assesses one route segment at a time and returns a
// 0-100 safety score with a coarse risk level and contributing factors.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/nightowl-labs/safescore/internal/errors"
	"github.com/nightowl-labs/safescore/internal/resilience"
	"github.com/nightowl-labs/safescore/internal/scoring"
)

const (
	// ServiceName identifies the oracle in resilience tracking.
	ServiceName = "oracle"

	requestTimeout = 10 * time.Second
	maxFactors     = 5
)

// segmentRequest is the wire format of one prediction request.
type segmentRequest struct {
	StartLat      float64 `json:"start_lat"`
	StartLon      float64 `json:"start_lon"`
	EndLat        float64 `json:"end_lat"`
	EndLon        float64 `json:"end_lon"`
	TimeOfDay     string  `json:"time_of_day"`
	TransportMode string  `json:"transport_mode"`
}

// segmentResponse is the wire format of the oracle's answer. SafetyScore is
// a pointer so a missing field is detectable and rejected.
type segmentResponse struct {
	SafetyScore *float64 `json:"safetyScore"`
	RiskLevel   string   `json:"riskLevel"`
	Factors     []string `json:"factors"`
	Confidence  float64  `json:"confidence"`
}

// Client calls the predictive oracle over HTTP with a bearer token.
type Client struct {
	endpoint string
	token    string
	pool     *resilience.ConnectionPool
}

// NewClient creates an oracle client with connection pooling and a circuit
// breaker shared through the global registry.
func NewClient(endpoint, token string) *Client {
	cb := resilience.GetCircuitBreaker(ServiceName, resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})
	pool := resilience.NewConnectionPool(10, 20, 30*time.Second, requestTimeout, cb)

	return &Client{
		endpoint: endpoint,
		token:    token,
		pool:     pool,
	}
}

// IsConfigured reports whether the client has an endpoint to call.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// PredictSegment queries the oracle for one route leg. The response score
// is validated and clamped to [0,100]; an unrecognized risk level is
// re-derived from the score rather than treated as fatal.
func (c *Client) PredictSegment(ctx context.Context, q scoring.SegmentQuery) (scoring.SegmentPrediction, error) {
	if !c.IsConfigured() {
		return scoring.SegmentPrediction{}, errors.NewConfigurationError("oracle endpoint not configured", nil)
	}

	payload, err := json.Marshal(segmentRequest{
		StartLat:      q.StartLat,
		StartLon:      q.StartLon,
		EndLat:        q.EndLat,
		EndLon:        q.EndLon,
		TimeOfDay:     q.TimeOfDay,
		TransportMode: string(q.TransportMode),
	})
	if err != nil {
		return scoring.SegmentPrediction{}, errors.NewInternalError("failed to encode oracle request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	resp, err := c.pool.DoRequest(ctx, http.MethodPost, c.endpoint, headers, bytes.NewReader(payload))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return scoring.SegmentPrediction{}, errors.NewTimeoutError("oracle prediction timed out", err)
		}
		return scoring.SegmentPrediction{}, errors.NewOracleError("oracle request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return scoring.SegmentPrediction{}, errors.NewOracleError(
			fmt.Sprintf("oracle returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var sr segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return scoring.SegmentPrediction{}, errors.NewOracleError("failed to decode oracle response", err)
	}

	return normalize(sr)
}

// normalize validates and clamps a raw oracle response.
func normalize(sr segmentResponse) (scoring.SegmentPrediction, error) {
	if sr.SafetyScore == nil || math.IsNaN(*sr.SafetyScore) {
		return scoring.SegmentPrediction{}, errors.NewOracleError("oracle response missing numeric safetyScore", nil)
	}

	score := math.Min(100, math.Max(0, *sr.SafetyScore))

	riskLevel := sr.RiskLevel
	switch riskLevel {
	case "low", "medium", "high":
	default:
		riskLevel = deriveRiskLevel(score)
	}

	factors := sr.Factors
	if len(factors) > maxFactors {
		factors = factors[:maxFactors]
	}

	return scoring.SegmentPrediction{
		SafetyScore: score,
		RiskLevel:   riskLevel,
		Factors:     factors,
		Confidence:  math.Min(1, math.Max(0, sr.Confidence)),
	}, nil
}

func deriveRiskLevel(score float64) string {
	switch {
	case score >= 70:
		return "low"
	case score >= 50:
		return "medium"
	default:
		return "high"
	}
}

// GetPoolStats returns connection pool statistics.
func (c *Client) GetPoolStats() map[string]interface{} {
	return c.pool.GetStats()
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.pool.Close()
}
