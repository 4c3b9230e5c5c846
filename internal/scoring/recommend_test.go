package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafetyLevel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89, "Good"},
		{70, "Good"},
		{69, "Moderate"},
		{50, "Moderate"},
		{49, "Poor"},
		{30, "Poor"},
		{29, "Dangerous"},
		{0, "Dangerous"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SafetyLevel(tt.score), "score %d", tt.score)
	}
}

func result(score int, b RiskBreakdown) SafetyScoreResult {
	return SafetyScoreResult{TotalScore: score, Breakdown: b}
}

func TestRecommendationsDangerousPrefix(t *testing.T) {
	recs := Recommendations(result(15, RiskBreakdown{CrimeRisk: 0.9}))

	assert.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "DANGEROUS CONDITIONS")
}

func TestRecommendationsFactorLadders(t *testing.T) {
	tests := []struct {
		name      string
		breakdown RiskBreakdown
		want      string
	}{
		{"very high crime", RiskBreakdown{CrimeRisk: 0.8}, "Very high crime area"},
		{"high crime", RiskBreakdown{CrimeRisk: 0.6}, "High crime area"},
		{"moderate crime", RiskBreakdown{CrimeRisk: 0.4}, "moderate crime risk"},
		{"very risky location", RiskBreakdown{LocationRisk: 0.8}, "Very isolated or risky area"},
		{"isolated location", RiskBreakdown{LocationRisk: 0.6}, "Isolated area detected"},
		{"very late hours", RiskBreakdown{TimeRisk: 0.8}, "Very late hours"},
		{"late hours", RiskBreakdown{TimeRisk: 0.5}, "Late hours"},
		{"evening travel", RiskBreakdown{TimeRisk: 0.1}, "Evening/night travel"},
		{"severe weather", RiskBreakdown{WeatherRisk: 0.9}, "SEVERE WEATHER ALERT"},
		{"poor weather", RiskBreakdown{WeatherRisk: 0.6}, "Poor weather conditions"},
		{"mild weather", RiskBreakdown{WeatherRisk: 0.4}, "affect visibility"},
		{"critical battery", RiskBreakdown{BatteryRisk: 0.8}, "CRITICAL: very low battery"},
		{"low battery", RiskBreakdown{BatteryRisk: 0.5}, "Low battery"},
		{"battery advisory", RiskBreakdown{BatteryRisk: 0.3}, "Consider charging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Recommendations(result(45, tt.breakdown))

			found := false
			for _, r := range recs {
				if strings.Contains(r, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a recommendation containing %q, got %v", tt.want, recs)
		})
	}
}

func TestRecommendationsOnlyOnePerFactor(t *testing.T) {
	// Each factor ladder emits at most one advisory even when several
	// thresholds are crossed.
	recs := Recommendations(result(45, RiskBreakdown{CrimeRisk: 0.9}))

	crimeAdvisories := 0
	for _, r := range recs {
		if strings.Contains(r, "crime") {
			crimeAdvisories++
		}
	}
	assert.Equal(t, 1, crimeAdvisories)
}

func TestRecommendationsPositivePaths(t *testing.T) {
	// Excellent conditions always carry the positive advisory.
	recs := Recommendations(result(95, RiskBreakdown{}))
	assert.Equal(t, []string{"Excellent conditions - safe to proceed"}, recs)

	// Clean good score gets the good-conditions advisory.
	recs = Recommendations(result(75, RiskBreakdown{}))
	assert.Equal(t, []string{"Good conditions - generally safe with standard precautions"}, recs)

	// Moderate score with no factor advisories falls back to the default.
	recs = Recommendations(result(55, RiskBreakdown{}))
	assert.Equal(t, []string{"Exercise normal safety precautions"}, recs)
}
