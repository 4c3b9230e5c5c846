package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nightowl-labs/safescore/internal/errors"
)

func goodDrivingInput() SafetyScoreInput {
	return SafetyScoreInput{
		Crime:    &CrimeData{IncidentsPer1000: 2},
		Location: &LocationData{PopulationDensity: fptr(1500), SafeSpacesCount: 5, PublicTransportStops: 3},
		Time:     &TimeData{Hour: 14},
		Weather:  &WeatherData{PrecipitationProbability: 10, WindSpeed: 5},
		Battery:  &BatteryData{BatteryPercent: 80},

		TransportMode: ModeDriving,
	}
}

func dangerousWalkingInput() SafetyScoreInput {
	return SafetyScoreInput{
		Crime:    &CrimeData{IncidentsPer1000: 50},
		Location: &LocationData{PopulationDensity: fptr(50), RecentIncidents: 4, IsIsolated: true},
		Time:     &TimeData{Hour: 2},
		Weather:  &WeatherData{PrecipitationProbability: 80, WindSpeed: 30, VisibilityLoss: 0.5},
		Battery:  &BatteryData{BatteryPercent: 15},

		TransportMode: ModeWalking,
	}
}

func TestComputeSafetyScoreGoodConditions(t *testing.T) {
	e := NewEngine(nil, Config{})

	result, err := e.ComputeSafetyScore(context.Background(), goodDrivingInput())
	require.NoError(t, err)

	assert.Equal(t, 95, result.TotalScore)
	assert.Equal(t, "Excellent", SafetyLevel(result.TotalScore))
	assert.Zero(t, result.Breakdown.TimeRisk)
	assert.Zero(t, result.Breakdown.BatteryRisk)
	assert.Zero(t, result.Breakdown.LocationRisk)
	assert.Equal(t, ProfileFor(ModeDriving).Weights, result.Weights)
}

func TestComputeSafetyScoreDangerousConditions(t *testing.T) {
	e := NewEngine(nil, Config{})

	result, err := e.ComputeSafetyScore(context.Background(), dangerousWalkingInput())
	require.NoError(t, err)

	assert.Equal(t, 11, result.TotalScore)
	assert.InDelta(t, 0.8914, result.Risk, 1e-6)
	assert.Equal(t, "Dangerous", SafetyLevel(result.TotalScore))

	// Walking multipliers push crime, location and time into saturation.
	assert.Equal(t, 1.0, result.Breakdown.CrimeRisk)
	assert.Equal(t, 1.0, result.Breakdown.LocationRisk)
	assert.Equal(t, 1.0, result.Breakdown.TimeRisk)
}

func TestComputeSafetyScoreSevereWeather(t *testing.T) {
	e := NewEngine(nil, Config{})

	in := goodDrivingInput()
	in.Weather = &WeatherData{SevereAlert: true}
	in.TransportMode = ModeBicycling

	result, err := e.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Breakdown.WeatherRisk)
	recs := Recommendations(result)
	assert.Contains(t, recs, "SEVERE WEATHER ALERT - delay trip until conditions improve")
}

func TestComputeSafetyScoreModeChangesScore(t *testing.T) {
	e := NewEngine(nil, Config{})

	in := dangerousWalkingInput()
	walking, err := e.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)

	in.TransportMode = ModeDriving
	driving, err := e.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)

	// A car insulates from crime and isolation, so the same conditions
	// score meaningfully safer.
	assert.Greater(t, driving.TotalScore, walking.TotalScore)
}

func TestComputeSafetyScoreScoreRiskIdentity(t *testing.T) {
	e := NewEngine(nil, Config{})

	inputs := []SafetyScoreInput{goodDrivingInput(), dangerousWalkingInput()}
	for _, in := range inputs {
		result, err := e.ComputeSafetyScore(context.Background(), in)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.TotalScore, 0)
		assert.LessOrEqual(t, result.TotalScore, 100)
		assert.InDelta(t, float64(result.TotalScore), 100*(1-result.Risk), 0.5)
	}
}

func TestComputeSafetyScoreUsesRoute(t *testing.T) {
	pred := &fakePredictor{score: 20} // very unsafe route
	e := NewEngine(pred, Config{})

	in := goodDrivingInput()
	noRoute, err := e.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)

	in.RouteWaypoints = []LocationData{{Latitude: 30.7, IsIsolated: true}}
	withRoute, err := e.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)

	assert.Less(t, withRoute.TotalScore, noRoute.TotalScore)
	assert.Greater(t, withRoute.Breakdown.LocationRisk, noRoute.Breakdown.LocationRisk)
}

func TestComputeSafetyScoreOracleFailure(t *testing.T) {
	pred := &fakePredictor{score: 90, failLats: map[float64]bool{30.7: true}}
	in := goodDrivingInput()
	in.RouteWaypoints = []LocationData{{Latitude: 30.7}}

	// Default policy: the failure aborts the whole computation.
	strict := NewEngine(pred, Config{})
	_, err := strict.ComputeSafetyScore(context.Background(), in)
	assert.Error(t, err)

	// Opt-in fallback: the segment degrades to rules and scoring succeeds.
	lenient := NewEngine(pred, Config{OracleFallback: true})
	result, err := lenient.ComputeSafetyScore(context.Background(), in)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.TotalScore, 0)
}

func TestComputeSafetyScoreDaytimeDriveScenario(t *testing.T) {
	// Low crime, well-serviced area, afternoon, good battery.
	e := NewEngine(nil, Config{})

	result, err := e.ComputeSafetyScore(context.Background(), SafetyScoreInput{
		Crime:    &CrimeData{IncidentsPer1000: 8},
		Location: &LocationData{PopulationDensity: fptr(800), SafeSpacesCount: 10, PublicTransportStops: 5},
		Time:     &TimeData{Hour: 14, SunriseHour: iptr(6), SunsetHour: iptr(19)},
		Weather:  &WeatherData{},
		Battery:  &BatteryData{BatteryPercent: 85},

		TransportMode: ModeDriving,
	})
	require.NoError(t, err)

	assert.Equal(t, 95, result.TotalScore)
	assert.GreaterOrEqual(t, result.TotalScore, 70)
}

func TestComputeSafetyScoreIsolatedNightWalkScenario(t *testing.T) {
	// High crime, isolated low-density area, deep night, bad weather, low
	// battery. Every factor the walking profile amplifies is elevated.
	e := NewEngine(nil, Config{})

	result, err := e.ComputeSafetyScore(context.Background(), SafetyScoreInput{
		Crime:    &CrimeData{IncidentsPer1000: 35},
		Location: &LocationData{PopulationDensity: fptr(50), RecentIncidents: 5, IsIsolated: true},
		Time:     &TimeData{Hour: 2, SunriseHour: iptr(6), SunsetHour: iptr(19)},
		Weather:  &WeatherData{PrecipitationProbability: 60, WindSpeed: 20, VisibilityLoss: 0.4},
		Battery:  &BatteryData{BatteryPercent: 15},

		TransportMode: ModeWalking,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, result.TotalScore)
	assert.InDelta(t, 0.8846, result.Risk, 1e-4)
	assert.Less(t, result.TotalScore, 50)

	recs := Recommendations(result)
	joined := ""
	for _, r := range recs {
		joined += r + "\n"
	}
	assert.Contains(t, joined, "crime")
	assert.Contains(t, joined, "isolated")
}

func TestComputeSafetyScoreValidation(t *testing.T) {
	e := NewEngine(nil, Config{})

	tests := []struct {
		name    string
		mutate  func(*SafetyScoreInput)
		missing string
	}{
		{"missing crime", func(in *SafetyScoreInput) { in.Crime = nil }, "crime"},
		{"missing location", func(in *SafetyScoreInput) { in.Location = nil }, "location"},
		{"missing time", func(in *SafetyScoreInput) { in.Time = nil }, "time"},
		{"missing weather", func(in *SafetyScoreInput) { in.Weather = nil }, "weather"},
		{"missing battery", func(in *SafetyScoreInput) { in.Battery = nil }, "battery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := goodDrivingInput()
			tt.mutate(&in)

			_, err := e.ComputeSafetyScore(context.Background(), in)
			require.Error(t, err)

			appErr := apperrors.ToAppError(err)
			assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
		})
	}
}
