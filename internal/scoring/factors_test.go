package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestCrimeRisk(t *testing.T) {
	tests := []struct {
		name     string
		crime    CrimeData
		expected float64
	}{
		{"baseline rate is midpoint", CrimeData{IncidentsPer1000: 10}, 0.5},
		{"zero incidents stay below midpoint", CrimeData{IncidentsPer1000: 0}, 0.33924},
		{"custom baseline shifts midpoint", CrimeData{IncidentsPer1000: 30, Baseline: 30, Scale: 5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CrimeRisk(tt.crime), 0.001)
		})
	}
}

func TestCrimeRiskSaturates(t *testing.T) {
	// The logistic keeps extreme rates inside (0,1) without clamping.
	low := CrimeRisk(CrimeData{IncidentsPer1000: -1000})
	high := CrimeRisk(CrimeData{IncidentsPer1000: 1000})

	assert.Greater(t, low, 0.0)
	assert.Less(t, low, 0.01)
	assert.Less(t, high, 1.0)
	assert.Greater(t, high, 0.99)
	assert.Greater(t, CrimeRisk(CrimeData{IncidentsPer1000: 50}), CrimeRisk(CrimeData{IncidentsPer1000: 20}))
}

func TestLocationRisk(t *testing.T) {
	tests := []struct {
		name     string
		loc      LocationData
		expected float64
	}{
		{"bare point keeps the 0.3 baseline", LocationData{}, 0.3},
		{"recent incidents add capped risk", LocationData{RecentIncidents: 20}, 0.6},
		{"low density adds risk", LocationData{PopulationDensity: fptr(50)}, 0.5},
		{"high density removes risk", LocationData{PopulationDensity: fptr(2000)}, 0.2},
		{"zero density counts as very isolated", LocationData{PopulationDensity: fptr(0)}, 0.5},
		{"safe spaces subtract capped risk", LocationData{SafeSpacesCount: 10}, 0.1},
		{"transit stops subtract capped risk", LocationData{PublicTransportStops: 5}, 0.15},
		{"isolation adds flat risk", LocationData{IsIsolated: true}, 0.55},
		{"good area clamps at zero", LocationData{PopulationDensity: fptr(2000), SafeSpacesCount: 10, PublicTransportStops: 5}, 0},
		{"worst case clamps at one", LocationData{RecentIncidents: 50, PopulationDensity: fptr(10), IsIsolated: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, LocationRisk(tt.loc), 1e-9)
		})
	}
}

func TestTimeRisk(t *testing.T) {
	tests := []struct {
		name     string
		data     TimeData
		expected float64
	}{
		{"midday is zero", TimeData{Hour: 12}, 0},
		{"sunrise boundary is daytime", TimeData{Hour: 6}, 0},
		{"sunset boundary is night", TimeData{Hour: 18}, 0.36},
		{"early evening", TimeData{Hour: 20}, 0.36},
		{"late evening", TimeData{Hour: 22}, 0.6},
		{"deep night", TimeData{Hour: 2}, 1},
		{"midnight", TimeData{Hour: 0}, 1},
		{"early dawn", TimeData{Hour: 5}, 0.6},
		{"custom daylight window", TimeData{Hour: 20, SunriseHour: iptr(5), SunsetHour: iptr(21)}, 0},
		{"polar night scores every hour", TimeData{Hour: 12, SunriseHour: iptr(0), SunsetHour: iptr(0)}, 0.36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TimeRisk(tt.data), 1e-9)
		})
	}
}

func TestWeatherRisk(t *testing.T) {
	tests := []struct {
		name     string
		data     WeatherData
		expected float64
	}{
		{"clear weather", WeatherData{}, 0},
		{"severe alert dominates everything", WeatherData{SevereAlert: true}, 1},
		{"rain only", WeatherData{PrecipitationProbability: 50}, 0.1},
		{"wind only", WeatherData{WindSpeed: 25}, 0.1},
		{"mixed conditions", WeatherData{PrecipitationProbability: 80, WindSpeed: 30, VisibilityLoss: 0.5}, 0.305},
		{"extreme inputs clamp at one", WeatherData{PrecipitationProbability: 100, WindSpeed: 500, VisibilityLoss: 10}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeatherRisk(tt.data), 1e-9)
		})
	}
}

func TestBatteryRisk(t *testing.T) {
	tests := []struct {
		name     string
		data     BatteryData
		expected float64
	}{
		{"full battery", BatteryData{BatteryPercent: 100}, 0},
		{"threshold boundary", BatteryData{BatteryPercent: 20}, 0},
		{"half of threshold", BatteryData{BatteryPercent: 10}, 0.5},
		{"dead battery", BatteryData{BatteryPercent: 0}, 1},
		{"charging overrides a dead battery", BatteryData{BatteryPercent: 0, IsCharging: true}, 0},
		{"charging overrides any level", BatteryData{BatteryPercent: 5, IsCharging: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, BatteryRisk(tt.data), 1e-9)
		})
	}
}
