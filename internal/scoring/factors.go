package scoring

import "math"

// Policy defaults for crime normalization.
const (
	defaultCrimeBaseline = 10.0
	defaultCrimeScale    = 15.0
)

// Daylight defaults when the caller supplies no sunrise/sunset.
const (
	defaultSunriseHour = 6
	defaultSunsetHour  = 18
)

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// CrimeRisk normalizes the incident rate against the baseline and squashes
// it through a logistic curve so unbounded counts saturate smoothly.
func CrimeRisk(c CrimeData) float64 {
	baseline := c.Baseline
	if baseline == 0 {
		baseline = defaultCrimeBaseline
	}
	scale := c.Scale
	if scale == 0 {
		scale = defaultCrimeScale
	}
	return logistic((c.IncidentsPer1000 - baseline) / scale)
}

// LocationRisk scores a single point from its area signals. Starts at a 0.3
// baseline, adds for recent incidents, low density and isolation, subtracts
// for safe spaces and transit activity.
func LocationRisk(l LocationData) float64 {
	risk := 0.3

	risk += math.Min(0.3, float64(l.RecentIncidents)*0.05)

	if l.PopulationDensity != nil {
		density := *l.PopulationDensity
		if density < 100 {
			risk += 0.2
		} else if density > 1000 {
			risk -= 0.1
		}
	}

	risk -= math.Min(0.2, float64(l.SafeSpacesCount)*0.03)
	risk -= math.Min(0.15, float64(l.PublicTransportStops)*0.05)

	if l.IsIsolated {
		risk += 0.25
	}

	return clamp(risk, 0, 1)
}

// TimeRisk is zero during daylight. At night the risk escalates with an
// hour penalty: 1.0 deep night (0-4), 0.5 late evening (22-24) and early
// dawn (4-6), 0.2 otherwise.
func TimeRisk(t TimeData) float64 {
	sunrise := defaultSunriseHour
	if t.SunriseHour != nil {
		sunrise = *t.SunriseHour
	}
	sunset := defaultSunsetHour
	if t.SunsetHour != nil {
		sunset = *t.SunsetHour
	}

	if t.Hour >= sunrise && t.Hour < sunset {
		return 0
	}

	hourPenalty := 0.2
	switch {
	case t.Hour >= 0 && t.Hour < 4:
		hourPenalty = 1.0
	case (t.Hour >= 22 && t.Hour <= 23) || (t.Hour >= 4 && t.Hour < 6):
		hourPenalty = 0.5
	}

	return clamp(0.2+0.8*hourPenalty, 0, 1)
}

// WeatherRisk is 1.0 under a severe alert, otherwise a weighted mix of
// precipitation probability, wind and visibility loss.
func WeatherRisk(w WeatherData) float64 {
	if w.SevereAlert {
		return 1.0
	}

	p := w.PrecipitationProbability / 100
	risk := 0.2*p + 0.1*(w.WindSpeed/25) + 0.05*w.VisibilityLoss
	return clamp(risk, 0, 1)
}

// BatteryRisk is zero while charging; otherwise risk appears below 20%
// charge and scales linearly to 1 at 0%.
func BatteryRisk(b BatteryData) float64 {
	if b.IsCharging {
		return 0
	}
	return clamp((20-b.BatteryPercent)/20, 0, 1)
}
