package scoring

// SafetyLevel maps a score to its coarse label.
func SafetyLevel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Moderate"
	case score >= 30:
		return "Poor"
	default:
		return "Dangerous"
	}
}

// SafetyDescription returns the longer band description for UI display.
func SafetyDescription(score int) string {
	switch {
	case score >= 90:
		return "Excellent safety conditions - daytime, good weather, populated area, charged device"
	case score >= 70:
		return "Good safety with minor risk factors - generally safe to proceed"
	case score >= 50:
		return "Moderate safety with some significant risks - exercise caution"
	case score >= 30:
		return "Poor safety with multiple risk factors - consider alternative route or time"
	default:
		return "Dangerous conditions - severe weather, night, isolated area, or high crime. Avoid if possible"
	}
}

// Recommendations turns a score result into an ordered list of advisories.
// This is a deterministic threshold ladder, not text generation.
func Recommendations(result SafetyScoreResult) []string {
	recs := []string{}
	score := result.TotalScore
	b := result.Breakdown

	if score < 30 {
		recs = append(recs, "DANGEROUS CONDITIONS - strongly consider delaying or canceling this trip")
	}

	switch {
	case b.CrimeRisk > 0.7:
		recs = append(recs, "Very high crime area - avoid this route or travel during daylight with others")
	case b.CrimeRisk > 0.5:
		recs = append(recs, "High crime area - consider alternative route or travel in groups")
	case b.CrimeRisk > 0.3:
		recs = append(recs, "Stay alert - moderate crime risk in this area")
	}

	switch {
	case b.LocationRisk > 0.7:
		recs = append(recs, "Very isolated or risky area - choose well-populated, well-lit routes")
	case b.LocationRisk > 0.5:
		recs = append(recs, "Isolated area detected - stay in well-lit, populated spaces when possible")
	}

	switch {
	case b.TimeRisk > 0.7:
		recs = append(recs, "Very late hours - travel during daylight if possible")
	case b.TimeRisk > 0.4:
		recs = append(recs, "Late hours - be extra cautious and stay in well-lit areas")
	case b.TimeRisk > 0:
		recs = append(recs, "Evening/night travel - use well-lit routes")
	}

	switch {
	case b.WeatherRisk > 0.8:
		recs = append(recs, "SEVERE WEATHER ALERT - delay trip until conditions improve")
	case b.WeatherRisk > 0.5:
		recs = append(recs, "Poor weather conditions - take extra precautions")
	case b.WeatherRisk > 0.3:
		recs = append(recs, "Weather may affect visibility - drive carefully")
	}

	switch {
	case b.BatteryRisk > 0.7:
		recs = append(recs, "CRITICAL: very low battery - charge device immediately before traveling")
	case b.BatteryRisk > 0.4:
		recs = append(recs, "Low battery - charge device before departure")
	case b.BatteryRisk > 0.2:
		recs = append(recs, "Consider charging device for longer trips")
	}

	if score >= 90 {
		recs = append(recs, "Excellent conditions - safe to proceed")
	} else if score >= 70 && len(recs) == 0 {
		recs = append(recs, "Good conditions - generally safe with standard precautions")
	}

	if len(recs) == 0 && score >= 50 {
		recs = append(recs, "Exercise normal safety precautions")
	}

	return recs
}
