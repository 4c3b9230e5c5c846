package scoring

// TransportMode selects which weight/multiplier profile applies to a trip.
type TransportMode string

const (
	ModeWalking   TransportMode = "walking"
	ModeBicycling TransportMode = "bicycling"
	ModeTransit   TransportMode = "transit"
	ModeDriving   TransportMode = "driving"
)

// CrimeData is a snapshot of the historical crime rate around the trip.
// Baseline and Scale of 0 fall back to the policy defaults (10 and 15).
type CrimeData struct {
	IncidentsPer1000 float64 `json:"incidents_per_1000"`
	Baseline         float64 `json:"baseline,omitempty"`
	Scale            float64 `json:"scale,omitempty"`
}

// LocationData describes one point; a route is an ordered sequence of these.
// PopulationDensity is a pointer because absence and zero mean different
// things (a density of 0 counts as very isolated, absence adds nothing).
type LocationData struct {
	Latitude             float64  `json:"latitude"`
	Longitude            float64  `json:"longitude"`
	PopulationDensity    *float64 `json:"population_density,omitempty"`
	RecentIncidents      int      `json:"recent_incidents,omitempty"`
	SafeSpacesCount      int      `json:"safe_spaces_count,omitempty"`
	PublicTransportStops int      `json:"public_transport_stops,omitempty"`
	IsIsolated           bool     `json:"is_isolated,omitempty"`
}

// TimeData carries the local hour plus optional daylight bounds.
// Nil sunrise/sunset default to 6 and 18; 0 is a valid hour.
type TimeData struct {
	Hour        int  `json:"hour"`
	SunriseHour *int `json:"sunrise_hour,omitempty"`
	SunsetHour  *int `json:"sunset_hour,omitempty"`
}

// WeatherData is the current weather snapshot. SevereAlert overrides
// everything else.
type WeatherData struct {
	SevereAlert              bool    `json:"severe_alert"`
	PrecipitationProbability float64 `json:"precipitation_probability,omitempty"`
	WindSpeed                float64 `json:"wind_speed,omitempty"`
	VisibilityLoss           float64 `json:"visibility_loss,omitempty"`
}

// BatteryData is the device battery snapshot. Charging overrides the level.
type BatteryData struct {
	BatteryPercent float64 `json:"battery_percent"`
	IsCharging     bool    `json:"is_charging"`
}

// SafetyScoreInput aggregates all risk inputs for one scoring request.
// The five sub-structures are required; RouteWaypoints and TransportMode
// are optional.
type SafetyScoreInput struct {
	Crime          *CrimeData     `json:"crime" binding:"required"`
	Location       *LocationData  `json:"location" binding:"required"`
	Time           *TimeData      `json:"time" binding:"required"`
	Weather        *WeatherData   `json:"weather" binding:"required"`
	Battery        *BatteryData   `json:"battery" binding:"required"`
	RouteWaypoints []LocationData `json:"route_waypoints,omitempty"`
	TransportMode  TransportMode  `json:"transport_mode,omitempty"`
}

// RiskBreakdown holds the five per-factor risks after multiplier
// application and clamping, each in [0,1].
type RiskBreakdown struct {
	CrimeRisk    float64 `json:"crime_risk"`
	LocationRisk float64 `json:"location_risk"`
	TimeRisk     float64 `json:"time_risk"`
	WeatherRisk  float64 `json:"weather_risk"`
	BatteryRisk  float64 `json:"battery_risk"`
}

// SafetyScoreResult is the engine's output: an integer 0-100 score
// (100 = safest), the aggregate risk it was derived from, the per-factor
// breakdown, and the weight profile that was applied.
type SafetyScoreResult struct {
	TotalScore int           `json:"total_score"`
	Risk       float64       `json:"risk"`
	Breakdown  RiskBreakdown `json:"breakdown"`
	Weights    Weights       `json:"weights"`
}
