package scoring

import (
	"fmt"
	"math"
)

// Weights is the per-factor weight (or multiplier) vector of a transport
// mode profile.
type Weights struct {
	Crime    float64 `json:"crime"`
	Location float64 `json:"location"`
	Time     float64 `json:"time"`
	Weather  float64 `json:"weather"`
	Battery  float64 `json:"battery"`
}

// ModeProfile bundles the weights applied after clamping with the
// multipliers applied to raw factor risks before clamping. Both are domain
// policy constants, not computed.
type ModeProfile struct {
	Weights     Weights `json:"weights"`
	Multipliers Weights `json:"multipliers"`
}

// baseProfile is the unknown-mode fallback: unweighted base weights and
// neutral multipliers.
var baseProfile = ModeProfile{
	Weights:     Weights{Crime: 0.35, Location: 0.25, Time: 0.15, Weather: 0.15, Battery: 0.10},
	Multipliers: Weights{Crime: 1.0, Location: 1.0, Time: 1.0, Weather: 1.0, Battery: 1.0},
}

var modeProfiles = map[TransportMode]ModeProfile{
	// Walking: highest vulnerability to crime, time and location.
	ModeWalking: {
		Weights:     Weights{Crime: 0.40, Location: 0.28, Time: 0.18, Weather: 0.10, Battery: 0.04},
		Multipliers: Weights{Crime: 1.2, Location: 1.15, Time: 1.25, Weather: 0.8, Battery: 0.7},
	},
	// Bicycling: still exposed, weather matters far more.
	ModeBicycling: {
		Weights:     Weights{Crime: 0.32, Location: 0.23, Time: 0.15, Weather: 0.22, Battery: 0.08},
		Multipliers: Weights{Crime: 1.1, Location: 1.05, Time: 1.15, Weather: 1.4, Battery: 0.9},
	},
	// Transit: monitored and on fixed routes, but phone-dependent.
	ModeTransit: {
		Weights:     Weights{Crime: 0.25, Location: 0.15, Time: 0.20, Weather: 0.12, Battery: 0.28},
		Multipliers: Weights{Crime: 0.7, Location: 0.6, Time: 1.1, Weather: 0.6, Battery: 1.5},
	},
	// Driving: protected from crime, navigation makes battery critical.
	ModeDriving: {
		Weights:     Weights{Crime: 0.20, Location: 0.18, Time: 0.10, Weather: 0.18, Battery: 0.34},
		Multipliers: Weights{Crime: 0.5, Location: 0.7, Time: 0.7, Weather: 1.2, Battery: 2.0},
	},
}

// ProfileFor returns the profile for a mode, falling back to the base
// profile for unknown or empty modes.
func ProfileFor(mode TransportMode) ModeProfile {
	if p, ok := modeProfiles[mode]; ok {
		return p
	}
	return baseProfile
}

func (w Weights) sum() float64 {
	return w.Crime + w.Location + w.Time + w.Weather + w.Battery
}

// Weight tables are checked once at definition time, not per call.
func init() {
	check := func(name string, w Weights) {
		if math.Abs(w.sum()-1.0) > 1e-9 {
			panic(fmt.Sprintf("scoring: %s profile weights sum to %v, want 1.0", name, w.sum()))
		}
	}
	check("base", baseProfile.Weights)
	for mode, p := range modeProfiles {
		check(string(mode), p.Weights)
	}
}
