package conquest

// Economy constants.
const (
	ClaimCost             = 200
	TroopCost             = 50
	StartingMoney         = 500
	PeacePayoutPerCountry = 100
	GatherCapMin          = 1
	GatherCapMax          = 20
)

// GatherCapPolicy controls the per-turn cap on GATHER purchases.
// When enabled, a cap in [Min,Max] is rolled once per turn number and a
// buy above it fails as a rule violation.
type GatherCapPolicy struct {
	Enabled bool
	Min     int
	Max     int
}

// Rules carries the variant switches the two historical game modes
// disagree on. The zero value is NOT usable; call DefaultRules.
type Rules struct {
	// GatherCap limits GATHER purchases per turn. The online mode rolls
	// a fresh d20 cap; the offline mode has no cap.
	GatherCap GatherCapPolicy
	// VulnerableSweep, when enabled, lets EXPAND capture a territory
	// without dice while its owner is flagged vulnerable.
	VulnerableSweep bool
}

// DefaultRules matches the online mode: capped GATHER, no sweep.
func DefaultRules() Rules {
	return Rules{
		GatherCap: GatherCapPolicy{Enabled: true, Min: GatherCapMin, Max: GatherCapMax},
	}
}

// LocalRules matches the offline mode: uncapped GATHER, vulnerable sweep.
func LocalRules() Rules {
	return Rules{VulnerableSweep: true}
}
