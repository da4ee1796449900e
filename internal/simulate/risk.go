package simulate

import "mastergate/internal/config"

// Risk classifies predicted lossy-delivery distortion for one codec profile.
// The ordering is total: High outranks Moderate outranks Low, so aggregate
// risk across profiles is a simple worst-of fold.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
)

func (r Risk) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of two classifications.
func (r Risk) Worse(other Risk) Risk {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// classifyRisk maps post-encode overs and headroom inflation onto the
// configured risk bands.
func classifyRisk(overs int, headroomDeltaDB float64, bands config.Simulation) Risk {
	if overs > bands.OversHighThreshold || headroomDeltaDB > bands.HeadroomHighDB {
		return RiskHigh
	}
	if overs > bands.OversModerateThreshold || headroomDeltaDB > bands.HeadroomModerateDB {
		return RiskModerate
	}
	return RiskLow
}
