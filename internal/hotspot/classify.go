// Package hotspot aggregates clustered crash records into ranked hotspot
// summaries for downstream presentation.
package hotspot

// Danger tier labels.
const (
	TierDanger    = "Danger"
	TierMild      = "Mild"
	TierLowDanger = "Low Danger"
)

// Display colors per tier.
const (
	ColorRed    = "red"
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// Fatality thresholds for tier boundaries (inclusive lower bounds).
const (
	dangerThreshold = 100
	mildThreshold   = 50
)

// Classify returns the danger tier and display color for a cluster's
// summed fatalities.
// Rules:
//   - Danger (red): fatalities >= 100
//   - Mild (yellow): 50 <= fatalities < 100
//   - Low Danger (green): fatalities < 50
func Classify(fatalitySum int) (tier, color string) {
	switch {
	case fatalitySum >= dangerThreshold:
		return TierDanger, ColorRed
	case fatalitySum >= mildThreshold:
		return TierMild, ColorYellow
	default:
		return TierLowDanger, ColorGreen
	}
}
