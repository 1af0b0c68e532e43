package match

// Default decision thresholds. Selection gates whether a best match is
// returned at all; pre-selection is deliberately lower because the user
// keeps a manual override; auto-approval is stricter because it skips
// moderation and is irreversible without a moderator.
const (
	DefaultSelectionThreshold   = 0.4
	DefaultPreSelectThreshold   = 0.2
	DefaultAutoApproveThreshold = 0.70
)

// Config carries the tunable scoring weights and decision thresholds.
// These are policy constants, not derived values; they are grouped in a
// struct so deployments can tune them without touching the algorithm.
type Config struct {
	Weights              Weights
	SelectionThreshold   float64
	PreSelectThreshold   float64
	AutoApproveThreshold float64
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		Weights:              DefaultWeights,
		SelectionThreshold:   DefaultSelectionThreshold,
		PreSelectThreshold:   DefaultPreSelectThreshold,
		AutoApproveThreshold: DefaultAutoApproveThreshold,
	}
}

// ShouldPreselect reports whether the top candidate may be highlighted in
// the UI without user input. Only applies while no item is chosen yet.
func (c Config) ShouldPreselect(alreadyChosen bool, score float64) bool {
	return !alreadyChosen && score > c.PreSelectThreshold
}

// AllowsAutoApproval reports whether a review backed by this match score
// may skip human moderation.
func (c Config) AllowsAutoApproval(score float64) bool {
	return score >= c.AutoApproveThreshold
}
