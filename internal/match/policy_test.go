package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldPreselect(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.ShouldPreselect(false, 0.21))
	assert.False(t, cfg.ShouldPreselect(false, 0.2), "pre-selection is strictly above the threshold")
	assert.False(t, cfg.ShouldPreselect(false, 0.05))
	assert.False(t, cfg.ShouldPreselect(true, 0.99), "never override a user's choice")
}

func TestAllowsAutoApproval(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.AllowsAutoApproval(0.70), "auto-approval is inclusive at the threshold")
	assert.True(t, cfg.AllowsAutoApproval(0.95))
	assert.False(t, cfg.AllowsAutoApproval(0.699999))
	assert.False(t, cfg.AllowsAutoApproval(0.4))
}

func TestDefaultConfigThresholdOrdering(t *testing.T) {
	cfg := DefaultConfig()
	// pre-selection is laxer than selection, auto-approval stricter
	assert.Less(t, cfg.PreSelectThreshold, cfg.SelectionThreshold)
	assert.Greater(t, cfg.AutoApproveThreshold, cfg.SelectionThreshold)
}
