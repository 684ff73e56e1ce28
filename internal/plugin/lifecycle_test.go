package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionAllowsSpecTable(t *testing.T) {
	assert.True(t, canTransition(StateLoaded, StateSpawning))
	assert.True(t, canTransition(StateSpawning, StateReady))
	assert.True(t, canTransition(StateSpawning, StateFailed))
	assert.True(t, canTransition(StateReady, StateBusy))
	assert.True(t, canTransition(StateReady, StateStopping))
	assert.True(t, canTransition(StateBusy, StateReady))
	assert.True(t, canTransition(StateBusy, StateDegraded))
	assert.True(t, canTransition(StateBusy, StateFailed))
	assert.True(t, canTransition(StateDegraded, StateReady))
	assert.True(t, canTransition(StateDegraded, StateFailed))
	assert.True(t, canTransition(StateDegraded, StateBusy))
	assert.True(t, canTransition(StateFailed, StateLoaded))
	assert.True(t, canTransition(StateStopping, StateStopped))
}

func TestCanTransitionRejectsSkippedStates(t *testing.T) {
	assert.False(t, canTransition(StateStopped, StateLoaded))
	assert.False(t, canTransition(StateReady, StateStopped))
	assert.False(t, canTransition(StateLoaded, StateBusy))
}

func TestCanTransitionAllowsOneShotDirectFromLoaded(t *testing.T) {
	assert.True(t, canTransition(StateLoaded, StateReady))
	assert.True(t, canTransition(StateLoaded, StateDegraded))
	assert.True(t, canTransition(StateLoaded, StateFailed))
}
