package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordFailureDegradesThenFailsOneShotFromLoaded(t *testing.T) {
	p := newPlugin("echo", "/tmp/echo", &Manifest{}, ChecksumVerified, nil)
	assert.Equal(t, StateLoaded, p.State())

	p.recordFailure()
	assert.Equal(t, StateDegraded, p.State())

	p.recordFailure()
	assert.Equal(t, StateFailed, p.State())
}

func TestRecordSuccessResetsFailureTallyAndReachesReady(t *testing.T) {
	p := newPlugin("echo", "/tmp/echo", &Manifest{}, ChecksumVerified, nil)

	p.recordFailure()
	assert.Equal(t, StateDegraded, p.State())

	p.recordSuccess()
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, 0, p.consecutiveFails)

	// a fresh failure after a reset success starts the tally over, not
	// jumping straight to Failed. A new request moves Ready to Busy first.
	p.transition(StateBusy)
	p.recordFailure()
	assert.Equal(t, StateDegraded, p.State())
}
