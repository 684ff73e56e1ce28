package plugin

import (
	"sync"
	"time"

	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/plugin/backoff"
	"github.com/tevino/abool"
)

var plog = logging.WithComponent("plugin.Plugin")

// Plugin is a discovered unit, its manifest, its verification status, and
// its runtime state (spec.md §3, §4.3).
type Plugin struct {
	ID       string
	Dir      string
	Manifest *Manifest

	ChecksumStatus ChecksumStatus
	ChecksumIssues []string

	mu               sync.RWMutex
	state            State
	consecutiveFails int

	backoff *backoff.Backoff
	proc    *process // non-nil once a daemon subprocess has been spawned

	inFlight  abool.AtomicBool // at most one in-flight request per plugin
	shutdown  abool.AtomicBool
}

func newPlugin(id, dir string, manifest *Manifest, status ChecksumStatus, issues []string) *Plugin {
	return &Plugin{
		ID:             id,
		Dir:            dir,
		Manifest:       manifest,
		ChecksumStatus: status,
		ChecksumIssues: issues,
		state:          StateLoaded,
		backoff:        backoff.NewDefault(),
	}
}

// State returns the plugin's current lifecycle state.
func (p *Plugin) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// transition moves the plugin to 'to' if the edge is legal, logging and
// discarding illegal transition attempts rather than panicking, since a
// stray late response racing a cancellation is an expected occurrence in
// this concurrency model.
func (p *Plugin) transition(to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !canTransition(p.state, to) {
		plog.WithField("id", p.ID).WithField("from", p.state).WithField("to", to).
			Debug("ignoring illegal plugin state transition")
		return false
	}
	p.state = to
	switch to {
	case StateReady:
		p.consecutiveFails = 0
		p.backoff.Reset()
	case StateFailed, StateDegraded:
		// consecutiveFails is bumped by recordFailure before this call.
	}
	return true
}

// recordFailure increments the consecutive-failure counter and returns
// whether the plugin should be marked Degraded (on the first failure) or
// Failed (on the second, per spec.md §4.1: "two successive timeouts for
// the same plugin mark it degraded").
func (p *Plugin) recordFailure() State {
	p.mu.Lock()
	p.consecutiveFails++
	n := p.consecutiveFails
	p.mu.Unlock()

	if n >= 2 {
		p.transition(StateFailed)
		return StateFailed
	}
	p.transition(StateDegraded)
	return StateDegraded
}

// recordSuccess resets the failure counter and moves the plugin to Ready.
func (p *Plugin) recordSuccess() {
	p.transition(StateReady)
}

// IsDaemon reports whether this plugin's handler is a long-running daemon
// rather than a one-shot-per-request process.
func (p *Plugin) IsDaemon() bool {
	return p.Manifest.Daemon.Enabled
}

// TryAcquire claims the single in-flight slot for this plugin; callers
// must release it (directly or via the response/cancellation path) once
// the request resolves. Per spec.md §5: "requests to that plugin's
// subprocess are serialised (at most one in flight)".
func (p *Plugin) TryAcquire() bool {
	return p.inFlight.SetToIf(false, true)
}

// Release frees the in-flight slot.
func (p *Plugin) Release() {
	p.inFlight.UnSet()
}

// NextBackoff returns the delay to wait before the next respawn attempt.
func (p *Plugin) NextBackoff() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backoff.Duration()
}
