package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

var rlog = logging.WithComponent("plugin.Registry")

// DefaultRequestTimeout is the per-request RPC timeout to a plugin
// handler (spec.md §4.3: "configurable, default 30s for request/response").
const DefaultRequestTimeout = 30 * time.Second

// Registry owns the discovered plugin set. It is mutated only by the
// discovery task and the engine's own load/unload calls (spec.md §9), so
// all mutating methods take the write lock for their full duration.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin

	dirs            []string
	testMode, debug bool

	requestTimeout time.Duration

	ambient chan AmbientEvent
}

// AmbientEvent pairs a plugin id with an unsolicited response it pushed,
// for the engine to fold into its view without the plugin being active.
type AmbientEvent struct {
	PluginID string
	Response *pluginproto.Response
}

// NewRegistry creates an empty registry. Call DiscoverAll to populate it.
func NewRegistry(dirs []string, testMode, debug bool) *Registry {
	return &Registry{
		plugins:        make(map[string]*Plugin),
		dirs:           dirs,
		testMode:       testMode,
		debug:          debug,
		requestTimeout: DefaultRequestTimeout,
		ambient:        make(chan AmbientEvent, 64),
	}
}

// Ambient returns the channel the engine should drain for background
// daemon pushes (status, index, fab, ambient responses).
func (r *Registry) Ambient() <-chan AmbientEvent { return r.ambient }

// DiscoverAll scans the registry's configured directories and populates
// it from scratch. Used at startup; subsequent changes go through Diff.
func (r *Registry) DiscoverAll() {
	found := Discover(r.dirs)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range found {
		r.plugins[p.ID] = p
	}
}

// Get returns the plugin with the given id.
func (r *Registry) Get(id string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns a snapshot slice of all known plugins.
func (r *Registry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	return out
}

// MatchPrefix returns the plugin whose manifest prefix matches text, if
// any, and the remaining text with the prefix stripped.
func (r *Registry) MatchPrefix(text string) (*Plugin, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		pre := p.Manifest.Prefix
		if pre == "" {
			continue
		}
		if len(text) >= len(pre) && text[:len(pre)] == pre {
			return p, text[len(pre):], true
		}
	}
	return nil, text, false
}

// MatchPattern returns the first plugin whose compiled match pattern
// matches text (spec.md §4.1 step 2: routing without prefix consumption).
func (r *Registry) MatchPattern(text string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if !p.Manifest.PatternsOK {
			continue
		}
		for _, re := range p.Manifest.MatchPatterns {
			if re.MatchString(text) {
				return p, true
			}
		}
	}
	return nil, false
}

// ensureSpawned spawns a daemon plugin's subprocess if it isn't already
// running. One-shot plugins are spawned fresh per request and need no
// persistent state here.
func (r *Registry) ensureSpawned(ctx context.Context, p *Plugin) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc != nil {
		if exited, _ := p.proc.Exited(); !exited {
			return nil
		}
		// previous process died; fall through and respawn.
		p.proc = nil
	}

	if !canTransition(p.state, StateSpawning) {
		if p.state != StateFailed && p.state != StateLoaded {
			return herr.New(herr.KindPlugin, "plugin "+p.ID+" not ready to spawn from state "+string(p.state))
		}
	}
	p.state = StateSpawning

	// The daemon outlives the request that spawned it, so it is not tied
	// to the per-request ctx (which is cancelled when Execute returns).
	proc, err := spawnDaemon(context.Background(), p.Manifest.Handler.Command, p.Dir, r.testMode, r.debug)
	if err != nil {
		p.state = StateFailed
		return herr.Wrap(herr.KindPlugin, err, "failed to spawn plugin "+p.ID)
	}
	p.proc = proc
	p.state = StateReady
	p.backoff.Reset()
	go r.forwardAmbient(p)
	return nil
}

// forwardAmbient drains a daemon plugin's unsolicited pushes into the
// registry-wide ambient channel until the process exits.
func (r *Registry) forwardAmbient(p *Plugin) {
	for resp := range p.proc.ambient {
		select {
		case r.ambient <- AmbientEvent{PluginID: p.ID, Response: resp}:
		default:
			rlog.WithField("id", p.ID).Debug("dropped ambient event; registry channel full")
		}
	}
}

// Execute sends req to p's handler and returns its response, honoring
// cancellation via ctx and the hard per-request timeout. Two consecutive
// failures mark the plugin Degraded then Failed (spec.md §4.1, §4.3).
func (r *Registry) Execute(ctx context.Context, p *Plugin, req pluginproto.Request) (*pluginproto.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	if !p.IsDaemon() {
		p.transition(StateBusy)
		resp, err := runOneShot(ctx, p.Manifest.Handler.Command, p.Dir, r.testMode, r.debug, req)
		if err != nil {
			p.recordFailure()
			return nil, err
		}
		p.recordSuccess()
		return resp, nil
	}

	if err := r.ensureSpawned(ctx, p); err != nil {
		p.recordFailure()
		return nil, err
	}

	if !p.TryAcquire() {
		return nil, herr.New(herr.KindPlugin, "plugin "+p.ID+" already has a request in flight")
	}
	defer p.Release()

	p.transition(StateBusy)

	resp, err := p.proc.request(ctx, req)
	if err != nil {
		if exited, exitErr := p.proc.Exited(); exited {
			_ = exitErr
			p.transition(StateFailed)
			return nil, herr.Wrap(herr.KindPlugin, err, "plugin crashed")
		}
		if ctx.Err() != nil {
			p.recordFailure()
			return nil, herr.Wrap(herr.KindRPC, ctx.Err(), "plugin request timed out")
		}
		p.recordFailure()
		return nil, err
	}
	p.recordSuccess()
	return resp, nil
}

// Reload transitions a Failed plugin back to Loaded so the next Execute
// call respawns it fresh (spec.md §4.3: "Failed -> Loaded on manual
// reload", triggered by a reindex request).
func (r *Registry) Reload(id string) error {
	p, ok := r.Get(id)
	if !ok {
		return herr.New(herr.KindPlugin, "unknown plugin "+id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateFailed {
		return nil
	}
	p.state = StateLoaded
	p.proc = nil
	return nil
}

// Stop signals every owned daemon subprocess to terminate, used during
// server shutdown (spec.md §5).
func (r *Registry) Stop() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		p.mu.Lock()
		if p.proc != nil {
			p.proc.kill()
		}
		p.mu.Unlock()
	}
}

// Diff compares a freshly-discovered plugin set against the registry and
// reports added/removed/modified ids using structural manifest equality,
// per spec.md §4.6.
func (r *Registry) Diff(discovered []*Plugin) (added, removed, modified []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	for _, d := range discovered {
		seen[d.ID] = true
		existing, ok := r.plugins[d.ID]
		if !ok {
			added = append(added, d.ID)
			continue
		}
		if !existing.Manifest.Equal(d.Manifest) {
			modified = append(modified, d.ID)
		}
	}
	for id := range r.plugins {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	return
}

// Apply installs newly discovered plugins and removes ones no longer
// present, stopping any daemon subprocess of a removed plugin.
func (r *Registry) Apply(discovered []*Plugin, added, removed, modified []string) {
	byID := make(map[string]*Plugin, len(discovered))
	for _, d := range discovered {
		byID[d.ID] = d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range removed {
		if p, ok := r.plugins[id]; ok {
			p.mu.Lock()
			if p.proc != nil {
				p.proc.kill()
			}
			p.mu.Unlock()
		}
		delete(r.plugins, id)
	}
	for _, id := range added {
		r.plugins[id] = byID[id]
	}
	for _, id := range modified {
		if old, ok := r.plugins[id]; ok {
			old.mu.Lock()
			if old.proc != nil {
				old.proc.kill()
			}
			old.mu.Unlock()
		}
		r.plugins[id] = byID[id]
	}
}
