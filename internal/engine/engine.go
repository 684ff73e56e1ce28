// Package engine implements the core state machine: it holds the
// current view, dispatches inbound events, and orchestrates the search,
// frecency, and plugin subsystems to produce outbound updates
// (spec.md §4.1).
package engine

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hamr-launcher/hamr/internal/config"
	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

var elog = logging.WithComponent("engine")

// ViewMode is the engine's current top-level view (spec.md §4.1).
type ViewMode string

const (
	ViewHome   ViewMode = "home"
	ViewPrefix ViewMode = "inPrefixSearch"
	ViewPlugin ViewMode = "inPlugin"
)

// navFrame is one level of the navigation stack: enough to replay the
// view it represents on `back` (spec.md §4.1 "navigation stack (list of
// entry contexts)").
type navFrame struct {
	viewMode       ViewMode
	activePluginID string
	query          string
	lastResults    []model.ResultItem
	context        interface{}
}

// Engine is the single per-connection (or, in the daemon's simplest
// deployment, per-server) view owner. Every exported method is
// non-blocking from the caller's perspective: synchronous work completes
// before it returns, and any plugin round-trip continues in the
// background, surfacing later through Poll (spec.md §4.1).
type Engine struct {
	registry *plugin.Registry
	store    *frecency.Store
	index    *Index
	cfg      *atomic.Pointer[config.Config]

	sessions util.SessionCounter

	mu             sync.Mutex
	query          string
	viewMode       ViewMode
	activePluginID string
	navStack       []navFrame
	lastResults    []model.ResultItem
	lastFingerprint string
	inputMode      string
	sessionID      uint64

	generation uint64 // bumped on every event that supersedes in-flight plugin work
	cancelFn   context.CancelFunc

	updates chan model.CoreUpdate
}

// New constructs an Engine with an empty home view.
func New(registry *plugin.Registry, store *frecency.Store, cfg *atomic.Pointer[config.Config]) *Engine {
	return &Engine{
		registry: registry,
		store:    store,
		index:    newIndex(),
		cfg:      cfg,
		viewMode: ViewHome,
		inputMode: "realtime",
		updates:  make(chan model.CoreUpdate, 256),
	}
}

// Index exposes the engine's shared search index for the plugin
// discovery/reindex paths to populate.
func (e *Engine) Index() *Index { return e.index }

func (e *Engine) cfgSnapshot() config.Config {
	if c := e.cfg.Load(); c != nil {
		return *c
	}
	return config.Default()
}

// Process dispatches a single inbound event and returns whatever updates
// are available synchronously. Plugin round-trips and other async work
// are delivered later through Poll.
func (e *Engine) Process(ctx context.Context, event model.CoreEvent) []model.CoreUpdate {
	switch event.Kind {
	case model.EventQueryChanged:
		return e.queryChanged(ctx, event.Text)
	case model.EventItemSelected:
		return e.itemSelected(ctx, event.Key, event.ActionID)
	case model.EventPluginActionInvoked:
		return e.pluginAction(ctx, event.PluginID, event.ActionID, event.Confirmed)
	case model.EventFormSubmitted:
		return e.formStep(ctx, pluginproto.StepForm, event.FormData, "", 0, false)
	case model.EventFormSliderChanged:
		return e.fieldStep(ctx, pluginproto.StepFormSlider, event.FieldID, event.SliderValue, false)
	case model.EventFormSwitchChanged:
		return e.fieldStep(ctx, pluginproto.StepFormSwitch, event.FieldID, 0, event.SwitchValue)
	case model.EventSliderCommitted:
		return e.commitSlider(event.ItemID, event.SliderValue)
	case model.EventSwitchToggled:
		return e.toggleSwitch(event.ItemID, event.SwitchValue)
	case model.EventBack:
		return e.back()
	case model.EventHome:
		return e.home()
	case model.EventReindexRequested:
		return e.reindex(ctx, event.PluginID)
	default:
		return nil
	}
}

// Poll drains whatever asynchronous updates have been buffered since the
// last call, non-blockingly.
func (e *Engine) Poll() []model.CoreUpdate {
	var out []model.CoreUpdate
	for {
		select {
		case u := <-e.updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

// AmbientUpdates drains the registry's ambient channel and converts every
// pending plugin push into a CoreUpdate, for the RPC layer to forward
// without the originating plugin needing to be active.
func (e *Engine) AmbientUpdates() []model.CoreUpdate {
	var out []model.CoreUpdate
	for {
		select {
		case ev := <-e.registry.Ambient():
			out = append(out, updateFromResponse(ev.PluginID, ev.Response))
		default:
			return out
		}
	}
}

// nextGeneration bumps the supersession counter and cancels any
// in-flight plugin request from a previous event, implementing spec.md
// §5's cancellation-token discipline: a stale response racing a query
// change or plugin switch is dropped rather than rendered.
func (e *Engine) nextGeneration() (uint64, context.Context) {
	e.mu.Lock()
	if e.cancelFn != nil {
		e.cancelFn()
	}
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelFn = cancel
	e.mu.Unlock()
	return gen, ctx
}

// publish delivers u if this call's generation is still current; a
// generation bumped by a newer event means u is a stale response and is
// silently dropped, matching spec.md §5's cancellation contract. Bounded
// channel: favors freshness over completeness when the buffer is full.
func (e *Engine) publish(gen uint64, u model.CoreUpdate) {
	e.mu.Lock()
	current := e.generation
	e.mu.Unlock()
	if gen != current {
		elog.Debug("dropping stale update from superseded generation")
		return
	}
	select {
	case e.updates <- u:
	default:
		select {
		case <-e.updates:
		default:
		}
		select {
		case e.updates <- u:
		default:
		}
	}
}

// fingerprint derives the preceding-query fingerprint credited by
// frecency's sequence-confidence learning: a short hash of the
// normalised previous query, stable across process restarts.
func fingerprint(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	sum := sha1.Sum([]byte(q))
	return hex.EncodeToString(sum[:8])
}

// pushFrame saves the current view onto the navigation stack before
// entering a new one (spec.md §4.1 "push the current view onto the
// navigation stack").
func (e *Engine) pushFrame() {
	e.navStack = append(e.navStack, navFrame{
		viewMode:       e.viewMode,
		activePluginID: e.activePluginID,
		query:          e.query,
		lastResults:    e.lastResults,
	})
}
