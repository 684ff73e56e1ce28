package engine

import (
	"context"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

// itemSelected implements spec.md §4.1's itemSelected algorithm.
func (e *Engine) itemSelected(ctx context.Context, key, actionID string) []model.CoreUpdate {
	if util.IsReservedKey(key) {
		return e.handleReserved(key)
	}

	item, ok := e.resolveSelected(key)
	if !ok {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}

	if item.Mode == model.ModeSlider || item.Mode == model.ModeSwitch {
		// direct mutation is driven by sliderCommitted/switchToggled, not
		// an ordinary selection; nothing to do here but acknowledge.
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}

	if item.Execute != nil && len(item.Execute.Command) > 0 {
		e.creditFrecency(item, "")
		return []model.CoreUpdate{{
			Kind:    model.UpdateExecute,
			Command: item.Execute.Command,
			Close:   true,
		}}
	}

	if item.Execute != nil && item.Execute.EntryPoint != nil {
		e.creditFrecency(item, "")
		return e.replay(ctx, item.Provenance.PluginID, item.Execute.EntryPoint)
	}

	if item.IsPluginEntry {
		e.mu.Lock()
		e.pushFrame()
		e.activePluginID = item.Provenance.PluginID
		e.viewMode = ViewPlugin
		sessionID := e.sessions.Next()
		e.sessionID = sessionID
		e.mu.Unlock()

		p, ok := e.registry.Get(item.Provenance.PluginID)
		if !ok {
			return []model.CoreUpdate{{Kind: model.UpdateNoop}}
		}
		gen, reqCtx := e.nextGeneration()
		go func() {
			resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
				Step: pluginproto.StepInitial, Selected: item.ID, Session: sessionID,
			})
			if err != nil {
				e.publish(gen, errorUpdate(item.Provenance.PluginID, err))
				return
			}
			e.publish(gen, updateFromResponse(item.Provenance.PluginID, resp))
		}()
		return nil
	}

	return []model.CoreUpdate{{Kind: model.UpdateNoop}}
}

// replay forwards entryPoint to its owning plugin as a synthetic
// next-step request with the replay flag set, per spec.md §4.1.
func (e *Engine) replay(ctx context.Context, pluginID string, entryPoint interface{}) []model.CoreUpdate {
	p, ok := e.registry.Get(pluginID)
	if !ok {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}
	e.mu.Lock()
	sessionID := e.sessionID
	if sessionID == 0 {
		sessionID = e.sessions.Next()
		e.sessionID = sessionID
	}
	e.mu.Unlock()

	gen, reqCtx := e.nextGeneration()
	go func() {
		resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
			Step: pluginproto.StepInitial, Context: entryPoint, Replay: true, Session: sessionID,
		})
		if err != nil {
			e.publish(gen, errorUpdate(pluginID, err))
			return
		}
		e.publish(gen, updateFromResponse(pluginID, resp))
	}()
	return nil
}

// handleReserved dispatches the engine-level reserved selection ids,
// none of which are ever forwarded to a plugin (spec.md §4.1).
func (e *Engine) handleReserved(key string) []model.CoreUpdate {
	switch key {
	case util.KeyBack:
		return e.back()
	case util.KeyPlugin:
		return e.home()
	case util.KeyDismiss, util.KeyFormCancel:
		return e.back()
	case util.KeyEmpty, util.KeyInfo:
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	default:
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}
}

// resolveSelected looks up a selected key first in the last emitted
// result set (so selection always matches what the user actually saw),
// falling back to the global index.
func (e *Engine) resolveSelected(key string) (model.ResultItem, bool) {
	e.mu.Lock()
	for _, item := range e.lastResults {
		if item.Key() == key {
			e.mu.Unlock()
			return item, true
		}
	}
	e.mu.Unlock()

	indexed, ok := e.index.Get(key)
	if !ok {
		return model.ResultItem{}, false
	}
	return indexed.ResultItem, true
}

// creditFrecency records an execution for item, tagged with the current
// preceding-query fingerprint and time components, per spec.md §4.5.
// Crediting happens optimistically on dispatch, not on confirmed success
// (spec.md §4.1: "they do not roll back the frecency credit").
func (e *Engine) creditFrecency(item model.ResultItem, mode model.FrecencyMode) {
	now := util.NowMillis()
	components := util.ComponentsAt(now)
	e.mu.Lock()
	fp := e.lastFingerprint
	e.mu.Unlock()

	e.store.RecordExecution(model.ExecutionContext{
		PluginID:                  item.Provenance.PluginID,
		ItemID:                    item.ID,
		HourOfDay:                 components.HourOfDay,
		Weekday:                   components.Weekday,
		PrecedingQueryFingerprint: fp,
		Mode:                      mode,
	}, now)
	e.store.SaveBestEffort()
}

// back pops one navigation stack level and replays it, or returns home
// if the stack is empty (spec.md §4.1).
func (e *Engine) back() []model.CoreUpdate {
	e.mu.Lock()
	if len(e.navStack) == 0 {
		e.mu.Unlock()
		return e.home()
	}
	frame := e.navStack[len(e.navStack)-1]
	e.navStack = e.navStack[:len(e.navStack)-1]
	e.viewMode = frame.viewMode
	e.activePluginID = frame.activePluginID
	e.query = frame.query
	e.lastResults = frame.lastResults
	depth := len(e.navStack)
	items := frame.lastResults
	e.mu.Unlock()

	return []model.CoreUpdate{{
		Kind:       model.UpdateResults,
		Items:      items,
		Navigation: &model.Navigation{Depth: depth, Direction: "back"},
	}}
}

// home clears the navigation stack and active plugin in one step
// (spec.md §4.1).
func (e *Engine) home() []model.CoreUpdate {
	e.mu.Lock()
	e.navStack = nil
	e.activePluginID = ""
	e.viewMode = ViewHome
	e.query = ""
	e.sessionID = 0
	e.mu.Unlock()

	return e.localResults("", "")
}
