package engine

import (
	"context"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

// pluginAction forwards an in-item action invocation to its owning
// plugin as an `action` step.
func (e *Engine) pluginAction(ctx context.Context, pluginID, actionID string, confirmed bool) []model.CoreUpdate {
	p, ok := e.registry.Get(pluginID)
	if !ok {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}
	e.mu.Lock()
	sessionID := e.sessionID
	e.mu.Unlock()

	gen, reqCtx := e.nextGeneration()
	go func() {
		resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
			Step: pluginproto.StepAction, Action: actionID, Session: sessionID,
		})
		if err != nil {
			e.publish(gen, errorUpdate(pluginID, err))
			return
		}
		e.publish(gen, updateFromResponse(pluginID, resp))
	}()
	return nil
}

// formStep forwards a submitted form's data to the active plugin.
func (e *Engine) formStep(ctx context.Context, step pluginproto.Step, formData interface{}, fieldID string, sliderValue float64, switchValue bool) []model.CoreUpdate {
	e.mu.Lock()
	pluginID := e.activePluginID
	sessionID := e.sessionID
	e.mu.Unlock()

	p, ok := e.registry.Get(pluginID)
	if !ok {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}

	gen, reqCtx := e.nextGeneration()
	go func() {
		resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
			Step: step, FormData: formData, FieldID: fieldID,
			SliderValue: sliderValue, SwitchValue: switchValue, Session: sessionID,
		})
		if err != nil {
			e.publish(gen, errorUpdate(pluginID, err))
			return
		}
		e.publish(gen, updateFromResponse(pluginID, resp))
	}()
	return nil
}

// fieldStep forwards a live form-field change (slider drag, switch
// flip) to the active plugin without committing navigation state.
func (e *Engine) fieldStep(ctx context.Context, step pluginproto.Step, fieldID string, sliderValue float64, switchValue bool) []model.CoreUpdate {
	return e.formStep(ctx, step, nil, fieldID, sliderValue, switchValue)
}

// commitSlider applies a slider-mode item's new value directly — a
// local mutation, not a plugin round-trip, per spec.md §4.1: "If its
// mode is slider/switch, treat as a direct mutation."
func (e *Engine) commitSlider(itemID string, value float64) []model.CoreUpdate {
	e.mu.Lock()
	var found *model.ResultItem
	for i := range e.lastResults {
		if e.lastResults[i].ID == itemID {
			if e.lastResults[i].Slider == nil {
				e.lastResults[i].Slider = &model.SliderState{}
			}
			e.lastResults[i].Slider.Value = value
			found = &e.lastResults[i]
			break
		}
	}
	e.mu.Unlock()
	if found == nil {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}
	e.creditFrecency(*found, "slider")
	return []model.CoreUpdate{{
		Kind:        model.UpdatePatch,
		ItemPatches: []model.ItemPatch{{Key: found.Key(), Field: "slider.value", Value: value}},
	}}
}

// toggleSwitch applies a switch-mode item's new value directly.
func (e *Engine) toggleSwitch(itemID string, value bool) []model.CoreUpdate {
	e.mu.Lock()
	var found *model.ResultItem
	for i := range e.lastResults {
		if e.lastResults[i].ID == itemID {
			e.lastResults[i].Switch = &model.SwitchState{Value: value}
			found = &e.lastResults[i]
			break
		}
	}
	e.mu.Unlock()
	if found == nil {
		return []model.CoreUpdate{{Kind: model.UpdateNoop}}
	}
	e.creditFrecency(*found, "switch")
	return []model.CoreUpdate{{
		Kind:        model.UpdatePatch,
		ItemPatches: []model.ItemPatch{{Key: found.Key(), Field: "switch.value", Value: value}},
	}}
}

// reindex reloads a failed plugin (or, with no pluginID, every plugin
// currently Failed) and triggers a fresh full index request.
func (e *Engine) reindex(ctx context.Context, pluginID string) []model.CoreUpdate {
	targets := []string{pluginID}
	if pluginID == "" {
		targets = nil
		for _, p := range e.registry.List() {
			targets = append(targets, p.ID)
		}
	}

	// One generation covers every target: opening a new generation per
	// target would cancel the previous target's in-flight index request.
	var gen uint64
	var reqCtx context.Context
	for _, id := range targets {
		_ = e.registry.Reload(id)
		p, ok := e.registry.Get(id)
		if !ok || !p.Manifest.Index.Enabled {
			continue
		}
		if reqCtx == nil {
			gen, reqCtx = e.nextGeneration()
		}
		go func(id string, p *plugin.Plugin) {
			resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
				Step: pluginproto.StepIndex, Mode: pluginproto.IndexFull,
			})
			if err != nil {
				e.publish(gen, errorUpdate(id, err))
				return
			}
			items := make([]model.IndexedItem, 0, len(resp.IndexItems))
			for _, raw := range resp.IndexItems {
				items = append(items, plugin.IndexedItemFromWire(id, raw))
			}
			e.index.ReplacePlugin(id, items)
			e.publish(gen, model.CoreUpdate{Kind: model.UpdateNoop})
		}(id, p)
	}
	return nil
}
