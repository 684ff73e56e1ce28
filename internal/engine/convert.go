package engine

import (
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

// updateFromResponse converts a plugin's wire response into the outbound
// CoreUpdate shape, applying the conversion rules of spec.md §4.3 via
// plugin.ItemFromWire for every embedded item.
func updateFromResponse(pluginID string, resp *pluginproto.Response) model.CoreUpdate {
	u := model.CoreUpdate{
		InputMode:     resp.InputMode,
		Placeholder:   resp.Placeholder,
		ClearInput:    resp.ClearInput,
		Context:       resp.Context,
		PluginActions: convertActions(resp.PluginActions),
	}

	switch resp.Type {
	case pluginproto.TypeResults:
		u.Kind = model.UpdateResults
		u.Items = convertItems(pluginID, resp.Items)
		u.Navigation = navigationFrom(resp)
	case pluginproto.TypeUpdate:
		u.Kind = model.UpdatePatch
		for _, p := range resp.ItemPatches {
			u.ItemPatches = append(u.ItemPatches, model.ItemPatch{Key: p.Key, Field: p.Field, Value: p.Value})
		}
	case pluginproto.TypeCard, pluginproto.TypeImageBrowser, pluginproto.TypeGridBrowser:
		u.Kind = model.UpdateCard
		u.CardPayload = resp.CardPayload
	case pluginproto.TypeForm:
		u.Kind = model.UpdateForm
		u.FormSpec = resp.FormSpec
	case pluginproto.TypeExecute:
		u.Kind = model.UpdateExecute
		u.Command = resp.Command
		u.EntryPoint = resp.EntryPoint
		u.Notify = resp.Notify
		u.Sound = resp.Sound
	case pluginproto.TypePrompt:
		u.Kind = model.UpdatePrompt
		u.PromptText = resp.PromptText
	case pluginproto.TypeError:
		u.Kind = model.UpdateError
		u.ErrorKind = resp.ErrorKind
		u.ErrorMessage = resp.ErrorMessage
	case pluginproto.TypeStatus:
		u.Kind = model.UpdateStatus
		u.StatusPluginID = pluginID
		if resp.Status != nil {
			u.Chips = convertBadges(resp.Status.Chips)
			u.StatusDesc = resp.Status.Description
			u.FAB = resp.Status.FAB
			u.Ambient = resp.Status.Ambient
		}
	case pluginproto.TypeIndex:
		u.Kind = model.UpdateNoop
	default:
		u.Kind = model.UpdateNoop
	}

	if resp.FAB != nil {
		u.FAB = resp.FAB
	}
	if resp.Ambient {
		u.Ambient = true
	}
	return u
}

func navigationFrom(resp *pluginproto.Response) *model.Navigation {
	nav := &model.Navigation{Direction: "forward"}
	if resp.NavigationDepth != nil {
		nav.Depth = *resp.NavigationDepth
	}
	if resp.NavigateForward != nil && !*resp.NavigateForward {
		nav.Direction = "replace"
	}
	if resp.NavigateBack {
		nav.Direction = "back"
	}
	return nav
}

func convertItems(pluginID string, raw []pluginproto.RawItem) []model.ResultItem {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.ResultItem, 0, len(raw))
	for _, r := range raw {
		out = append(out, plugin.ItemFromWire(pluginID, r))
	}
	return out
}

func convertActions(raw []pluginproto.RawAction) []model.Action {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.Action, 0, len(raw))
	for _, a := range raw {
		verb := a.Verb
		act := model.Action{ID: a.ID, Verb: verb}
		out = append(out, act)
	}
	return out
}

func convertBadges(raw []pluginproto.RawBadge) []model.Badge {
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.Badge, 0, len(raw))
	for _, b := range raw {
		out = append(out, model.Badge{Text: b.Text})
	}
	return out
}
