package plugin

import (
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

var cvlog = logging.WithComponent("plugin.Convert")

// ItemFromWire converts a pluginproto.RawItem into the internal model,
// decoding enum-valued fields into typed variants and falling back to
// named default constants for missing optional fields, per spec.md §4.3
// "Conversion rules from protocol to internal model".
func ItemFromWire(pluginID string, raw pluginproto.RawItem) model.ResultItem {
	item := model.ResultItem{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		Verb:        raw.Verb,
		Mode:        modeFromWire(raw.Mode),
		Icon:        iconFromWire(raw.Icon),
		Metadata:    raw.Metadata,
		Provenance:  model.Provenance{PluginID: pluginID},
	}
	if item.Verb == "" {
		item.Verb = util.DefaultVerbSelect
	}

	for _, a := range raw.Actions {
		item.Actions = append(item.Actions, actionFromWire(a))
		if len(item.Actions) == 4 {
			break
		}
	}
	for _, b := range raw.Badges {
		item.Badges = append(item.Badges, badgeFromWire(b))
	}
	for _, w := range raw.Widgets {
		item.Widgets = append(item.Widgets, model.Widget{Kind: w.Kind, Payload: w.Payload})
	}
	if raw.Execute != nil {
		item.Execute = &model.Execute{Command: raw.Execute.Command, EntryPoint: raw.Execute.EntryPoint}
	}
	return item
}

// IndexedItemFromWire converts a static-index or index-response entry.
func IndexedItemFromWire(pluginID string, raw pluginproto.RawItem) model.IndexedItem {
	return model.IndexedItem{
		ResultItem: ItemFromWire(pluginID, raw),
		Keywords:   raw.Keywords,
		EntryPoint: raw.EntryPoint,
	}
}

func modeFromWire(m string) model.ItemMode {
	switch model.ItemMode(m) {
	case model.ModeStandard, model.ModeSlider, model.ModeSwitch, model.ModeCard, model.ModeInfo:
		return model.ItemMode(m)
	case "":
		return model.ModeStandard
	default:
		cvlog.WithField("mode", m).Debug("unrecognised item mode; defaulting to standard")
		return model.ModeStandard
	}
}

func iconFromWire(raw *pluginproto.RawIcon) model.Icon {
	if raw == nil {
		return model.Icon{Kind: model.IconNone}
	}
	switch model.IconKind(raw.Kind) {
	case model.IconMaterialSymbol, model.IconSystemName, model.IconText, model.IconNone:
		return model.Icon{Kind: model.IconKind(raw.Kind), Identifier: raw.Identifier}
	default:
		cvlog.WithField("kind", raw.Kind).Debug("unrecognised icon kind; defaulting to none")
		return model.Icon{Kind: model.IconNone}
	}
}

func actionFromWire(raw pluginproto.RawAction) model.Action {
	verb := raw.Verb
	if verb == "" {
		verb = util.DefaultVerbPick
	}
	a := model.Action{ID: raw.ID, Verb: verb}
	if raw.Icon != nil {
		icon := iconFromWire(raw.Icon)
		a.Icon = &icon
	}
	return a
}

func badgeFromWire(raw pluginproto.RawBadge) model.Badge {
	b := model.Badge{Text: raw.Text}
	if raw.Icon != nil {
		icon := iconFromWire(raw.Icon)
		b.Icon = &icon
	}
	return b
}
