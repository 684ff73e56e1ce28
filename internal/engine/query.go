package engine

import (
	"context"
	"strings"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/search"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
)

// queryChanged implements spec.md §4.1's three-step routing algorithm:
// prefix shortcut, then pattern routing, then the fused local result set.
func (e *Engine) queryChanged(ctx context.Context, text string) []model.CoreUpdate {
	e.mu.Lock()
	precedingFingerprint := fingerprint(e.query)
	e.lastFingerprint = precedingFingerprint
	e.query = text
	e.mu.Unlock()

	if p, rest, ok := e.registry.MatchPrefix(text); ok {
		return e.routeToPlugin(ctx, p.ID, rest, ViewPrefix)
	}
	if p, ok := e.registry.MatchPattern(text); ok {
		return e.routeToPlugin(ctx, p.ID, text, ViewPrefix)
	}

	e.mu.Lock()
	inPlugin := e.viewMode == ViewPlugin && e.activePluginID != ""
	activePlugin := e.activePluginID
	e.mu.Unlock()
	if inPlugin {
		return e.routeToPlugin(ctx, activePlugin, text, ViewPlugin)
	}

	return e.localResults(text, precedingFingerprint)
}

// routeToPlugin forwards text to plugin p as a search step, making p the
// active plugin and setting the view to mode.
func (e *Engine) routeToPlugin(ctx context.Context, pluginID, text string, mode ViewMode) []model.CoreUpdate {
	p, ok := e.registry.Get(pluginID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	if e.activePluginID != pluginID {
		e.activePluginID = pluginID
	}
	e.viewMode = mode
	sessionID := e.sessionID
	if sessionID == 0 {
		sessionID = e.sessions.Next()
		e.sessionID = sessionID
	}
	e.mu.Unlock()

	gen, reqCtx := e.nextGeneration()
	go func() {
		resp, err := e.registry.Execute(reqCtx, p, pluginproto.Request{
			Step: pluginproto.StepSearch, Query: text, Session: sessionID, Source: pluginproto.SourceNormal,
		})
		if err != nil {
			e.publish(gen, errorUpdate(pluginID, err))
			return
		}
		u := updateFromResponse(pluginID, resp)
		e.mu.Lock()
		e.lastResults = u.Items
		e.mu.Unlock()
		e.publish(gen, u)
	}()
	return nil
}

// localResults implements step 3 of spec.md §4.1's queryChanged
// algorithm: a fused result set from Search's ranked matches and
// Frecency's empty-query suggestions.
func (e *Engine) localResults(text, precedingFingerprint string) []model.CoreUpdate {
	cfg := e.cfgSnapshot()
	now := util.NowMillis()
	trimmed := strings.TrimSpace(text)

	var items []model.ResultItem
	if trimmed == "" {
		suggestions := e.store.Suggest(e.index.ByKeyMap(), now, cfg.SearchKnobs.FrecencyKnobs)
		items = suggestions
	} else {
		ranked := search.Rank(trimmed, e.index.Snapshot(), e.store, now, cfg.SearchKnobs, precedingFingerprint)
		items = make([]model.ResultItem, 0, len(ranked))
		for _, r := range ranked {
			ri := r.Item.ResultItem
			items = append(items, ri)
		}
	}

	if len(items) > cfg.SearchKnobs.MaxDisplayResults {
		items = items[:cfg.SearchKnobs.MaxDisplayResults]
	}

	e.mu.Lock()
	e.viewMode = ViewHome
	e.activePluginID = ""
	e.lastResults = items
	e.mu.Unlock()

	placeholder := ""
	if trimmed == "" {
		placeholder = util.DefaultPlaceholder
	}

	return []model.CoreUpdate{{
		Kind:        model.UpdateResults,
		Items:       items,
		Placeholder: placeholder,
		Navigation:  &model.Navigation{Depth: 0, Direction: "replace"},
	}}
}

func errorUpdate(pluginID string, err error) model.CoreUpdate {
	return model.CoreUpdate{
		Kind:         model.UpdateError,
		ErrorKind:    classifyPluginError(err),
		ErrorMessage: err.Error(),
	}
}

// classifyPluginError recovers the herr.Kind a plugin round-trip failure
// was wrapped with and maps it (plus, within KindPlugin, the message that
// registry.Execute attached) to one of the four plugin error kinds the
// front-end understands: pluginCrashed, pluginTimeout, pluginSpawn,
// malformed (spec.md §4.1, §7).
func classifyPluginError(err error) string {
	kind, ok := herr.KindOf(err)
	if !ok {
		return "malformed"
	}
	switch kind {
	case herr.KindRPC:
		return "pluginTimeout"
	case herr.KindCodec:
		return "malformed"
	case herr.KindPlugin:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "crashed"):
			return "pluginCrashed"
		case strings.Contains(msg, "spawn"):
			return "pluginSpawn"
		case strings.Contains(msg, "malformed"):
			return "malformed"
		default:
			return "pluginCrashed"
		}
	default:
		return "malformed"
	}
}
