package engine

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamr-launcher/hamr/internal/config"
	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := frecency.Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	registry := plugin.NewRegistry(nil, false, false)

	var cfgPtr atomic.Pointer[config.Config]
	cfg := config.Default()
	cfgPtr.Store(&cfg)

	return New(registry, store, &cfgPtr)
}

func TestQueryChangedEmptyShowsSuggestionsForExecutedItems(t *testing.T) {
	e := newTestEngine(t)
	e.Index().Put(model.IndexedItem{ResultItem: model.ResultItem{
		ID: "firefox", Name: "Firefox", Provenance: model.Provenance{PluginID: "apps"},
	}})

	ctx := model.ExecutionContext{PluginID: "apps", ItemID: "firefox"}
	e.store.RecordExecution(ctx, time.Now().UnixMilli())

	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventQueryChanged, Text: ""})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateResults, updates[0].Kind)
	require.Len(t, updates[0].Items, 1)
	assert.True(t, updates[0].Items[0].Provenance.IsSuggestion)
}

func TestQueryChangedFusesLocalResults(t *testing.T) {
	e := newTestEngine(t)
	e.Index().Put(model.IndexedItem{ResultItem: model.ResultItem{
		ID: "firefox", Name: "Firefox", Provenance: model.Provenance{PluginID: "apps"},
	}})

	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventQueryChanged, Text: "firefox"})
	require.Len(t, updates, 1)
	require.Len(t, updates[0].Items, 1)
	assert.Equal(t, "firefox", updates[0].Items[0].ID)
}

func TestItemSelectedReservedKeyBackGoesHome(t *testing.T) {
	e := newTestEngine(t)
	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventItemSelected, Key: "__back__"})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateResults, updates[0].Kind)
	// an empty navigation stack falls through to home, which replaces the view.
	assert.Equal(t, "replace", updates[0].Navigation.Direction)
}

func TestItemSelectedExecuteCommandCreditsFrecency(t *testing.T) {
	e := newTestEngine(t)
	e.lastResults = []model.ResultItem{{
		ID: "firefox", Provenance: model.Provenance{PluginID: "apps"},
		Execute: &model.Execute{Command: []string{"firefox"}},
	}}

	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventItemSelected, Key: "apps:firefox"})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateExecute, updates[0].Kind)
	assert.Equal(t, []string{"firefox"}, updates[0].Command)
	assert.True(t, updates[0].Close)

	entry, ok := e.store.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.ExecutionCount)
}

func TestItemSelectedUnknownKeyIsNoop(t *testing.T) {
	e := newTestEngine(t)
	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventItemSelected, Key: "apps:ghost"})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateNoop, updates[0].Kind)
}

func TestCommitSliderPatchesValueAndCreditsFrecency(t *testing.T) {
	e := newTestEngine(t)
	e.lastResults = []model.ResultItem{{
		ID: "volume", Provenance: model.Provenance{PluginID: "sys"}, Mode: model.ModeSlider,
		Slider: &model.SliderState{Value: 0.2},
	}}

	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventSliderCommitted, ItemID: "volume", SliderValue: 0.8})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdatePatch, updates[0].Kind)
	require.Len(t, updates[0].ItemPatches, 1)
	assert.Equal(t, 0.8, updates[0].ItemPatches[0].Value)

	_, ok := e.store.Get(model.PluginItemKey{PluginID: "sys", ItemID: "volume"})
	assert.True(t, ok)
}

func TestToggleSwitchUnknownItemIsNoop(t *testing.T) {
	e := newTestEngine(t)
	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventSwitchToggled, ItemID: "ghost", SwitchValue: true})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateNoop, updates[0].Kind)
}

func TestBackWithEmptyStackGoesHome(t *testing.T) {
	e := newTestEngine(t)
	updates := e.Process(context.Background(), model.CoreEvent{Kind: model.EventBack})
	require.Len(t, updates, 1)
	assert.Equal(t, model.UpdateResults, updates[0].Kind)
}

func TestHomeClearsNavigationState(t *testing.T) {
	e := newTestEngine(t)
	e.navStack = []navFrame{{viewMode: ViewPlugin, activePluginID: "apps"}}
	e.activePluginID = "apps"
	e.viewMode = ViewPlugin

	e.Process(context.Background(), model.CoreEvent{Kind: model.EventHome})

	assert.Empty(t, e.navStack)
	assert.Equal(t, "", e.activePluginID)
	assert.Equal(t, ViewHome, e.viewMode)
}

func TestFingerprintIsStableAndEmptyForBlankQuery(t *testing.T) {
	assert.Equal(t, "", fingerprint(""))
	assert.Equal(t, "", fingerprint("   "))
	assert.Equal(t, fingerprint("Firefox"), fingerprint("firefox "))
}
