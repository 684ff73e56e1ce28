package frecency

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestSkipsItemsNeverExecuted(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	index := map[string]model.IndexedItem{
		"apps:firefox": {ResultItem: model.ResultItem{ID: "firefox", Provenance: model.Provenance{PluginID: "apps"}}},
	}

	out := s.Suggest(index, time.Now().UnixMilli(), DefaultKnobs())
	assert.Empty(t, out)
}

func TestSuggestTagsIsSuggestionAndReason(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: "firefox"}, now)

	index := map[string]model.IndexedItem{
		"apps:firefox": {ResultItem: model.ResultItem{ID: "firefox", Name: "Firefox", Provenance: model.Provenance{PluginID: "apps"}}},
	}

	out := s.Suggest(index, now, DefaultKnobs())
	require.Len(t, out, 1)
	assert.True(t, out[0].Provenance.IsSuggestion)
	assert.NotEmpty(t, out[0].Provenance.SuggestionReason)
}

func TestSuggestRespectsSuggestionCount(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	index := map[string]model.IndexedItem{}
	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: id}, now)
		index["apps:"+id] = model.IndexedItem{ResultItem: model.ResultItem{ID: id, Provenance: model.Provenance{PluginID: "apps"}}}
	}

	knobs := DefaultKnobs()
	knobs.SuggestionCount = 2
	out := s.Suggest(index, now, knobs)
	assert.Len(t, out, 2)
}

func TestSuggestZeroCountReturnsNil(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)
	knobs := DefaultKnobs()
	knobs.SuggestionCount = 0
	assert.Nil(t, s.Suggest(nil, 0, knobs))
}
