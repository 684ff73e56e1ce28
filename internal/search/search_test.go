package search

import (
	"path/filepath"
	"testing"

	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(pluginID, id, name string) model.IndexedItem {
	return model.IndexedItem{
		ResultItem: model.ResultItem{
			ID:         id,
			Name:       name,
			Provenance: model.Provenance{PluginID: pluginID},
		},
	}
}

func TestRankEmptyItemsReturnsNil(t *testing.T) {
	assert.Nil(t, Rank("firefox", nil, nil, 0, DefaultKnobs(), ""))
}

func TestRankExactMatchOutranksFuzzyMatch(t *testing.T) {
	items := []model.IndexedItem{
		item("apps", "firefox", "Firefox"),
		item("apps", "firefold", "Firefold Archive Tool"),
	}

	ranked := Rank("firefox", items, nil, 0, DefaultKnobs(), "")
	require.NotEmpty(t, ranked)
	assert.Equal(t, "firefox", ranked[0].Item.ID)
}

func TestRankPrefixMatchBeatsPlainFuzzyMatch(t *testing.T) {
	items := []model.IndexedItem{
		item("apps", "term", "Terminal"),
		item("apps", "xterm", "xterm-compatible emulator"),
	}

	ranked := Rank("term", items, nil, 0, DefaultKnobs(), "")
	require.Len(t, ranked, 2)
	assert.Equal(t, "term", ranked[0].Item.ID)
}

func TestRankFrecencyBoostsExecutedItem(t *testing.T) {
	s, err := frecency.Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	items := []model.IndexedItem{
		item("apps", "alpha-tool", "Alpha Tool"),
		item("apps", "alpha-tune", "Alpha Tune"),
	}

	for i := 0; i < 10; i++ {
		s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: "alpha-tune"}, 1000)
	}

	ranked := Rank("alpha", items, s, 2000, DefaultKnobs(), "")
	require.Len(t, ranked, 2)
	assert.Equal(t, "alpha-tune", ranked[0].Item.ID)
}

func TestRankTruncatesToMaxDisplayResults(t *testing.T) {
	knobs := DefaultKnobs()
	knobs.MaxDisplayResults = 1

	items := []model.IndexedItem{
		item("apps", "alpha", "Alpha"),
		item("apps", "alphabet", "Alphabet"),
	}
	ranked := Rank("alpha", items, nil, 0, knobs, "")
	assert.Len(t, ranked, 1)
}

func TestCompareScoredTieBreakChain(t *testing.T) {
	a := Scored{Item: model.IndexedItem{ResultItem: model.ResultItem{ID: "a", Provenance: model.Provenance{PluginID: "apps"}}, ExecutionCount: 5}, Score: 10}
	b := Scored{Item: model.IndexedItem{ResultItem: model.ResultItem{ID: "b", Provenance: model.Provenance{PluginID: "apps"}}, ExecutionCount: 3}, Score: 10}

	assert.Equal(t, -1, compareScored(a, b))
	assert.Equal(t, 1, compareScored(b, a))
}

func TestApplyDiversityDecaySuppressesRepeatedPlugin(t *testing.T) {
	scored := []Scored{
		{Item: model.IndexedItem{ResultItem: model.ResultItem{ID: "1", Provenance: model.Provenance{PluginID: "apps"}}}, Score: 10},
		{Item: model.IndexedItem{ResultItem: model.ResultItem{ID: "2", Provenance: model.Provenance{PluginID: "apps"}}}, Score: 10},
		{Item: model.IndexedItem{ResultItem: model.ResultItem{ID: "3", Provenance: model.Provenance{PluginID: "other"}}}, Score: 10},
	}
	applyDiversityDecay(scored, 0.5)

	assert.Equal(t, 10.0, scored[0].Score)
	assert.Equal(t, 5.0, scored[1].Score)
	assert.Equal(t, 10.0, scored[2].Score)
}

func TestApplyDiversityDecayOutOfRangeIsNoop(t *testing.T) {
	scored := []Scored{{Score: 10}, {Score: 10}}
	applyDiversityDecay(scored, 1.0)
	assert.Equal(t, 10.0, scored[1].Score)
	applyDiversityDecay(scored, 0)
	assert.Equal(t, 10.0, scored[1].Score)
}
