package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadAppliesOverridesAndKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"search": {"exactMatchBonus": 75, "maxDisplayResults": 3},
		"socketPath": "/tmp/custom.sock"
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75.0, cfg.SearchKnobs.ExactMatchBonus)
	assert.Equal(t, 3, cfg.SearchKnobs.MaxDisplayResults)
	assert.Equal(t, "/tmp/custom.sock", cfg.SocketPath)
	// an untouched knob keeps its default.
	assert.Equal(t, Default().SearchKnobs.PrefixMatchBase, cfg.SearchKnobs.PrefixMatchBase)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMergeLegacyPrefixesKeepsBuiltins(t *testing.T) {
	merged := mergeLegacyPrefixes([]string{"custom"})
	assert.Contains(t, merged, "custom")
	for _, p := range LegacyPrefixes {
		assert.Contains(t, merged, p)
	}
}

func TestMergeLegacyPrefixesDoesNotDuplicate(t *testing.T) {
	merged := mergeLegacyPrefixes([]string{"file"})
	count := 0
	for _, p := range merged {
		if p == "file" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestValidateClampsOutOfRangeDiversityDecay(t *testing.T) {
	cfg := Default()
	cfg.SearchKnobs.DiversityDecay = 1.5
	validate(&cfg)
	assert.Equal(t, Default().SearchKnobs.DiversityDecay, cfg.SearchKnobs.DiversityDecay)
}

func TestValidateClampsMaxDisplayResultsBelowOne(t *testing.T) {
	cfg := Default()
	cfg.SearchKnobs.MaxDisplayResults = 0
	validate(&cfg)
	assert.Equal(t, 1, cfg.SearchKnobs.MaxDisplayResults)
}

func TestValidateClampsHalfLifeAboveMaxAge(t *testing.T) {
	cfg := Default()
	cfg.SearchKnobs.FrecencyKnobs.StalenessMaxAge = 100
	cfg.SearchKnobs.FrecencyKnobs.StalenessHalfLife = 200
	validate(&cfg)
	assert.Equal(t, int64(100), cfg.SearchKnobs.FrecencyKnobs.StalenessHalfLife)
}

func TestDirsPathsJoinCorrectly(t *testing.T) {
	dirs := Dirs{ConfigDir: "/a/config", DataDir: "/a/data", CacheDir: "/a/cache"}
	assert.Equal(t, "/a/config/config.json", dirs.ConfigPath())
	assert.Equal(t, "/a/data/frecency.json", dirs.FrecencyPath())
	assert.Equal(t, "/a/cache/launch_timestamp", dirs.LaunchTimestampPath())
}
