// Package config loads, validates, and hot-reloads the launcher's user
// configuration, and resolves the XDG directories the rest of the core
// persists state under (spec.md §6).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/search"
)

var clog = logging.WithComponent("config")

// LegacyPrefixes enumerates the built-in source prefixes the teacher's
// distillation carries forward unconditionally even if a user's config
// omits them, per spec.md §6 "retaining all known legacy prefix keys
// (file, clipboard, shell history, etc.)".
var LegacyPrefixes = []string{"file", "clipboard", "history"}

// Config is the validated, immutable snapshot published to every reader
// once loaded. A Config value is never mutated after Load/Reload hands it
// out — callers hold shared references (spec.md §5).
type Config struct {
	SearchKnobs    search.Knobs    `json:"search"`
	PluginDirs     []string        `json:"pluginDirs,omitempty"`
	SocketPath     string          `json:"socketPath,omitempty"`
	RequestTimeoutMillis int64     `json:"requestTimeoutMillis,omitempty"`
	KnownPrefixes  []string        `json:"knownPrefixes,omitempty"`
}

// rawConfig mirrors Config's on-disk JSON shape before defaulting and
// validation, letting Load distinguish "key absent" from "key present
// with zero value" for the clamp warnings spec.md §6 requires.
type rawConfig struct {
	Search struct {
		ExactMatchBonus   *float64 `json:"exactMatchBonus"`
		PrefixMatchBase   *float64 `json:"prefixMatchBase"`
		FrecencyScale     *float64 `json:"frecencyScale"`
		HistoryBonus      *float64 `json:"historyBonus"`
		FrecencyCap       *float64 `json:"frecencyCap"`
		DiversityDecay    *float64 `json:"diversityDecay"`
		MaxDisplayResults *int     `json:"maxDisplayResults"`
		Frecency          struct {
			StalenessHalfLifeMillis *int64 `json:"stalenessHalfLifeMillis"`
			StalenessMaxAgeMillis   *int64 `json:"stalenessMaxAgeMillis"`
			SuggestionCount         *int   `json:"suggestionCount"`
		} `json:"frecency"`
	} `json:"search"`
	PluginDirs           []string `json:"pluginDirs"`
	SocketPath           string   `json:"socketPath"`
	RequestTimeoutMillis *int64   `json:"requestTimeoutMillis"`
	KnownPrefixes        []string `json:"knownPrefixes"`
}

// Default returns the built-in configuration used when no config.json
// exists — spec.md §6: "Missing file is valid."
func Default() Config {
	return Config{
		SearchKnobs:          search.DefaultKnobs(),
		SocketPath:           "",
		RequestTimeoutMillis: 30000,
		KnownPrefixes:        append([]string{}, LegacyPrefixes...),
	}
}

// Load reads and validates the config file at path, defaulting every
// absent field and clamping out-of-range numeric knobs with a warning,
// per spec.md §6. A missing file is not an error; it returns Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, herr.Wrap(herr.KindIO, err, "cannot read config file")
	}

	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return Config{}, herr.Wrap(herr.KindConfig, err, "cannot parse config file")
	}
	warnUnknownKeys(known)

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, herr.Wrap(herr.KindConfig, err, "cannot parse config file")
	}

	applyOverrides(&cfg, raw)
	validate(&cfg)
	return cfg, nil
}

var knownTopLevelKeys = map[string]bool{
	"search": true, "pluginDirs": true, "socketPath": true,
	"requestTimeoutMillis": true, "knownPrefixes": true,
}

func warnUnknownKeys(raw map[string]json.RawMessage) {
	for k := range raw {
		if !knownTopLevelKeys[k] {
			clog.WithField("key", k).Warn("unknown configuration key; ignoring")
		}
	}
}

func applyOverrides(cfg *Config, raw rawConfig) {
	s := &cfg.SearchKnobs
	if raw.Search.ExactMatchBonus != nil {
		s.ExactMatchBonus = *raw.Search.ExactMatchBonus
	}
	if raw.Search.PrefixMatchBase != nil {
		s.PrefixMatchBase = *raw.Search.PrefixMatchBase
	}
	if raw.Search.FrecencyScale != nil {
		s.FrecencyScale = *raw.Search.FrecencyScale
	}
	if raw.Search.HistoryBonus != nil {
		s.HistoryBonus = *raw.Search.HistoryBonus
	}
	if raw.Search.FrecencyCap != nil {
		s.FrecencyCap = *raw.Search.FrecencyCap
	}
	if raw.Search.DiversityDecay != nil {
		s.DiversityDecay = *raw.Search.DiversityDecay
	}
	if raw.Search.MaxDisplayResults != nil {
		s.MaxDisplayResults = *raw.Search.MaxDisplayResults
	}
	if raw.Search.Frecency.StalenessHalfLifeMillis != nil {
		s.FrecencyKnobs.StalenessHalfLife = *raw.Search.Frecency.StalenessHalfLifeMillis
	}
	if raw.Search.Frecency.StalenessMaxAgeMillis != nil {
		s.FrecencyKnobs.StalenessMaxAge = *raw.Search.Frecency.StalenessMaxAgeMillis
	}
	if raw.Search.Frecency.SuggestionCount != nil {
		s.FrecencyKnobs.SuggestionCount = *raw.Search.Frecency.SuggestionCount
	}

	if len(raw.PluginDirs) > 0 {
		cfg.PluginDirs = raw.PluginDirs
	}
	if raw.SocketPath != "" {
		cfg.SocketPath = raw.SocketPath
	}
	if raw.RequestTimeoutMillis != nil {
		cfg.RequestTimeoutMillis = *raw.RequestTimeoutMillis
	}
	if len(raw.KnownPrefixes) > 0 {
		cfg.KnownPrefixes = mergeLegacyPrefixes(raw.KnownPrefixes)
	}
}

// mergeLegacyPrefixes keeps every built-in legacy prefix present even if
// the user's file overrides the list, per spec.md §6.
func mergeLegacyPrefixes(userPrefixes []string) []string {
	seen := make(map[string]bool, len(userPrefixes)+len(LegacyPrefixes))
	out := append([]string{}, userPrefixes...)
	for _, p := range userPrefixes {
		seen[p] = true
	}
	for _, p := range LegacyPrefixes {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// validate range-checks and clamps numeric knobs in place, warning on
// every adjustment, per spec.md §6's three named rules.
func validate(cfg *Config) {
	s := &cfg.SearchKnobs
	if s.DiversityDecay <= 0 || s.DiversityDecay > 1 {
		clog.WithField("value", s.DiversityDecay).Warn("diversityDecay out of range (0,1]; clamping to default")
		s.DiversityDecay = search.DefaultKnobs().DiversityDecay
	}
	if s.MaxDisplayResults < 1 {
		clog.WithField("value", s.MaxDisplayResults).Warn("maxDisplayResults below 1; clamping to 1")
		s.MaxDisplayResults = 1
	}
	if s.FrecencyKnobs.StalenessHalfLife > s.FrecencyKnobs.StalenessMaxAge && s.FrecencyKnobs.StalenessMaxAge > 0 {
		clog.WithField("halfLife", s.FrecencyKnobs.StalenessHalfLife).
			WithField("maxAge", s.FrecencyKnobs.StalenessMaxAge).
			Warn("staleness half-life exceeds max age; clamping half-life to max age")
		s.FrecencyKnobs.StalenessHalfLife = s.FrecencyKnobs.StalenessMaxAge
	}
	if len(s.FrecencyKnobs.Brackets) == 0 {
		s.FrecencyKnobs.Brackets = frecency.DefaultBrackets()
	}
}

// Dirs resolves the XDG base directories this core persists state under.
// Determined via the standard library rather than a third-party XDG
// package (see DESIGN.md) — failure to resolve them is surfaced as an
// error rather than a panic, per spec.md §6.
type Dirs struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// ConfigPath, FrecencyPath, and LaunchTimestampPath name the files spec.md §6
// pins under each resolved directory.
func (d Dirs) ConfigPath() string   { return filepath.Join(d.ConfigDir, "config.json") }
func (d Dirs) FrecencyPath() string { return filepath.Join(d.DataDir, "frecency.json") }
func (d Dirs) LaunchTimestampPath() string {
	return filepath.Join(d.CacheDir, "launch_timestamp")
}

// ResolveDirs derives every directory hamr persists state under.
func ResolveDirs() (Dirs, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return Dirs{}, herr.Wrap(herr.KindConfig, err, "cannot determine XDG config directory")
	}
	cacheBase, err := os.UserCacheDir()
	if err != nil {
		return Dirs{}, herr.Wrap(herr.KindConfig, err, "cannot determine XDG cache directory")
	}

	dataBase := os.Getenv("XDG_DATA_HOME")
	if dataBase == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Dirs{}, herr.Wrap(herr.KindConfig, err, "cannot determine home directory for XDG data fallback")
		}
		dataBase = filepath.Join(home, ".local", "share")
	}

	return Dirs{
		ConfigDir: filepath.Join(configBase, "hamr"),
		DataDir:   filepath.Join(dataBase, "hamr"),
		CacheDir:  filepath.Join(cacheBase, "hamr"),
	}, nil
}
