package plugin

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
	"gopkg.in/yaml.v2"
)

var mlog = logging.WithComponent("plugin.Manifest")

// ManifestFileName is the file a plugin directory must contain to be
// discovered.
const ManifestFileName = "manifest.yaml"

// FrecencyPolicy selects how execution credit is attributed for a plugin's
// items.
type FrecencyPolicy string

const (
	FrecencyItem   FrecencyPolicy = "item"
	FrecencyPlugin FrecencyPolicy = "plugin"
	FrecencyNone   FrecencyPolicy = "none"
)

// HandlerSpec describes how to invoke a plugin's handler process.
type HandlerSpec struct {
	Command []string `yaml:"command"`
	Type    string   `yaml:"type"` // "oneshot" | "daemon"
}

// DaemonSpec marks a plugin as a long-running process.
type DaemonSpec struct {
	Enabled    bool `yaml:"enabled"`
	Background bool `yaml:"background"`
}

// IndexSpec describes a plugin's static-index seeding and reindex cadence.
type IndexSpec struct {
	Enabled  bool `yaml:"enabled"`
	Reindex  int  `yaml:"reindex"` // seconds; parsed only, no periodic reindex is scheduled from it
}

// rawManifest is the on-disk YAML shape, permissive of unknown keys.
type rawManifest struct {
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	Icon              string         `yaml:"icon"`
	Prefix            string         `yaml:"prefix"`
	Match             *struct {
		Patterns []string `yaml:"patterns"`
	} `yaml:"match"`
	Handler           *HandlerSpec   `yaml:"handler"`
	Daemon            *DaemonSpec    `yaml:"daemon"`
	Index             *IndexSpec     `yaml:"index"`
	IndexOnly         bool           `yaml:"indexOnly"`
	StaticIndex       []pluginproto.RawItem `yaml:"staticIndex"`
	Poll              int            `yaml:"poll"`
	SupportedCompositors []string    `yaml:"supportedCompositors"`
	Frecency          FrecencyPolicy `yaml:"frecency"`
	ManifestVersion   int            `yaml:"manifestVersion"`
	Checksums         bool           `yaml:"checksums"`
}

// Manifest is the validated, in-memory form of a plugin's manifest.yaml.
type Manifest struct {
	Name        string
	Description string
	Icon        string
	Prefix      string

	MatchPatterns []*regexp.Regexp
	PatternsOK    bool // false if any pattern failed to compile

	Handler HandlerSpec
	Daemon  DaemonSpec
	Index   IndexSpec

	IndexOnly            bool
	StaticIndex          []pluginproto.RawItem
	PollSeconds          int
	SupportedCompositors []string
	Frecency             FrecencyPolicy
	ManifestVersion       int
	Checksums             bool
}

// Equal reports structural equality between two manifests, used by the
// directory watcher to decide whether a changed file actually changed
// anything meaningful (spec.md §4.6: "manifest equality is structural,
// not string-based").
func (m *Manifest) Equal(other *Manifest) bool {
	if other == nil {
		return false
	}
	if m.Name != other.Name || m.Description != other.Description ||
		m.Icon != other.Icon || m.Prefix != other.Prefix ||
		m.IndexOnly != other.IndexOnly || m.PollSeconds != other.PollSeconds ||
		m.Frecency != other.Frecency || m.ManifestVersion != other.ManifestVersion ||
		m.Checksums != other.Checksums {
		return false
	}
	if !reflect.DeepEqual(m.Handler, other.Handler) || m.Daemon != other.Daemon || m.Index != other.Index {
		return false
	}
	if len(m.MatchPatterns) != len(other.MatchPatterns) {
		return false
	}
	for i, p := range m.MatchPatterns {
		if p.String() != other.MatchPatterns[i].String() {
			return false
		}
	}
	if len(m.SupportedCompositors) != len(other.SupportedCompositors) {
		return false
	}
	for i, c := range m.SupportedCompositors {
		if c != other.SupportedCompositors[i] {
			return false
		}
	}
	return reflect.DeepEqual(m.StaticIndex, other.StaticIndex)
}

// LoadManifest reads and validates dir/manifest.yaml.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, herr.Wrap(herr.KindIO, err, "cannot read manifest")
	}

	var rm rawManifest
	if err := yaml.UnmarshalStrict(raw, &rm); err != nil {
		// fall back to permissive parsing so unknown keys only warn,
		// per spec.md §4.6 "warn on unknown keys while retaining all
		// known legacy prefix keys".
		if err2 := yaml.Unmarshal(raw, &rm); err2 != nil {
			return nil, herr.Wrap(herr.KindConfig, err2, "malformed manifest")
		}
		mlog.WithField("dir", dir).WithError(err).Warn("manifest has unknown keys; ignoring them")
	}

	if rm.Name == "" {
		return nil, herr.New(herr.KindConfig, "manifest missing required 'name' field")
	}

	m := &Manifest{
		Name:        rm.Name,
		Description: rm.Description,
		Icon:        rm.Icon,
		Prefix:      rm.Prefix,
		IndexOnly:   rm.IndexOnly,
		StaticIndex: rm.StaticIndex,
		PollSeconds: rm.Poll,
		SupportedCompositors: rm.SupportedCompositors,
		Frecency:    rm.Frecency,
		ManifestVersion: rm.ManifestVersion,
		Checksums:   rm.Checksums,
		PatternsOK:  true,
	}
	if m.Frecency == "" {
		m.Frecency = FrecencyItem
	}
	if m.ManifestVersion == 0 {
		m.ManifestVersion = 1
	}
	if rm.Handler != nil {
		m.Handler = *rm.Handler
	}
	if rm.Daemon != nil {
		m.Daemon = *rm.Daemon
	}
	if rm.Index != nil {
		m.Index = *rm.Index
	}

	if rm.Match != nil {
		for _, p := range rm.Match.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				mlog.WithField("dir", dir).WithField("pattern", p).WithError(err).
					Warn("plugin match pattern failed to compile; disabling pattern routing for this plugin")
				m.PatternsOK = false
				continue
			}
			m.MatchPatterns = append(m.MatchPatterns, re)
		}
	}

	return m, nil
}
