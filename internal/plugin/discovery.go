package plugin

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
)

var dlog = logging.WithComponent("plugin.Discovery")

// validIDPattern restricts derived plugin ids to a safe, predictable
// character set; a directory basename outside this set fails to load
// rather than silently becoming "unknown" (spec.md §4.3).
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// deriveID converts a plugin directory's basename into its id.
func deriveID(dir string) (string, error) {
	base := filepath.Base(filepath.Clean(dir))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", herr.New(herr.KindPlugin, "cannot derive plugin id from directory \""+dir+"\"")
	}
	if !validIDPattern.MatchString(base) {
		return "", herr.New(herr.KindPlugin, "directory name \""+base+"\" is not a valid plugin id")
	}
	return base, nil
}

// Discover scans dirs in order (caller-supplied priority, typically user
// directory first, system directory second) and returns one Plugin per
// subdirectory containing a manifest file. A subdirectory that fails to
// load is logged and skipped, not fatal to discovery as a whole.
func Discover(dirs []string) []*Plugin {
	seen := map[string]bool{}
	var found []*Plugin

	for _, root := range dirs {
		entries, err := os.ReadDir(root)
		if err != nil {
			dlog.WithField("dir", root).WithError(err).Debug("plugin directory not readable")
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pluginDir := filepath.Join(root, entry.Name())
			if _, err := os.Stat(filepath.Join(pluginDir, ManifestFileName)); err != nil {
				continue
			}

			p, err := Load(pluginDir)
			if err != nil {
				dlog.WithField("dir", pluginDir).WithError(err).Warn("failed to load plugin")
				continue
			}
			if seen[p.ID] {
				dlog.WithField("id", p.ID).Warn("duplicate plugin id from a lower-priority directory; ignoring")
				continue
			}
			seen[p.ID] = true
			found = append(found, p)
		}
	}
	return found
}

// Load builds a Plugin from a single directory: derives its id, parses and
// validates its manifest, and verifies its checksums if present.
func Load(dir string) (*Plugin, error) {
	id, err := deriveID(dir)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "plugin \""+id+"\" manifest invalid")
	}

	status, issues, err := verifyChecksums(dir)
	if err != nil {
		dlog.WithField("id", id).WithError(err).Warn("checksum verification encountered errors")
	}
	if len(issues) > 0 {
		dlog.WithField("id", id).WithField("issues", issues).Warn("plugin checksum issues")
	}

	return newPlugin(id, dir, manifest, status, issues), nil
}
