package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hamr-launcher/hamr/internal/logging"
	"go.uber.org/multierr"
)

var cklog = logging.WithComponent("plugin.Checksum")

// ChecksumStatus is the audit-visible verification state of a plugin's
// tracked files (spec.md §4.3).
type ChecksumStatus string

const (
	ChecksumVerified ChecksumStatus = "verified"
	ChecksumModified ChecksumStatus = "modified"
	ChecksumUnknown  ChecksumStatus = "unknown"
)

// ChecksumsFileName is the optional manifest-sibling file tracking
// per-file SHA-256 digests.
const ChecksumsFileName = "checksums.json"

// verifyChecksums computes SHA-256 for every file tracked in
// dir/checksums.json and compares it to the recorded digest. A malformed
// individual entry is skipped, not fatal to the whole file (spec.md
// §4.3). Returns the aggregate status and the list of files that
// mismatched or errored, composed with multierr so every problem is
// reported rather than only the first.
func verifyChecksums(dir string) (ChecksumStatus, []string, error) {
	path := filepath.Join(dir, ChecksumsFileName)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ChecksumUnknown, nil, nil
	}
	if err != nil {
		return ChecksumUnknown, nil, err
	}

	var tracked map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tracked); err != nil {
		return ChecksumUnknown, nil, err
	}

	var issues []string
	var aggErr error
	modified := false

	for rel, rawHex := range tracked {
		var wantHex string
		if err := json.Unmarshal(rawHex, &wantHex); err != nil || rel == "" || wantHex == "" {
			// malformed entry: skip it, don't fail the whole file.
			cklog.WithField("dir", dir).Warn("skipping malformed checksum entry")
			continue
		}
		full := filepath.Join(dir, rel)
		data, err := os.ReadFile(full)
		if err != nil {
			issues = append(issues, rel+": "+err.Error())
			aggErr = multierr.Append(aggErr, err)
			modified = true
			continue
		}
		sum := sha256.Sum256(data)
		gotHex := hex.EncodeToString(sum[:])
		if gotHex != wantHex {
			issues = append(issues, rel+": checksum mismatch")
			modified = true
		}
	}

	if modified {
		return ChecksumModified, issues, aggErr
	}
	return ChecksumVerified, issues, nil
}
