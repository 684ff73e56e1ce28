// Package frecency maintains per-item usage statistics, answers scoring
// queries for the search engine, and produces empty-query smart
// suggestions (spec.md §4.4).
package frecency

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
)

var slog = logging.WithComponent("frecency.Store")

// document is the on-disk snapshot shape.
type document struct {
	Version int                                       `json:"version"`
	Entries map[string]*model.FrecencyEntry `json:"entries"`
}

const currentVersion = 1

// Store holds every FrecencyEntry in memory behind a single mutex
// (spec.md §5: "the frecency store is held behind a single asynchronous
// mutex; read-heavy scoring acquires and releases it quickly") and
// persists them to a JSON snapshot with an atomic rename.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*model.FrecencyEntry
	path    string
}

// Open loads path if it exists (a missing file is not an error — an
// empty store is valid) and returns a ready Store.
func Open(path string) (*Store, error) {
	s := &Store{entries: make(map[string]*model.FrecencyEntry), path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, herr.Wrap(herr.KindIO, err, "cannot read frecency snapshot")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, herr.Wrap(herr.KindStore, err, "corrupt frecency snapshot")
	}
	if doc.Entries != nil {
		s.entries = doc.Entries
	}
	return s, nil
}

// Get returns the entry for key, and whether it exists.
func (s *Store) Get(key model.PluginItemKey) (*model.FrecencyEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key.String()]
	return e, ok
}

// Snapshot returns a borrowed (not cloned) view of every entry for
// scoring, matching spec.md §4.4 "the in-memory representation is
// borrowed (not cloned) during serialisation" — callers must not mutate
// the returned entries.
func (s *Store) Snapshot() map[string]*model.FrecencyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// RecordExecution bumps counters for (plugin, item), creating the entry
// on first execution. Monotonic in ExecutionCount and non-decreasing in
// LastUsedMillis for the process lifetime (spec.md §3 invariant).
func (s *Store) RecordExecution(ctx model.ExecutionContext, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.PluginItemKey{PluginID: ctx.PluginID, ItemID: ctx.ItemID}.String()
	e, ok := s.entries[key]
	if !ok {
		e = &model.FrecencyEntry{
			PluginID:        ctx.PluginID,
			ItemID:          ctx.ItemID,
			FirstSeenMillis: now,
			LastUsedByMode:  make(map[model.FrecencyMode]int64),
		}
		s.entries[key] = e
	}
	if e.LastUsedByMode == nil {
		e.LastUsedByMode = make(map[model.FrecencyMode]int64)
	}

	e.ExecutionCount++
	if now > e.LastUsedMillis {
		e.LastUsedMillis = now
	}
	if ctx.Mode != "" {
		if now > e.LastUsedByMode[ctx.Mode] {
			e.LastUsedByMode[ctx.Mode] = now
		}
	}

	if ctx.HourOfDay >= 0 && ctx.HourOfDay < 24 {
		e.HourHistogram[ctx.HourOfDay]++
	}
	if ctx.Weekday >= 0 && ctx.Weekday < 7 {
		e.WeekdayHistogram[ctx.Weekday]++
	}

	if ctx.PrecedingQueryFingerprint != "" {
		if e.LastPrecedingFingerprint == ctx.PrecedingQueryFingerprint {
			e.SequenceConfidence = clamp(e.SequenceConfidence+0.1, 0, 1)
		} else {
			e.SequenceConfidence = clamp(e.SequenceConfidence*0.5, 0, 1)
		}
		e.LastPrecedingFingerprint = ctx.PrecedingQueryFingerprint
	}
}

// Save persists the store atomically: write to a temp sibling file, fsync,
// then rename into place, so a crash mid-write leaves the previous good
// snapshot intact (spec.md §4.4, grounded on the corpus's AtomicWrite
// helper). Failures are returned, not swallowed; SaveBestEffort is the
// wrapper that logs the error at warn level and discards it.
func (s *Store) Save() error {
	s.mu.RLock()
	doc := document{Version: currentVersion, Entries: s.entries}
	data, err := json.Marshal(doc)
	s.mu.RUnlock()
	if err != nil {
		return herr.Wrap(herr.KindStore, err, "cannot encode frecency snapshot")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return herr.Wrap(herr.KindIO, err, "cannot create frecency directory")
	}
	tmp, err := os.CreateTemp(dir, ".frecency-*.tmp")
	if err != nil {
		return herr.Wrap(herr.KindIO, err, "cannot create temp snapshot file")
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return herr.Wrap(herr.KindIO, err, "cannot write temp snapshot file")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return herr.Wrap(herr.KindIO, err, "cannot fsync temp snapshot file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return herr.Wrap(herr.KindIO, err, "cannot close temp snapshot file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return herr.Wrap(herr.KindIO, err, "cannot rename temp snapshot into place")
	}
	return nil
}

// SaveBestEffort calls Save and logs-but-swallows any error, per spec.md
// §4.4 "Recording is best-effort: serialisation failures are logged at
// warn level but do not propagate as errors to the caller."
func (s *Store) SaveBestEffort() {
	if err := s.Save(); err != nil {
		slog.WithError(err).Warn("failed to persist frecency snapshot")
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
