// Package search implements the fuzzy-matching and frecency-boosted
// ranking layer over the global item index (spec.md §4.2).
package search

import (
	"sort"
	"strings"

	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/sahilm/fuzzy"
)

// Knobs bundles the configurable scoring weights internal/config
// publishes from the user's config.json (spec.md §4.2's "weights and
// knobs from config").
type Knobs struct {
	ExactMatchBonus   float64
	PrefixMatchBase   float64
	FrecencyScale     float64
	HistoryBonus      float64
	FrecencyCap       float64
	DiversityDecay    float64 // strictly between 0 and 1
	MaxDisplayResults int

	FrecencyKnobs frecency.Knobs
}

// DefaultKnobs mirrors spec.md's worked examples.
func DefaultKnobs() Knobs {
	return Knobs{
		ExactMatchBonus:   50,
		PrefixMatchBase:   20,
		FrecencyScale:     2,
		HistoryBonus:      10,
		FrecencyCap:       100,
		DiversityDecay:    0.7,
		MaxDisplayResults: 9,
		FrecencyKnobs:     frecency.DefaultKnobs(),
	}
}

// Scored pairs a ranked item with the score it was ranked by, useful for
// tests asserting on ordering and for diagnostics.
type Scored struct {
	Item  model.IndexedItem
	Score float64
}

// nameSource adapts a slice of IndexedItem to sahilm/fuzzy's Source
// interface so the matcher operates directly on item names without an
// intermediate []string copy.
type nameSource []model.IndexedItem

func (s nameSource) String(i int) string { return s[i].Name }
func (s nameSource) Len() int            { return len(s) }

// Rank scores every candidate in items against query using fuzzy
// subsequence matching, an exact/prefix bonus, a frecency boost sourced
// from store, and diversity decay across repeated plugins, then truncates
// to knobs.MaxDisplayResults (spec.md §4.2 steps 2-5).
//
// Rank is a pure function of its arguments for a fixed now: identical
// inputs produce identical outputs, and it never panics on a clock
// regression or on items missing optional fields.
func Rank(query string, items []model.IndexedItem, store *frecency.Store, now int64, knobs Knobs, fingerprint string) []Scored {
	if len(items) == 0 {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(query))

	matches := fuzzy.FindFrom(normalized, nameSource(items))
	matchScore := make(map[int]float64, len(matches))
	for _, m := range matches {
		matchScore[m.Index] = float64(m.Score)
	}

	scored := make([]Scored, 0, len(matchScore))
	for idx, base := range matchScore {
		item := items[idx]
		score := base

		lowerName := strings.ToLower(item.Name)
		if lowerName == normalized {
			score += knobs.ExactMatchBonus
		} else if strings.HasPrefix(lowerName, normalized) && len(normalized) > 0 {
			proportion := float64(len(normalized)) / float64(len(lowerName))
			score += knobs.PrefixMatchBase * proportion
		}

		score += frecencyBoost(item, store, now, knobs, fingerprint)

		scored = append(scored, Scored{Item: item, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return compareScored(scored[i], scored[j]) < 0
	})

	applyDiversityDecay(scored, knobs.DiversityDecay)

	// diversity decay can reorder the tail; re-sort after applying it so
	// the final order still respects the tie-break chain.
	sort.SliceStable(scored, func(i, j int) bool {
		return compareScored(scored[i], scored[j]) < 0
	})

	if knobs.MaxDisplayResults > 0 && len(scored) > knobs.MaxDisplayResults {
		scored = scored[:knobs.MaxDisplayResults]
	}
	return scored
}

// frecencyBoost implements spec.md §4.2 step 3's formula:
// clamp(executionCount*scale + historyBonus*hasHistoryMatch + sequenceConfidence*contextMatch, 0, cap).
func frecencyBoost(item model.IndexedItem, store *frecency.Store, now int64, knobs Knobs, fingerprint string) float64 {
	if store == nil {
		return 0
	}
	entry, ok := store.Get(model.PluginItemKey{PluginID: item.Provenance.PluginID, ItemID: item.ID})
	if !ok {
		return 0
	}

	hasHistoryMatch := 0.0
	if entry.ExecutionCount > 0 {
		hasHistoryMatch = 1.0
	}

	contextMatch := 0.0
	seqConf := frecency.SequenceConfidence(entry, fingerprint)
	if seqConf > 0 {
		contextMatch = 1.0
	}

	boost := float64(entry.ExecutionCount)*knobs.FrecencyScale +
		knobs.HistoryBonus*hasHistoryMatch +
		seqConf*contextMatch

	return clamp(boost, 0, knobs.FrecencyCap)
}

// applyDiversityDecay multiplies the score of an item that has n earlier
// items from the same plugin in the (already rank-ordered) list by
// decay^n, so a single prolific source cannot saturate the result set
// (spec.md §4.2 step 4). For decay outside (0,1) it leaves every score
// unchanged.
func applyDiversityDecay(scored []Scored, decay float64) {
	if decay <= 0 || decay >= 1 {
		return
	}
	seen := map[string]int{}
	for i := range scored {
		id := scored[i].Item.Provenance.PluginID
		n := seen[id]
		seen[id] = n + 1
		if n == 0 {
			continue
		}
		for k := 0; k < n; k++ {
			scored[i].Score *= decay
		}
	}
}

// compareScored implements spec.md §4.2's tie-break chain: score
// descending, then execution-count descending, then last-used epoch
// descending, then stable lexicographic by (plugin id, item id).
func compareScored(a, b Scored) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if a.Item.ExecutionCount != b.Item.ExecutionCount {
		if a.Item.ExecutionCount > b.Item.ExecutionCount {
			return -1
		}
		return 1
	}
	if a.Item.LastUsedMillis != b.Item.LastUsedMillis {
		if a.Item.LastUsedMillis > b.Item.LastUsedMillis {
			return -1
		}
		return 1
	}
	ka := a.Item.Provenance.PluginID + ":" + a.Item.ID
	kb := b.Item.Provenance.PluginID + ":" + b.Item.ID
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
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
