package frecency

import (
	"sort"

	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/util"
)

var suglog = logging.WithComponent("frecency.Suggest")

// candidate is an IndexedItem paired with its resolved score for a single
// suggestion pass.
type candidate struct {
	item   model.IndexedItem
	score  float64
	reason string
}

// Suggest produces up to knobs.SuggestionCount items for an empty query,
// per spec.md §4.4: combining decayed frecency with hour-of-day/weekday
// histogram affinity, each tagged with a reason the UI can surface.
// Items with no recorded frecency entry are skipped — there is nothing to
// suggest for something never executed.
func (s *Store) Suggest(index map[string]model.IndexedItem, now int64, knobs Knobs) []model.ResultItem {
	if knobs.SuggestionCount <= 0 {
		return nil
	}
	components := util.ComponentsAt(now)

	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	candidates := make([]candidate, 0, len(entries))
	for key, entry := range entries {
		item, ok := index[key]
		if !ok {
			continue
		}
		age := util.AgeMillis(now, entry.LastUsedMillis)
		raw := CalculateFrecency(entry, now, knobs.Brackets)
		decayed := StalenessDecay(raw, age, knobs.StalenessHalfLife, knobs.StalenessMaxAge)

		hourMatch, weekdayMatch := HistogramAffinity(entry, components)
		reason := "frequently used"
		boost := 1.0
		switch {
		case hourMatch && weekdayMatch:
			reason = "usually used around this time"
			boost = 1.5
		case hourMatch:
			reason = "often used at this hour"
			boost = 1.25
		case weekdayMatch:
			reason = "often used on this day"
			boost = 1.25
		}

		score := decayed * boost
		if score <= 0 {
			continue
		}
		candidates = append(candidates, candidate{item: item, score: score, reason: reason})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		ki := candidates[i].item.Provenance.PluginID + ":" + candidates[i].item.ID
		kj := candidates[j].item.Provenance.PluginID + ":" + candidates[j].item.ID
		return ki < kj
	})

	if len(candidates) > knobs.SuggestionCount {
		candidates = candidates[:knobs.SuggestionCount]
	}

	out := make([]model.ResultItem, 0, len(candidates))
	for _, c := range candidates {
		ri := c.item.ResultItem
		ri.Provenance.IsSuggestion = true
		ri.Provenance.SuggestionReason = c.reason
		out = append(out, ri)
	}

	suglog.WithField("count", len(out)).Debug("produced smart suggestions")
	return out
}
