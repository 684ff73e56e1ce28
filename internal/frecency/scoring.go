package frecency

import (
	"math"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/util"
)

// RecencyBracket is one step of the age-to-multiplier staircase used by
// CalculateFrecency (spec.md §4.4: "Recency multipliers form a step
// function of age").
type RecencyBracket struct {
	MaxAgeMillis int64 // upper bound of this bracket; the last bracket should use math.MaxInt64
	Multiplier   float64
}

// DefaultBrackets implements the spec's worked example: last hour / last
// day / last week / older, at 4.0 / 2.0 / 1.0 / 0.5.
func DefaultBrackets() []RecencyBracket {
	const (
		hour = int64(60 * 60 * 1000)
		day  = 24 * hour
		week = 7 * day
	)
	return []RecencyBracket{
		{MaxAgeMillis: hour, Multiplier: 4.0},
		{MaxAgeMillis: day, Multiplier: 2.0},
		{MaxAgeMillis: week, Multiplier: 1.0},
		{MaxAgeMillis: math.MaxInt64, Multiplier: 0.5},
	}
}

// Knobs bundles the configurable scoring parameters the frecency store
// needs; internal/config publishes an instance of this from the user's
// config.json (spec.md §6's numeric knobs subset).
type Knobs struct {
	Brackets           []RecencyBracket
	StalenessHalfLife  int64 // milliseconds; 0 disables staleness decay
	StalenessMaxAge    int64 // milliseconds; ages beyond this saturate to zero score
	SuggestionCount    int
}

// DefaultKnobs mirrors spec.md's worked examples: a two-week half-life, a
// 90-day max age cutoff, and five suggestions.
func DefaultKnobs() Knobs {
	const day = int64(24 * 60 * 60 * 1000)
	return Knobs{
		Brackets:          DefaultBrackets(),
		StalenessHalfLife: 14 * day,
		StalenessMaxAge:   90 * day,
		SuggestionCount:   5,
	}
}

// multiplierFor returns the recency multiplier for the given age, the last
// bracket acting as the catch-all for "older".
func multiplierFor(brackets []RecencyBracket, age int64) float64 {
	for _, b := range brackets {
		if age <= b.MaxAgeMillis {
			return b.Multiplier
		}
	}
	if len(brackets) > 0 {
		return brackets[len(brackets)-1].Multiplier
	}
	return 1.0
}

// CalculateFrecency combines execution count with a recency multiplier
// derived from a step function of age, per spec.md §4.4. Age is computed
// with saturating subtraction so a clock regression never produces a
// negative age, and the result is always non-negative and finite — this
// is the function the "score non-negativity" testable property binds.
func CalculateFrecency(entry *model.FrecencyEntry, now int64, brackets []RecencyBracket) float64 {
	if entry == nil {
		return 0
	}
	age := util.AgeMillis(now, entry.LastUsedMillis)
	mult := multiplierFor(brackets, age)
	return float64(entry.ExecutionCount) * mult
}

// StalenessDecay applies an exponential time decay with a configurable
// half-life, capped by a maximum-age cutoff beyond which the score
// saturates to zero. Applied to suggestion scores only — raw frecency
// used by direct search is never decayed (spec.md §4.4).
func StalenessDecay(score float64, age int64, halfLife, maxAge int64) float64 {
	if age >= maxAge && maxAge > 0 {
		return 0
	}
	if halfLife <= 0 {
		return score
	}
	decayed := score * math.Pow(0.5, float64(age)/float64(halfLife))
	if decayed < 0 || math.IsNaN(decayed) {
		return 0
	}
	return decayed
}

// SequenceConfidence returns how strongly the preceding-query fingerprint
// observed now matches the entry's last recorded one, in [0,1]: the
// entry's stored confidence on a match, and 0 on a mismatch, an empty
// fingerprint or a nil entry.
func SequenceConfidence(entry *model.FrecencyEntry, precedingFingerprint string) float64 {
	if entry == nil || precedingFingerprint == "" {
		return 0
	}
	if entry.LastPrecedingFingerprint == precedingFingerprint {
		return entry.SequenceConfidence
	}
	return 0
}

// HistogramAffinity reports whether now's hour-of-day or weekday is among
// the entry's historically frequent usage slots, used by smart suggestions
// to explain a pick (spec.md §4.4 "items whose hour-of-day or weekday
// histogram matches the current moment").
func HistogramAffinity(entry *model.FrecencyEntry, components util.TimeComponents) (hourMatch, weekdayMatch bool) {
	if entry == nil {
		return false, false
	}
	total := int64(0)
	for _, c := range entry.HourHistogram {
		total += c
	}
	if total > 0 {
		avg := float64(total) / 24
		hourMatch = float64(entry.HourHistogram[components.HourOfDay]) > avg*1.5
	}
	total = 0
	for _, c := range entry.WeekdayHistogram {
		total += c
	}
	if total > 0 {
		avg := float64(total) / 7
		weekdayMatch = float64(entry.WeekdayHistogram[components.Weekday]) > avg*1.5
	}
	return hourMatch, weekdayMatch
}
