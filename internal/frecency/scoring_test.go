package frecency

import (
	"testing"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestMultiplierForBrackets(t *testing.T) {
	brackets := DefaultBrackets()

	hour := int64(60 * 60 * 1000)

	assert.Equal(t, 4.0, multiplierFor(brackets, 0))
	assert.Equal(t, 4.0, multiplierFor(brackets, hour))
	assert.Equal(t, 2.0, multiplierFor(brackets, hour+1))
	assert.Equal(t, 1.0, multiplierFor(brackets, 7*24*hour))
	assert.Equal(t, 0.5, multiplierFor(brackets, 365*24*hour))
}

func TestMultiplierForEmptyBrackets(t *testing.T) {
	assert.Equal(t, 1.0, multiplierFor(nil, 12345))
}

func TestCalculateFrecencyNonNegative(t *testing.T) {
	entry := &model.FrecencyEntry{ExecutionCount: 5, LastUsedMillis: 1000}
	brackets := DefaultBrackets()

	// a clock regression (now before lastUsed) must saturate age to zero,
	// not go negative.
	score := CalculateFrecency(entry, 0, brackets)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.Equal(t, 5.0*4.0, score)
}

func TestCalculateFrecencyNilEntry(t *testing.T) {
	assert.Equal(t, 0.0, CalculateFrecency(nil, 1000, DefaultBrackets()))
}

func TestStalenessDecayHalvesAtHalfLife(t *testing.T) {
	score := StalenessDecay(100, 1000, 1000, 0)
	assert.InDelta(t, 50, score, 0.001)
}

func TestStalenessDecaySaturatesAtMaxAge(t *testing.T) {
	score := StalenessDecay(100, 5000, 1000, 4000)
	assert.Equal(t, 0.0, score)
}

func TestStalenessDecayNoHalfLifeIsNoop(t *testing.T) {
	assert.Equal(t, 42.0, StalenessDecay(42, 999999, 0, 0))
}

func TestSequenceConfidenceMatch(t *testing.T) {
	entry := &model.FrecencyEntry{LastPrecedingFingerprint: "abc", SequenceConfidence: 0.7}
	assert.Equal(t, 0.7, SequenceConfidence(entry, "abc"))
}

func TestSequenceConfidenceMismatchOrEmpty(t *testing.T) {
	entry := &model.FrecencyEntry{LastPrecedingFingerprint: "abc", SequenceConfidence: 0.7}
	assert.Equal(t, 0.0, SequenceConfidence(entry, "xyz"))
	assert.Equal(t, 0.0, SequenceConfidence(entry, ""))
	assert.Equal(t, 0.0, SequenceConfidence(nil, "abc"))
}

func TestHistogramAffinity(t *testing.T) {
	entry := &model.FrecencyEntry{}
	for i := 0; i < 24; i++ {
		entry.HourHistogram[i] = 1
	}
	entry.HourHistogram[9] = 20
	for i := 0; i < 7; i++ {
		entry.WeekdayHistogram[i] = 1
	}

	hourMatch, weekdayMatch := HistogramAffinity(entry, util.TimeComponents{HourOfDay: 9, Weekday: 2})
	assert.True(t, hourMatch)
	assert.False(t, weekdayMatch)
}

func TestHistogramAffinityEmptyEntry(t *testing.T) {
	hourMatch, weekdayMatch := HistogramAffinity(&model.FrecencyEntry{}, util.TimeComponents{})
	assert.False(t, hourMatch)
	assert.False(t, weekdayMatch)

	hourMatch, weekdayMatch = HistogramAffinity(nil, util.TimeComponents{})
	assert.False(t, hourMatch)
	assert.False(t, weekdayMatch)
}
