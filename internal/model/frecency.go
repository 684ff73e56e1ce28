package model

// FrecencyMode is the facet a last-used timestamp is tracked under
// (e.g. distinct execution modes of the same item, such as different
// in-item actions).
type FrecencyMode string

// FrecencyEntry is the per (plugin id, item id) persisted usage record
// (spec.md §3). The frecency store is monotonic in ExecutionCount and
// monotonic-non-decreasing in LastUsedMillis for the lifetime of a process.
type FrecencyEntry struct {
	PluginID string `json:"pluginId"`
	ItemID   string `json:"itemId"`

	ExecutionCount int64 `json:"executionCount"`
	FirstSeenMillis int64 `json:"firstSeenMillis"`
	LastUsedMillis  int64 `json:"lastUsedMillis"`

	LastUsedByMode map[FrecencyMode]int64 `json:"lastUsedByMode,omitempty"`

	LastPrecedingFingerprint string  `json:"lastPrecedingFingerprint,omitempty"`
	SequenceConfidence       float64 `json:"sequenceConfidence,omitempty"`

	// HourHistogram[h] and WeekdayHistogram[d] count executions observed in
	// hour-of-day h (0-23) and weekday d (0-6), used by smart suggestions.
	HourHistogram    [24]int64 `json:"hourHistogram,omitempty"`
	WeekdayHistogram [7]int64  `json:"weekdayHistogram,omitempty"`
}

// Key returns the globally-unique identity of this entry.
func (e *FrecencyEntry) Key() PluginItemKey {
	return PluginItemKey{PluginID: e.PluginID, ItemID: e.ItemID}
}

// ExecutionContext snapshots what surrounded an execution, used to credit
// the correct frecency mode and learn sequence confidence (spec.md §3).
type ExecutionContext struct {
	PluginID              string
	ItemID                string
	Query                 string
	SessionID             uint64
	HourOfDay             int
	Weekday               int
	PrecedingQueryFingerprint string
	Mode                  FrecencyMode
}
