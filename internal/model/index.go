package model

// IndexedItem is a plugin-contributed item registered into the global
// search index. It embeds ResultItem and adds the frecency counters and
// bookkeeping the search/frecency layers need (spec.md §3).
type IndexedItem struct {
	ResultItem

	Keywords   []string    `json:"keywords,omitempty"`
	EntryPoint interface{} `json:"entryPoint,omitempty"`

	ExecutionCount     int64            `json:"-"`
	LastUsedMillis     int64            `json:"-"`
	LastUsedByMode     map[string]int64 `json:"-"`
	SequenceConfidence map[string]float64 `json:"-"`
}

// PluginItemKey is the globally-unique identity of an indexed item: the
// (plugin id, item id) pair. Invariant: unique within an index snapshot.
type PluginItemKey struct {
	PluginID string
	ItemID   string
}

func (k PluginItemKey) String() string { return k.PluginID + ":" + k.ItemID }
