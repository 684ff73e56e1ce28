package engine

import (
	"sync"

	"github.com/hamr-launcher/hamr/internal/model"
)

// Index is the shared, fused search index over every plugin's
// contributed items, keyed by (plugin id, item id). It is mutated only
// by index-step responses and static manifest seeding, and read by the
// search engine on every query (spec.md §3 "IndexedItem").
type Index struct {
	mu    sync.RWMutex
	items map[string]model.IndexedItem
}

func newIndex() *Index {
	return &Index{items: make(map[string]model.IndexedItem)}
}

// Put inserts or replaces an item.
func (idx *Index) Put(item model.IndexedItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.items[item.Key()] = item
}

// ReplacePlugin atomically swaps every item belonging to pluginID with a
// freshly supplied set, used for a full (non-incremental) reindex.
func (idx *Index) ReplacePlugin(pluginID string, items []model.IndexedItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k, v := range idx.items {
		if v.Provenance.PluginID == pluginID {
			delete(idx.items, k)
		}
	}
	for _, item := range items {
		idx.items[item.Key()] = item
	}
}

// Remove drops an item by key (pluginID:itemID).
func (idx *Index) Remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.items, key)
}

// RemovePlugin drops every item contributed by a plugin, used when it is
// unloaded.
func (idx *Index) RemovePlugin(pluginID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k, v := range idx.items {
		if v.Provenance.PluginID == pluginID {
			delete(idx.items, k)
		}
	}
}

// Snapshot returns a borrowed view of every item for scoring. Callers
// must not mutate the returned slice's items' shared state.
func (idx *Index) Snapshot() []model.IndexedItem {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]model.IndexedItem, 0, len(idx.items))
	for _, v := range idx.items {
		out = append(out, v)
	}
	return out
}

// ByKeyMap returns a borrowed map keyed by "pluginID:itemID", the shape
// internal/frecency.Store.Suggest expects.
func (idx *Index) ByKeyMap() map[string]model.IndexedItem {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]model.IndexedItem, len(idx.items))
	for k, v := range idx.items {
		out[k] = v
	}
	return out
}

// Get resolves a single item by its stable key.
func (idx *Index) Get(key string) (model.IndexedItem, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	item, ok := idx.items[key]
	return item, ok
}
