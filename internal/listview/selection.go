package listview

import (
	"sort"
	"sync"
)

// SelectionStore tracks the checked rows. The drawer is visible exactly
// when the selection is non-empty; it has no state of its own.
type SelectionStore struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// NewSelectionStore returns an empty selection.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{ids: make(map[int64]struct{})}
}

// Replace sets the selection to ids.
func (s *SelectionStore) Replace(ids []int64) {
	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = next
}

// Clear empties the selection.
func (s *SelectionStore) Clear() {
	s.Replace(nil)
}

// Prune drops selected ids that are not among visible.
func (s *SelectionStore) Prune(visible []int64) {
	keep := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// IDs returns the selected ids in ascending order.
func (s *SelectionStore) IDs() []int64 {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Contains reports whether id is selected.
func (s *SelectionStore) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len is the number of selected rows.
func (s *SelectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// DrawerVisible reports whether the bulk action drawer is shown.
func (s *SelectionStore) DrawerVisible() bool {
	return s.Len() > 0
}
