// Package listview binds filter state, fetched results, row selection and
// notifications into one operator's person list view.
package listview

import (
	"sync"

	"github.com/spec-kit/person-admin/internal/domain"
)

// Results is a snapshot of the last applied page.
type Results struct {
	Items      []domain.Person
	TotalCount int
	Loading    bool
}

// ResultStore holds the current page of people. Pages are replaced
// wholesale, never merged.
type ResultStore struct {
	mu      sync.RWMutex
	items   []domain.Person
	total   int
	loading bool
}

// NewResultStore returns an empty store in the loading state, as a view
// is before its first fetch completes.
func NewResultStore() *ResultStore {
	return &ResultStore{loading: true}
}

// Snapshot returns a copy of the current results.
func (s *ResultStore) Snapshot() Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Results{
		Items:      append([]domain.Person(nil), s.items...),
		TotalCount: s.total,
		Loading:    s.loading,
	}
}

// IDs lists the ids on the current page.
func (s *ResultStore) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.items))
	for _, p := range s.items {
		ids = append(ids, p.ID)
	}
	return ids
}

// SetLoading flips the loading flag.
func (s *ResultStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Replace installs a new page and clears loading.
func (s *ResultStore) Replace(items []domain.Person, total int) {
	if total < 0 {
		total = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Person(nil), items...)
	s.total = total
	s.loading = false
}
