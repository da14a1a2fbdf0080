package filter

import (
	"context"
	"math"
	"sync"

	"github.com/spec-kit/person-admin/internal/domain"
)

// Listener observes an effective state change.
type Listener func(ctx context.Context, prev, next State)

// Store is the mutable filter state of one view. Setters notify listeners
// synchronously, outside the lock, only when the state actually changed.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners []Listener
}

// NewStore creates a store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.clone()}
}

// Subscribe registers l for subsequent changes.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Replace swaps in a whole state, e.g. one loaded from the URL.
func (s *Store) Replace(ctx context.Context, next State) {
	s.update(ctx, func(st *State) { *st = next.clone() })
}

// SetSearch changes the search text and returns to the first page.
func (s *Store) SetSearch(ctx context.Context, search string) {
	s.update(ctx, func(st *State) {
		if st.Search == search {
			return
		}
		st.Search = search
		st.Offset = 0
	})
}

// SetRole changes the role filter and returns to the first page.
// Unknown roles fall back to ANY.
func (s *Store) SetRole(ctx context.Context, role domain.PersonRole) {
	if !role.Valid() {
		role = domain.PersonRoleAny
	}
	s.update(ctx, func(st *State) {
		if st.Role == role {
			return
		}
		st.Role = role
		st.Offset = 0
	})
}

// SetEmployeeType changes the employee type filter and returns to the first page.
// Unknown types fall back to ANY.
func (s *Store) SetEmployeeType(ctx context.Context, employeeType domain.EmployeeType) {
	if !employeeType.Valid() {
		employeeType = domain.EmployeeTypeAny
	}
	s.update(ctx, func(st *State) {
		if st.EmployeeType == employeeType {
			return
		}
		st.EmployeeType = employeeType
		st.Offset = 0
	})
}

// SetFilters applies the filter form in one change. The offset returns
// to the first page only if one of the three values differs.
func (s *Store) SetFilters(ctx context.Context, search string, role domain.PersonRole, employeeType domain.EmployeeType) {
	if !role.Valid() {
		role = domain.PersonRoleAny
	}
	if !employeeType.Valid() {
		employeeType = domain.EmployeeTypeAny
	}
	s.update(ctx, func(st *State) {
		if st.Search == search && st.Role == role && st.EmployeeType == employeeType {
			return
		}
		st.Search = search
		st.Role = role
		st.EmployeeType = employeeType
		st.Offset = 0
	})
}

// SetOffset moves to another row offset.
func (s *Store) SetOffset(ctx context.Context, offset int) {
	if offset < 0 {
		offset = 0
	}
	s.update(ctx, func(st *State) { st.Offset = offset })
}

// SetPageSize changes the page size and returns to the first page.
// Sizes outside PageSizes are ignored.
func (s *Store) SetPageSize(ctx context.Context, pageSize int) {
	if !ValidPageSize(pageSize) {
		return
	}
	s.update(ctx, func(st *State) {
		if st.PageSize == pageSize {
			return
		}
		st.PageSize = pageSize
		st.Offset = 0
	})
}

// SetPagination applies a grid pagination model in one step. Pages past
// the largest representable offset are clamped to it.
func (s *Store) SetPagination(ctx context.Context, page, pageSize int) {
	if !ValidPageSize(pageSize) {
		return
	}
	if page < 0 {
		page = 0
	}
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}
	s.update(ctx, func(st *State) {
		st.PageSize = pageSize
		st.Offset = page * pageSize
	})
}

// SetSort sets the sort field and direction together.
func (s *Store) SetSort(ctx context.Context, field domain.PersonField, direction domain.SortDirection) error {
	sort, err := newSort(field, direction)
	if err != nil {
		return err
	}
	s.update(ctx, func(st *State) { st.Sort = sort })
	return nil
}

// ClearSort removes the sort field and direction together.
func (s *Store) ClearSort(ctx context.Context) {
	s.update(ctx, func(st *State) { st.Sort = nil })
}

func (s *Store) update(ctx context.Context, mutate func(*State)) {
	s.mu.Lock()
	prev := s.state.clone()
	next := s.state.clone()
	mutate(&next)
	if prev.Equal(next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(ctx, prev, next.clone())
	}
}
