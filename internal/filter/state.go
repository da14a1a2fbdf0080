// Package filter holds the search, filter, pagination and sort parameters
// that drive the person list, and their sparse URL encoding.
package filter

import (
	"errors"

	"github.com/spec-kit/person-admin/internal/domain"
)

const (
	DefaultPageSize = 10
)

// PageSizes are the page sizes the grid offers.
var PageSizes = []int{10, 20, 50}

// ErrInvalidSort is returned when a sort field or direction is unknown.
var ErrInvalidSort = errors.New("invalid sort")

// Sort is the single active sort. Field and direction only exist together.
type Sort struct {
	Field     domain.PersonField
	Direction domain.SortDirection
}

// State is the complete set of parameters for one list query.
type State struct {
	Search       string
	Role         domain.PersonRole
	EmployeeType domain.EmployeeType
	Offset       int
	PageSize     int
	Sort         *Sort
}

// Default returns the state of a fresh view.
func Default() State {
	return State{
		Role:         domain.PersonRoleAny,
		EmployeeType: domain.EmployeeTypeAny,
		PageSize:     DefaultPageSize,
	}
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}

// Page returns the zero-based page index the offset falls on.
func (s State) Page() int {
	if s.PageSize <= 0 {
		return 0
	}
	return s.Offset / s.PageSize
}

// Equal compares two states, including the sort pair by value.
func (s State) Equal(o State) bool {
	if s.Search != o.Search || s.Role != o.Role || s.EmployeeType != o.EmployeeType ||
		s.Offset != o.Offset || s.PageSize != o.PageSize {
		return false
	}
	if s.Sort == nil || o.Sort == nil {
		return s.Sort == nil && o.Sort == nil
	}
	return *s.Sort == *o.Sort
}

func (s State) clone() State {
	if s.Sort != nil {
		sort := *s.Sort
		s.Sort = &sort
	}
	return s
}

func newSort(field domain.PersonField, direction domain.SortDirection) (*Sort, error) {
	if !field.Valid() || !direction.Valid() {
		return nil, ErrInvalidSort
	}
	return &Sort{Field: field, Direction: direction}, nil
}
