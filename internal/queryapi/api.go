// Package queryapi describes the remote people query the list view consumes.
package queryapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
)

// Request carries the seven query parameters. SortField and SortDirection
// are both nil or both set.
type Request struct {
	Search        string
	Role          domain.PersonRole
	EmployeeType  domain.EmployeeType
	Offset        int
	PageSize      int
	SortField     *domain.PersonField
	SortDirection *domain.SortDirection
}

// Page is one page of matching people plus the total match count.
type Page struct {
	Items []domain.Person `json:"items"`
	Count int             `json:"count"`
}

// Querier is implemented by anything that can answer a people query.
type Querier interface {
	Query(ctx context.Context, req Request) (Page, error)
}

// RequestFromState maps filter state to a query request.
func RequestFromState(st filter.State) Request {
	req := Request{
		Search:       st.Search,
		Role:         st.Role,
		EmployeeType: st.EmployeeType,
		Offset:       st.Offset,
		PageSize:     st.PageSize,
	}
	if st.Sort != nil {
		field := st.Sort.Field
		direction := st.Sort.Direction
		req.SortField = &field
		req.SortDirection = &direction
	}
	return req
}

// Values encodes the request with the same parameter names as the view URL.
// Unlike the view URL every parameter is written.
func (r Request) Values() url.Values {
	values := url.Values{}
	values.Set(filter.ParamSearch, r.Search)
	values.Set(filter.ParamRole, string(r.Role))
	values.Set(filter.ParamEmployeeType, string(r.EmployeeType))
	values.Set(filter.ParamOffset, strconv.Itoa(r.Offset))
	values.Set(filter.ParamPageSize, strconv.Itoa(r.PageSize))
	if r.SortField != nil && r.SortDirection != nil {
		values.Set(filter.ParamSort, string(*r.SortField))
		values.Set(filter.ParamSortDirection, string(*r.SortDirection))
	}
	return values
}

// CacheKey is a canonical identity of the request.
func (r Request) CacheKey() string {
	return r.Values().Encode()
}
