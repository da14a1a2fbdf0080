package dto

import (
	"strconv"
	"time"

	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/queryapi"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

// PeopleQuery is the raw query string of GET /api/people.
type PeopleQuery struct {
	Search        string `query:"search"`
	Role          string `query:"role"`
	EmployeeType  string `query:"employeeType"`
	Offset        string `query:"offset"`
	PageSize      string `query:"pageSize"`
	Sort          string `query:"sort"`
	SortDirection string `query:"sortDirection"`
}

// ToRequest converts the query to a people request. Absent parameters
// take their defaults; values that are present must parse.
func (q PeopleQuery) ToRequest() (queryapi.Request, error) {
	req := queryapi.Request{
		Search:       q.Search,
		Role:         domain.PersonRoleAny,
		EmployeeType: domain.EmployeeTypeAny,
		PageSize:     filter.DefaultPageSize,
	}
	details := map[string]any{}

	if q.Role != "" {
		req.Role = domain.PersonRole(q.Role)
	}
	if q.EmployeeType != "" {
		req.EmployeeType = domain.EmployeeType(q.EmployeeType)
	}
	if q.Offset != "" {
		offset, err := strconv.Atoi(q.Offset)
		if err != nil {
			details[filter.ParamOffset] = q.Offset
		}
		req.Offset = offset
	}
	if q.PageSize != "" {
		pageSize, err := strconv.Atoi(q.PageSize)
		if err != nil {
			details[filter.ParamPageSize] = q.PageSize
		}
		req.PageSize = pageSize
	}
	if q.Sort != "" {
		field := domain.PersonField(q.Sort)
		req.SortField = &field
	}
	if q.SortDirection != "" {
		direction := domain.SortDirection(q.SortDirection)
		req.SortDirection = &direction
	}

	if len(details) > 0 {
		return queryapi.Request{}, apperrors.NewValidationError("invalid people query", details)
	}
	return req, nil
}

// PeopleResponse is the body of GET /api/people.
type PeopleResponse struct {
	Items []domain.Person `json:"items"`
	Count int             `json:"count"`
}

// NewPeopleResponse builds the response body. Items is never null.
func NewPeopleResponse(page queryapi.Page) PeopleResponse {
	items := page.Items
	if items == nil {
		items = []domain.Person{}
	}
	return PeopleResponse{Items: items, Count: page.Count}
}

// LoginRequest payload for operator login, as JSON or a form post.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FilterForm is posted by the search and filter controls.
type FilterForm struct {
	Search       string `form:"search"`
	Role         string `form:"role"`
	EmployeeType string `form:"employeeType"`
}

// PaginationForm is posted by the pagination controls. Page is zero-based.
type PaginationForm struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// SortForm is posted by a column header. An empty field clears the sort.
type SortForm struct {
	Field     string `form:"field"`
	Direction string `form:"direction"`
}
