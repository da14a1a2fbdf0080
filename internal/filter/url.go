package filter

import (
	"net/url"
	"strconv"

	"github.com/spec-kit/person-admin/internal/domain"
)

// URL query parameter names.
const (
	ParamSearch        = "search"
	ParamRole          = "role"
	ParamEmployeeType  = "employeeType"
	ParamOffset        = "offset"
	ParamPageSize      = "pageSize"
	ParamSort          = "sort"
	ParamSortDirection = "sortDirection"
)

// Load parses URL query parameters into a State. Missing or malformed
// values fall back to the default of their field; a sort is only taken
// when both its field and direction are valid.
func Load(values url.Values) State {
	st := Default()

	st.Search = values.Get(ParamSearch)

	if role := domain.PersonRole(values.Get(ParamRole)); role.Valid() {
		st.Role = role
	}
	if employeeType := domain.EmployeeType(values.Get(ParamEmployeeType)); employeeType.Valid() {
		st.EmployeeType = employeeType
	}
	if offset, err := strconv.Atoi(values.Get(ParamOffset)); err == nil && offset >= 0 {
		st.Offset = offset
	}
	if pageSize, err := strconv.Atoi(values.Get(ParamPageSize)); err == nil && ValidPageSize(pageSize) {
		st.PageSize = pageSize
	}

	field := domain.PersonField(values.Get(ParamSort))
	direction := domain.SortDirection(values.Get(ParamSortDirection))
	if sort, err := newSort(field, direction); err == nil {
		st.Sort = sort
	}

	return st
}

// Save renders a State as sparse URL query parameters: a field appears
// only when it differs from its default.
func Save(st State) url.Values {
	def := Default()
	values := url.Values{}

	if st.Search != def.Search {
		values.Set(ParamSearch, st.Search)
	}
	if st.Role != def.Role {
		values.Set(ParamRole, string(st.Role))
	}
	if st.EmployeeType != def.EmployeeType {
		values.Set(ParamEmployeeType, string(st.EmployeeType))
	}
	if st.Offset != def.Offset {
		values.Set(ParamOffset, strconv.Itoa(st.Offset))
	}
	if st.PageSize != def.PageSize {
		values.Set(ParamPageSize, strconv.Itoa(st.PageSize))
	}
	if st.Sort != nil {
		values.Set(ParamSort, string(st.Sort.Field))
		values.Set(ParamSortDirection, string(st.Sort.Direction))
	}
	return values
}

// Path joins base with the canonical sparse query string of st.
func Path(base string, st State) string {
	encoded := Save(st).Encode()
	if encoded == "" {
		return base
	}
	return base + "?" + encoded
}
