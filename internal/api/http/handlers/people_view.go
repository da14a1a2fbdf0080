package handlers

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/listview"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"label": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	},
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

var templates = template.Must(template.New("people").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

var columnLabels = map[domain.PersonField]string{
	domain.PersonFieldID:           "ID",
	domain.PersonFieldFirstName:    "First name",
	domain.PersonFieldLastName:     "Last name",
	domain.PersonFieldEmail:        "Email",
	domain.PersonFieldRole:         "Role",
	domain.PersonFieldEmployeeType: "Employee type",
}

type gridColumn struct {
	Field         domain.PersonField
	Label         string
	Direction     domain.SortDirection
	NextField     domain.PersonField
	NextDirection domain.SortDirection
}

type gridRow struct {
	domain.Person
	Selected bool
}

// peoplePage is the template model of the person list.
type peoplePage struct {
	ViewID        string
	URL           string
	Search        string
	Role          domain.PersonRole
	EmployeeType  domain.EmployeeType
	Roles         []domain.PersonRole
	EmployeeTypes []domain.EmployeeType
	PageSizes     []int
	Columns       []gridColumn
	Rows          []gridRow
	Loading       bool
	Total         int
	Page          int
	PageSize      int
	PageCount     int
	From          int
	To            int
	HasPrev       bool
	HasNext       bool
	SelectedCount int
	DrawerVisible bool
	Message       string
	HasMessage    bool
	AutoHideMs    int
	CanLogout     bool
}

func newPeoplePage(snap listview.Snapshot, autoHideMs int, canLogout bool) peoplePage {
	st := snap.State
	page := peoplePage{
		ViewID:        snap.ID,
		URL:           snap.URL,
		Search:        st.Search,
		Role:          st.Role,
		EmployeeType:  st.EmployeeType,
		Roles:         []domain.PersonRole{domain.PersonRoleAny, domain.PersonRoleStudent, domain.PersonRoleEmployee},
		EmployeeTypes: []domain.EmployeeType{domain.EmployeeTypeAny, domain.EmployeeTypeFullTime, domain.EmployeeTypePartTime},
		PageSizes:     filter.PageSizes,
		Columns:       gridColumns(st.Sort),
		Loading:       snap.Results.Loading,
		Total:         snap.Results.TotalCount,
		Page:          st.Page(),
		PageSize:      st.PageSize,
		SelectedCount: len(snap.SelectedIDs),
		DrawerVisible: snap.DrawerVisible,
		AutoHideMs:    autoHideMs,
		CanLogout:     canLogout,
	}

	selected := make(map[int64]struct{}, len(snap.SelectedIDs))
	for _, id := range snap.SelectedIDs {
		selected[id] = struct{}{}
	}
	page.Rows = make([]gridRow, 0, len(snap.Results.Items))
	for _, p := range snap.Results.Items {
		_, ok := selected[p.ID]
		page.Rows = append(page.Rows, gridRow{Person: p, Selected: ok})
	}

	if st.PageSize > 0 {
		page.PageCount = (page.Total + st.PageSize - 1) / st.PageSize
	}
	if len(page.Rows) > 0 {
		page.From = st.Offset + 1
		page.To = st.Offset + len(page.Rows)
	}
	page.HasPrev = page.Page > 0
	page.HasNext = page.Page+1 < page.PageCount

	if snap.Message != nil {
		page.Message = *snap.Message
		page.HasMessage = true
	}
	return page
}

// gridColumns renders headers cycling asc, desc, unsorted.
func gridColumns(sort *filter.Sort) []gridColumn {
	columns := make([]gridColumn, 0, len(domain.PersonFields))
	for _, field := range domain.PersonFields {
		col := gridColumn{
			Field:         field,
			Label:         columnLabels[field],
			NextField:     field,
			NextDirection: domain.SortAsc,
		}
		if sort != nil && sort.Field == field {
			col.Direction = sort.Direction
			if sort.Direction == domain.SortAsc {
				col.NextDirection = domain.SortDesc
			} else {
				col.NextField = ""
				col.NextDirection = ""
			}
		}
		columns = append(columns, col)
	}
	return columns
}

func renderTemplate(w io.Writer, name string, data any) error {
	return templates.ExecuteTemplate(w, name, data)
}
