package queryapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
)

type staticToken string

func (s staticToken) ServiceToken() (string, error) { return string(s), nil }

func TestRequestFromState_Defaults(t *testing.T) {
	req := RequestFromState(filter.Default())

	assert.Equal(t, "", req.Search)
	assert.Equal(t, domain.PersonRoleAny, req.Role)
	assert.Equal(t, domain.EmployeeTypeAny, req.EmployeeType)
	assert.Equal(t, 0, req.Offset)
	assert.Equal(t, 10, req.PageSize)
	assert.Nil(t, req.SortField)
	assert.Nil(t, req.SortDirection)
}

func TestRequestFromState_Sort(t *testing.T) {
	st := filter.Default()
	st.Sort = &filter.Sort{Field: domain.PersonFieldEmail, Direction: domain.SortDesc}

	req := RequestFromState(st)

	require.NotNil(t, req.SortField)
	require.NotNil(t, req.SortDirection)
	assert.Equal(t, domain.PersonFieldEmail, *req.SortField)
	assert.Equal(t, domain.SortDesc, *req.SortDirection)
}

func TestClient_Query(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/people", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":7,"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","role":"EMPLOYEE","employeeType":"FULL_TIME"}],"count":31}`))
	}))
	defer srv.Close()

	st := filter.Default()
	st.Role = domain.PersonRoleEmployee
	st.Offset = 20
	st.Sort = &filter.Sort{Field: domain.PersonFieldLastName, Direction: domain.SortAsc}

	client := NewClient(srv.URL+"/", time.Second, staticToken("tok"))
	page, err := client.Query(context.Background(), RequestFromState(st))

	require.NoError(t, err)
	assert.Equal(t, 31, page.Count)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.Person{
		ID:           7,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Role:         domain.PersonRoleEmployee,
		EmployeeType: domain.EmployeeTypeFullTime,
	}, page.Items[0])
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "employeeType=ANY&offset=20&pageSize=10&role=EMPLOYEE&search=&sort=lastName&sortDirection=asc", gotQuery)
}

func TestClient_QueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Query(context.Background(), RequestFromState(filter.Default()))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestClient_QueryCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Query(ctx, RequestFromState(filter.Default()))

	assert.ErrorIs(t, err, context.Canceled)
}
