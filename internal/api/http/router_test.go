package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/person-admin/internal/api/http/handlers"
	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/config"
	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/listview"
	"github.com/spec-kit/person-admin/internal/queryapi"
	"github.com/spec-kit/person-admin/internal/service"
)

const testPassword = "s3cret"

var viewIDPattern = regexp.MustCompile(`"X-View-ID": "([^"]+)"`)

type peopleStub struct {
	mu    sync.Mutex
	total int
	reqs  []queryapi.Request
}

func (s *peopleStub) Query(_ context.Context, req queryapi.Request) (queryapi.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	var items []domain.Person
	for id := req.Offset + 1; id <= s.total && len(items) < req.PageSize; id++ {
		items = append(items, domain.Person{
			ID:           int64(id),
			FirstName:    "First",
			LastName:     "Last",
			Email:        "person@example.com",
			Role:         domain.PersonRoleEmployee,
			EmployeeType: domain.EmployeeTypeFullTime,
		})
	}
	return queryapi.Page{Items: items, Count: s.total}, nil
}

func (s *peopleStub) last() queryapi.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	people *peopleStub
}

func newTestServer(t *testing.T, withPassword bool) *testServer {
	t.Helper()
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, AdminEmail: "admin@example.com"}
	if withPassword {
		hash, err := auth.HashAdminPassword(testPassword, bcrypt.MinCost)
		require.NoError(t, err)
		authCfg.AdminPasswordHash = hash
	}
	authService := service.NewAuthService(authCfg)
	tokens := authService.TokenManager()
	people := &peopleStub{total: 45}

	registry := listview.NewRegistry(listview.Dependencies{
		Querier:  people,
		BasePath: "/admin/people",
	}, time.Minute)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("person-admin", "test", map[string]handlers.Pinger{
			"postgres": pingerFunc(func(context.Context) error { return nil }),
		}),
		People: handlers.NewPeopleHandler(people),
		Admin: handlers.NewAdminHandler(registry, handlers.AdminOptions{
			BasePath:   "/admin/people",
			AutoHideMs: 6000,
			CanLogout:  withPassword,
		}, nil),
		Auth:      handlers.NewAuthHandler(authService, "/admin/people", false),
		APIAuth:   auth.NewAuthMiddleware(tokens, false),
		AdminAuth: auth.NewAuthMiddleware(tokens, authService.Open()),
	})
	return &testServer{app: app, tokens: tokens, people: people}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testServer) mount(t *testing.T, rawQuery string) string {
	t.Helper()
	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/admin/people?"+rawQuery, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	match := viewIDPattern.FindStringSubmatch(body)
	require.Len(t, match, 2)
	return match[1]
}

func gesture(path, viewID string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	req.Header.Set(handlers.HeaderViewID, viewID)
	return req
}

func errorCode(t *testing.T, body string) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Error.Code
}

func TestPeopleAPI_RequiresToken(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/people", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestPeopleAPI_ReturnsPage(t *testing.T) {
	srv := newTestServer(t, false)
	token, err := srv.tokens.ServiceToken()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		"/api/people?search=&role=EMPLOYEE&employeeType=ANY&offset=40&pageSize=10&sort=email&sortDirection=desc", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, body := srv.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page queryapi.Page
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	assert.Equal(t, 45, page.Count)
	assert.Len(t, page.Items, 5)

	got := srv.people.last()
	assert.Equal(t, domain.PersonRoleEmployee, got.Role)
	assert.Equal(t, 40, got.Offset)
	require.NotNil(t, got.SortField)
	assert.Equal(t, domain.PersonFieldEmail, *got.SortField)
	assert.Equal(t, domain.SortDesc, *got.SortDirection)
}

func TestPeopleAPI_RejectsMalformedNumbers(t *testing.T) {
	srv := newTestServer(t, false)
	token, err := srv.tokens.ServiceToken()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/people?pageSize=ten", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, body := srv.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestAdmin_MountRendersGrid(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/admin/people?role=EMPLOYEE&pageSize=20&offset=abc", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	assert.Equal(t, 20, srv.people.last().PageSize)
	assert.Equal(t, 0, srv.people.last().Offset)
	assert.Equal(t, 20, strings.Count(body, `name="ids"`))
	assert.Contains(t, body, "1&ndash;20 of 45")
	assert.NotContains(t, body, `class="drawer"`)
}

func TestAdmin_GesturesReplaceURL(t *testing.T) {
	srv := newTestServer(t, false)
	viewID := srv.mount(t, "role=EMPLOYEE&pageSize=20")

	resp, body := srv.do(t, gesture("/admin/people/pagination", viewID, url.Values{
		"page": {"1"}, "pageSize": {"20"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin/people?offset=20&pageSize=20&role=EMPLOYEE", resp.Header.Get(handlers.HeaderReplaceURL))
	assert.Equal(t, 20, srv.people.last().Offset)
	assert.Contains(t, body, `id="people-grid"`)
	assert.NotContains(t, body, "<html")

	resp, _ = srv.do(t, gesture("/admin/people/sort", viewID, url.Values{
		"field": {"lastName"}, "direction": {"desc"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"/admin/people?offset=20&pageSize=20&role=EMPLOYEE&sort=lastName&sortDirection=desc",
		resp.Header.Get(handlers.HeaderReplaceURL))

	resp, _ = srv.do(t, gesture("/admin/people/sort", viewID, url.Values{"field": {""}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin/people?offset=20&pageSize=20&role=EMPLOYEE", resp.Header.Get(handlers.HeaderReplaceURL))

	resp, _ = srv.do(t, gesture("/admin/people/filter", viewID, url.Values{
		"search": {"ann"}, "role": {"EMPLOYEE"}, "employeeType": {"ANY"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin/people?pageSize=20&role=EMPLOYEE&search=ann", resp.Header.Get(handlers.HeaderReplaceURL))
}

func TestAdmin_MountKeepsValidFieldsOfMalformedQuery(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/admin/people?role=EMPLOYEE&pageSize=20&search=%zz", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := srv.people.last()
	assert.Equal(t, domain.PersonRoleEmployee, got.Role)
	assert.Equal(t, 20, got.PageSize)
	assert.Equal(t, "", got.Search)
	assert.Contains(t, body, "1&ndash;20 of 45")
}

func TestAdmin_HugePageNeverYieldsNegativeOffset(t *testing.T) {
	srv := newTestServer(t, false)
	viewID := srv.mount(t, "")

	resp, _ := srv.do(t, gesture("/admin/people/pagination", viewID, url.Values{
		"page": {"922337203685477581"}, "pageSize": {"10"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := srv.people.last()
	assert.Equal(t, (math.MaxInt/10)*10, got.Offset)
	assert.Equal(t,
		"/admin/people?offset="+strconv.Itoa((math.MaxInt/10)*10),
		resp.Header.Get(handlers.HeaderReplaceURL))
}

func TestAdmin_InvalidSortIsRejected(t *testing.T) {
	srv := newTestServer(t, false)
	viewID := srv.mount(t, "")

	resp, body := srv.do(t, gesture("/admin/people/sort", viewID, url.Values{
		"field": {"salary"}, "direction": {"asc"},
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestAdmin_SelectionAndExport(t *testing.T) {
	srv := newTestServer(t, false)
	viewID := srv.mount(t, "")

	resp, body := srv.do(t, gesture("/admin/people/selection", viewID, url.Values{
		"ids": {"2", "3", "999", "x"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `class="drawer"`)
	assert.Contains(t, body, "Export 2 items")

	resp, body = srv.do(t, gesture("/admin/people/export", viewID, url.Values{}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `class="drawer"`)
	assert.NotContains(t, body, " checked")
}

func TestAdmin_ExpiredViewRedirects(t *testing.T) {
	srv := newTestServer(t, false)

	req := gesture("/admin/people/filter", "gone", url.Values{"search": {"x"}})
	req.Header.Set("HX-Current-URL", "http://localhost/admin/people?role=STUDENT&bogus=1")
	resp, body := srv.do(t, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "VIEW_EXPIRED", errorCode(t, body))
	assert.Equal(t, "/admin/people?role=STUDENT", resp.Header.Get(handlers.HeaderRedirect))
}

func TestAdmin_RequiresLoginWhenPasswordSet(t *testing.T) {
	srv := newTestServer(t, true)

	resp, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/admin/people", nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, handlers.LoginPath, resp.Header.Get(fiber.HeaderLocation))

	bad := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(url.Values{"email": {"admin@example.com"}, "password": {"nope"}}.Encode()))
	bad.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, body := srv.do(t, bad)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid email or password.")

	good := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(url.Values{"email": {"admin@example.com"}, "password": {testPassword}}.Encode()))
	good.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, _ = srv.do(t, good)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin/people", nil)
	req.AddCookie(cookie)
	resp, body = srv.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sign out")
}

func TestAuth_JSONLogin(t *testing.T) {
	srv := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"`+testPassword+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, body := srv.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	claims, err := srv.tokens.ParseToken(payload.Data.Auth.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeOperator, claims.Subject)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)
	resp, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	failing := handlers.NewHealthHandler("person-admin", "test", map[string]handlers.Pinger{
		"redis": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	app := fiber.New()
	app.Get("/health/ready", failing.Ready)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
