package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/person-admin/internal/config"
	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/queryapi"
	"github.com/spec-kit/person-admin/internal/repository"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

type fakePersonRepo struct {
	mu      sync.Mutex
	calls   []repository.PersonFilter
	items   []domain.Person
	total   int
	err     error
	release chan struct{}
}

func (r *fakePersonRepo) List(_ context.Context, f repository.PersonFilter) ([]domain.Person, int, error) {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, f)
	return r.items, r.total, r.err
}

func (r *fakePersonRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetPage(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *memoryCache) SetPage(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = val
	return nil
}

var ada = domain.Person{
	ID:           1,
	FirstName:    "Ada",
	LastName:     "Lovelace",
	Email:        "ada@example.com",
	Role:         domain.PersonRoleEmployee,
	EmployeeType: domain.EmployeeTypeFullTime,
}

func TestPersonService_MapsRequestToFilter(t *testing.T) {
	repo := &fakePersonRepo{items: []domain.Person{ada}, total: 12}
	svc := NewPersonService(config.CacheConfig{}, PersonDependencies{PersonRepo: repo})

	st := filter.Default()
	st.Search = "ada"
	st.Role = domain.PersonRoleEmployee
	st.Offset = 10
	st.Sort = &filter.Sort{Field: domain.PersonFieldLastName, Direction: domain.SortDesc}

	page, err := svc.Query(context.Background(), queryapi.RequestFromState(st))

	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, []domain.Person{ada}, page.Items)
	require.Len(t, repo.calls, 1)
	got := repo.calls[0]
	assert.Equal(t, "ada", got.Search)
	require.NotNil(t, got.Role)
	assert.Equal(t, domain.PersonRoleEmployee, *got.Role)
	assert.Nil(t, got.EmployeeType, "ANY matches every employee type")
	assert.Equal(t, domain.PersonFieldLastName, got.SortField)
	assert.True(t, got.SortDesc)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 10, got.Offset)
}

func TestPersonService_CachesPages(t *testing.T) {
	repo := &fakePersonRepo{items: []domain.Person{ada}, total: 1}
	cache := newMemoryCache()
	svc := NewPersonService(config.CacheConfig{TTLSeconds: 30}, PersonDependencies{PersonRepo: repo, Cache: cache})
	req := queryapi.RequestFromState(filter.Default())

	first, err := svc.Query(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.callCount())
	assert.Contains(t, cache.entries, req.CacheKey())
}

func TestPersonService_CacheOutageFallsBackToDatabase(t *testing.T) {
	repo := &fakePersonRepo{items: []domain.Person{ada}, total: 1}
	cache := newMemoryCache()
	cache.err = errors.New("redis down")
	svc := NewPersonService(config.CacheConfig{TTLSeconds: 30}, PersonDependencies{PersonRepo: repo, Cache: cache})

	page, err := svc.Query(context.Background(), queryapi.RequestFromState(filter.Default()))

	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}

func TestPersonService_CollapsesConcurrentMisses(t *testing.T) {
	repo := &fakePersonRepo{items: []domain.Person{ada}, total: 1, release: make(chan struct{})}
	svc := NewPersonService(config.CacheConfig{}, PersonDependencies{PersonRepo: repo})
	req := queryapi.RequestFromState(filter.Default())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Query(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.Equal(t, 1, repo.callCount())
}

func TestPersonService_SharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	repo := &fakePersonRepo{items: []domain.Person{ada}, total: 1, release: make(chan struct{})}
	svc := NewPersonService(config.CacheConfig{}, PersonDependencies{PersonRepo: repo})
	req := queryapi.RequestFromState(filter.Default())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Query(firstCtx, req)
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan queryapi.Page, 1)
	go func() {
		page, err := svc.Query(context.Background(), req)
		assert.NoError(t, err)
		second <- page
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(repo.release)
	select {
	case page := <-second:
		assert.Equal(t, 1, page.Count)
		assert.Equal(t, []domain.Person{ada}, page.Items)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never answered")
	}
	assert.Equal(t, 1, repo.callCount())
}

func TestPersonService_RepositoryErrorIsInternal(t *testing.T) {
	repo := &fakePersonRepo{err: errors.New("connection reset")}
	svc := NewPersonService(config.CacheConfig{}, PersonDependencies{PersonRepo: repo})

	_, err := svc.Query(context.Background(), queryapi.RequestFromState(filter.Default()))

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
}

func TestValidateRequest(t *testing.T) {
	field := domain.PersonFieldEmail
	badField := domain.PersonField("salary")
	asc := domain.SortAsc
	valid := queryapi.RequestFromState(filter.Default())

	tests := []struct {
		name    string
		mutate  func(r *queryapi.Request)
		wantKey string
	}{
		{"valid", func(*queryapi.Request) {}, ""},
		{"role", func(r *queryapi.Request) { r.Role = "ADMIN" }, "role"},
		{"employee type", func(r *queryapi.Request) { r.EmployeeType = "" }, "employeeType"},
		{"offset", func(r *queryapi.Request) { r.Offset = -1 }, "offset"},
		{"page size", func(r *queryapi.Request) { r.PageSize = 1000 }, "pageSize"},
		{"half sort", func(r *queryapi.Request) { r.SortField = &field }, "sort"},
		{"unknown sort", func(r *queryapi.Request) { r.SortField = &badField; r.SortDirection = &asc }, "sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRequest(req)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
			assert.Contains(t, domainErr.Details, tt.wantKey)
		})
	}
}
