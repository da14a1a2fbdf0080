package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/person-admin/internal/config"
	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/observability"
	"github.com/spec-kit/person-admin/internal/queryapi"
	"github.com/spec-kit/person-admin/internal/repository"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

// sharedLoadTimeout bounds a database load that outlives the caller which
// started it.
const sharedLoadTimeout = 15 * time.Second

// PageCache stores encoded query pages.
type PageCache interface {
	GetPage(ctx context.Context, key string) ([]byte, bool, error)
	SetPage(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// PersonService answers people queries from the database, through a cache.
type PersonService struct {
	people  repository.PersonRepository
	cache   PageCache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// PersonDependencies encapsulates collaborators of the person service.
type PersonDependencies struct {
	PersonRepo repository.PersonRepository
	Cache      PageCache
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewPersonService constructs the service. A nil cache or a zero TTL
// disables caching.
func NewPersonService(cfg config.CacheConfig, deps PersonDependencies) *PersonService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonService{
		people:  deps.PersonRepo,
		cache:   deps.Cache,
		ttl:     cfg.TTL(),
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// Query returns one page of people matching req.
func (s *PersonService) Query(ctx context.Context, req queryapi.Request) (queryapi.Page, error) {
	if err := ValidateRequest(req); err != nil {
		return queryapi.Page{}, err
	}
	key := req.CacheKey()

	if page, ok := s.cached(ctx, key); ok {
		return page, nil
	}

	// The load is shared by every waiter on key, so it must not die with
	// whichever caller happened to start it.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		page, err := s.load(loadCtx, req)
		if err != nil {
			return queryapi.Page{}, err
		}
		s.store(loadCtx, key, page)
		return page, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return queryapi.Page{}, apperrors.MapError(res.Err)
		}
		return res.Val.(queryapi.Page), nil
	case <-ctx.Done():
		return queryapi.Page{}, apperrors.MapError(ctx.Err())
	}
}

// ValidateRequest rejects requests the UI could never produce.
func ValidateRequest(req queryapi.Request) error {
	details := map[string]any{}
	if !req.Role.Valid() {
		details[filter.ParamRole] = req.Role
	}
	if !req.EmployeeType.Valid() {
		details[filter.ParamEmployeeType] = req.EmployeeType
	}
	if req.Offset < 0 {
		details[filter.ParamOffset] = req.Offset
	}
	if !filter.ValidPageSize(req.PageSize) {
		details[filter.ParamPageSize] = req.PageSize
	}
	if (req.SortField == nil) != (req.SortDirection == nil) {
		details[filter.ParamSort] = "sort and sortDirection must be given together"
	} else if req.SortField != nil && (!req.SortField.Valid() || !req.SortDirection.Valid()) {
		details[filter.ParamSort] = "unknown sort"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid people query", details)
	}
	return nil
}

func (s *PersonService) load(ctx context.Context, req queryapi.Request) (queryapi.Page, error) {
	f := repository.PersonFilter{
		Search: req.Search,
		Limit:  req.PageSize,
		Offset: req.Offset,
	}
	if req.Role != domain.PersonRoleAny {
		role := req.Role
		f.Role = &role
	}
	if req.EmployeeType != domain.EmployeeTypeAny {
		employeeType := req.EmployeeType
		f.EmployeeType = &employeeType
	}
	if req.SortField != nil {
		f.SortField = *req.SortField
		f.SortDesc = *req.SortDirection == domain.SortDesc
	}

	items, total, err := s.people.List(ctx, f)
	if err != nil {
		return queryapi.Page{}, err
	}
	return queryapi.Page{Items: items, Count: total}, nil
}

func (s *PersonService) cached(ctx context.Context, key string) (queryapi.Page, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return queryapi.Page{}, false
	}
	raw, ok, err := s.cache.GetPage(ctx, key)
	if err != nil {
		s.logger.Warn("people cache read failed", zap.Error(err))
		return queryapi.Page{}, false
	}
	s.metrics.RecordCacheLookup(ok)
	if !ok {
		return queryapi.Page{}, false
	}
	var page queryapi.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		s.logger.Warn("people cache entry unreadable", zap.String("key", key), zap.Error(err))
		return queryapi.Page{}, false
	}
	return page, true
}

func (s *PersonService) store(ctx context.Context, key string, page queryapi.Page) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.cache.SetPage(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("people cache write failed", zap.Error(err))
	}
}
