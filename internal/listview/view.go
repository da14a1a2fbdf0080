package listview

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/events"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/observability"
	"github.com/spec-kit/person-admin/internal/queryapi"
)

// Dependencies are shared by every view.
type Dependencies struct {
	Querier    queryapi.Querier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	BasePath   string
}

// View is one operator's list view session.
type View struct {
	ID       string
	Operator string

	filters      *filter.Store
	results      *ResultStore
	selection    *SelectionStore
	notifier     *Notifier
	orchestrator *Orchestrator
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	basePath     string
	lastSeen     atomic.Int64
}

// Snapshot is everything needed to render the view.
type Snapshot struct {
	ID            string
	State         filter.State
	Results       Results
	SelectedIDs   []int64
	DrawerVisible bool
	Message       *string
	URL           string
}

// NewView builds a view whose filter state is loaded from the URL query.
// No fetch happens until Mount.
func NewView(id, operator string, query url.Values, deps Dependencies) *View {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	results := NewResultStore()
	notifier := NewNotifier()

	v := &View{
		ID:           id,
		Operator:     operator,
		filters:      filter.NewStore(filter.Load(query)),
		results:      results,
		selection:    NewSelectionStore(),
		notifier:     notifier,
		orchestrator: NewOrchestrator(deps.Querier, results, notifier, logger.With(zap.String("view_id", id)), deps.Metrics),
		dispatcher:   dispatcher,
		logger:       logger,
		basePath:     deps.BasePath,
	}
	v.touch()
	v.filters.Subscribe(func(ctx context.Context, _, next filter.State) {
		v.refresh(ctx, next)
	})
	return v
}

// Mount performs the initial fetch for the loaded state.
func (v *View) Mount(ctx context.Context) {
	v.touch()
	st := v.filters.State()
	v.publish(ctx, events.EventViewMounted, events.ViewMountedPayload{Query: filter.Save(st).Encode()})
	v.refresh(ctx, st)
}

// ApplyFilters handles the search / role / employee type form.
func (v *View) ApplyFilters(ctx context.Context, search string, role domain.PersonRole, employeeType domain.EmployeeType) {
	v.touch()
	v.filters.SetFilters(ctx, search, role, employeeType)
}

// Paginate handles a grid pagination model change.
func (v *View) Paginate(ctx context.Context, page, pageSize int) {
	v.touch()
	v.filters.SetPagination(ctx, page, pageSize)
}

// SortBy handles a grid sort model change. An empty field clears the sort.
func (v *View) SortBy(ctx context.Context, field domain.PersonField, direction domain.SortDirection) error {
	v.touch()
	if field == "" {
		v.filters.ClearSort(ctx)
		return nil
	}
	return v.filters.SetSort(ctx, field, direction)
}

// Select handles a grid selection model change. Ids that are not on the
// current page are ignored.
func (v *View) Select(ids []int64) {
	v.touch()
	v.selection.Replace(ids)
	v.selection.Prune(v.results.IDs())
}

// Export hands the selected ids to the export action and clears the
// selection. Nothing is exported yet; the request is only published.
func (v *View) Export(ctx context.Context) []int64 {
	v.touch()
	ids := v.selection.IDs()
	if len(ids) == 0 {
		return ids
	}
	v.publish(ctx, events.EventExportRequested, events.ExportRequestedPayload{PersonIDs: ids})
	v.selection.Clear()
	return ids
}

// DismissNotification hides the snackbar.
func (v *View) DismissNotification() {
	v.touch()
	v.notifier.Dismiss()
}

// URL is the sparse, shareable address of the current state.
func (v *View) URL() string {
	return filter.Path(v.basePath, v.filters.State())
}

// Snapshot captures the current state for rendering.
func (v *View) Snapshot() Snapshot {
	st := v.filters.State()
	return Snapshot{
		ID:            v.ID,
		State:         st,
		Results:       v.results.Snapshot(),
		SelectedIDs:   v.selection.IDs(),
		DrawerVisible: v.selection.DrawerVisible(),
		Message:       v.notifier.Message(),
		URL:           filter.Path(v.basePath, st),
	}
}

// IdleSince reports when the view was last used.
func (v *View) IdleSince() time.Time {
	return time.Unix(0, v.lastSeen.Load())
}

// Close cancels any in-flight fetch.
func (v *View) Close() {
	v.orchestrator.Stop()
}

func (v *View) refresh(ctx context.Context, st filter.State) {
	outcome, err := v.orchestrator.Fetch(ctx, st)
	switch outcome {
	case OutcomeApplied:
		v.selection.Prune(v.results.IDs())
	case OutcomeFailed:
		if ctx.Err() == nil {
			v.publish(ctx, events.EventFetchFailed, events.FetchFailedPayload{
				Query: filter.Save(st).Encode(),
				Error: err.Error(),
			})
		}
	}
}

func (v *View) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	err := v.dispatcher.Publish(ctx, events.Event{
		Type:     eventType,
		ViewID:   v.ID,
		Operator: v.Operator,
		Payload:  payload,
	})
	if err != nil {
		v.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func (v *View) touch() {
	v.lastSeen.Store(time.Now().UnixNano())
}
