package listview

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/observability"
	"github.com/spec-kit/person-admin/internal/queryapi"
)

// Outcome describes what happened to one fetch.
type Outcome int

const (
	// OutcomeApplied means the page replaced the current results.
	OutcomeApplied Outcome = iota
	// OutcomeFailed means the query failed and the failure was surfaced.
	OutcomeFailed
	// OutcomeStale means a newer fetch superseded this one; nothing changed.
	OutcomeStale
)

// Orchestrator runs the people query whenever filter state changes. Each
// fetch takes a token from a monotonically increasing sequence; only the
// holder of the latest token may write results, and starting a fetch
// cancels the one it supersedes.
type Orchestrator struct {
	querier  queryapi.Querier
	results  *ResultStore
	notifier *Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewOrchestrator wires an orchestrator to the stores it writes.
func NewOrchestrator(querier queryapi.Querier, results *ResultStore, notifier *Notifier, logger *zap.Logger, metrics *observability.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		querier:  querier,
		results:  results,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Fetch queries for st and blocks until the response is applied, found
// stale, or failed. The returned error is the query failure, if any.
func (o *Orchestrator) Fetch(ctx context.Context, st filter.State) (Outcome, error) {
	req := queryapi.RequestFromState(st)

	o.mu.Lock()
	o.seq++
	token := o.seq
	if o.cancel != nil {
		o.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.results.SetLoading(true)
	o.mu.Unlock()

	page, err := o.querier.Query(fetchCtx, req)
	cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	if token != o.seq {
		o.logger.Debug("discarding stale page", zap.Uint64("token", token), zap.Uint64("current", o.seq))
		o.metrics.RecordFetch(observability.FetchStale)
		return OutcomeStale, nil
	}
	o.cancel = nil

	if err != nil {
		o.results.SetLoading(false)
		o.metrics.RecordFetch(observability.FetchFailed)
		// The caller went away; the API did not reject anything.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return OutcomeFailed, err
		}
		o.notifier.Show(FetchFailureMessage)
		o.logger.Warn("people query failed", zap.String("query", req.CacheKey()), zap.Error(err))
		return OutcomeFailed, err
	}

	items := page.Items
	if len(items) > st.PageSize {
		o.logger.Warn("query api returned more rows than requested",
			zap.Int("page_size", st.PageSize), zap.Int("rows", len(items)))
		items = items[:st.PageSize]
	}
	o.results.Replace(items, page.Count)
	o.metrics.RecordFetch(observability.FetchApplied)
	return OutcomeApplied, nil
}

// Token returns the latest issued fetch token.
func (o *Orchestrator) Token() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seq
}

// Stop cancels any in-flight fetch. The fetch it cancels comes back stale,
// so its cancellation is never surfaced as a query failure.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}
