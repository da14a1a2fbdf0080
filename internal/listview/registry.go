package listview

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrViewNotFound is returned for unknown or evicted view ids.
var ErrViewNotFound = errors.New("view not found")

// Registry keeps live views by id and evicts idle ones.
type Registry struct {
	deps    Dependencies
	idleTTL time.Duration

	mu    sync.RWMutex
	views map[string]*View
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Dependencies, idleTTL time.Duration) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Registry{
		deps:    deps,
		idleTTL: idleTTL,
		views:   make(map[string]*View),
	}
}

// Mount starts a fresh view loaded from query and fetches its first page.
// A previous view under the same id is replaced, as a page reload
// remounts the client.
func (r *Registry) Mount(ctx context.Context, id, operator string, query url.Values) *View {
	if id == "" {
		id = uuid.NewString()
	}
	view := NewView(id, operator, query, r.deps)

	r.mu.Lock()
	if prev, ok := r.views[id]; ok {
		prev.Close()
	}
	r.views[id] = view
	count := len(r.views)
	r.mu.Unlock()

	r.deps.Metrics.SetActiveViews(count)
	view.Mount(ctx)
	return view
}

// Get returns the live view with id.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return view, nil
}

// Len reports the number of live views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// Sweep evicts views idle since before now minus the idle TTL.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*View
	for id, view := range r.views {
		if view.IdleSince().Before(cutoff) {
			evicted = append(evicted, view)
			delete(r.views, id)
		}
	}
	count := len(r.views)
	r.mu.Unlock()

	for _, view := range evicted {
		view.Close()
	}
	if len(evicted) > 0 {
		r.deps.Logger.Debug("evicted idle views", zap.Int("evicted", len(evicted)), zap.Int("remaining", count))
	}
	r.deps.Metrics.SetActiveViews(count)
	return len(evicted)
}
