package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clipcasthq/clipcast-backend/internal/types"
	"gorm.io/gorm"
)

// Handler executes one claimed job. Handlers return a result map or an
// error; they never write job status themselves. The dispatcher owns
// every state transition.
type Handler interface {
	Type() string
	Run(ctx context.Context, tx *gorm.DB, job *types.Job) (map[string]any, error)
}

// Registry is the closed job_type → Handler map. Misconfiguration is
// rejected at registration, not discovered at dispatch.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	t := h.Type()
	if t == "" {
		return fmt.Errorf("handler Type() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("handler already registered for job_type=%s", t)
	}
	r.handlers[t] = h
	return nil
}

func (r *Registry) Get(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Known reports whether a handler is registered for jobType. Enqueue
// validation uses this so unknown types are refused before they ever
// reach the queue.
func (r *Registry) Known(jobType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[jobType]
	return ok
}

// Types returns the registered job types in stable order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
