// Package registry keeps one flow controller per browser session. Entries
// expire after a period of inactivity; every lookup renews the lease.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/nfrund/authflow/internal/authflow"
)

// Factory builds the controller for a new session.
type Factory func(sessionID string) *authflow.Controller

// Registry maps session ids to controllers.
type Registry struct {
	// mu serializes get-or-create so two concurrent first requests of one
	// session share a controller.
	mu      sync.Mutex
	c       *gocache.Cache
	ttl     time.Duration
	factory Factory
}

// New creates a registry whose idle entries expire after ttl.
func New(ttl time.Duration, factory Factory) *Registry {
	return &Registry{
		c:       gocache.New(ttl, time.Minute),
		ttl:     ttl,
		factory: factory,
	}
}

// Get returns the controller of id and renews its lease.
func (r *Registry) Get(id string) (*authflow.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *Registry) getLocked(id string) (*authflow.Controller, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := r.c.Get(id)
	if !ok {
		return nil, false
	}
	ctrl := v.(*authflow.Controller)
	r.c.Set(id, ctrl, r.ttl)
	return ctrl, true
}

// GetOrCreate returns the controller of id. An empty, unknown or expired id
// gets a fresh controller under a new id, which the caller must hand back to
// the client.
func (r *Registry) GetOrCreate(id string) (ctrl *authflow.Controller, sessionID string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctrl, ok := r.getLocked(id); ok {
		return ctrl, id, false
	}
	sessionID = uuid.NewString()
	ctrl = r.factory(sessionID)
	r.c.Set(sessionID, ctrl, r.ttl)
	return ctrl, sessionID, true
}

// Delete forgets a session.
func (r *Registry) Delete(id string) {
	r.c.Delete(id)
}

// Len reports the number of live sessions, expired ones included until the
// janitor runs.
func (r *Registry) Len() int {
	return r.c.ItemCount()
}
