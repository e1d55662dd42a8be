package automation

import (
	"sync"
	"sync/atomic"

	"gamehub/automation-agent/internal/models"
)

// StatusRegistry publishes immutable status snapshots. Readers load a
// pointer and never block; writers serialize on mu and publish a copy.
type StatusRegistry struct {
	current  atomic.Pointer[models.AutomationStatus]
	mu       sync.Mutex
	onChange []func(models.AutomationStatus)
}

// NewStatusRegistry starts with everything false and zero
func NewStatusRegistry() *StatusRegistry {
	r := &StatusRegistry{}
	r.current.Store(&models.AutomationStatus{})
	return r
}

// Snapshot returns the latest published status
func (r *StatusRegistry) Snapshot() models.AutomationStatus {
	return *r.current.Load()
}

// Update applies fn to a copy of the current status and publishes it
func (r *StatusRegistry) Update(fn func(*models.AutomationStatus)) models.AutomationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *r.current.Load()
	fn(&next)
	r.current.Store(&next)

	for _, fn := range r.onChange {
		fn(next)
	}
	return next
}

// OnChange adds a callback run after every update, in update order.
// Callbacks run under the writer lock and must not block or call Update.
func (r *StatusRegistry) OnChange(fn func(models.AutomationStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}
