package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	Ext           string     `json:"ext"`
	Writes        int        `json:"writes"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	LastSnapshot  string     `json:"last_snapshot,omitempty"`
	ActiveWatches int        `json:"active_watches"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		Ext:           r.config.Ext,
		Writes:        r.writes,
		LastWrite:     r.lastWrite,
		LastSnapshot:  r.lastWriteName,
		ActiveWatches: r.watchers,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) addWatcher(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}
