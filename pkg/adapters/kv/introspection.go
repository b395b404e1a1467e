package kv

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string `json:"path,omitempty"`
	InMemory      bool   `json:"in_memory"`
	Open          bool   `json:"open"`
	Writes        int    `json:"writes"`
	ActiveWatches int    `json:"active_watches"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RepositoryState{
		Path:          r.config.Path,
		InMemory:      r.config.InMemory,
		Open:          r.db != nil,
		Writes:        r.writes,
		ActiveWatches: r.watchers,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "badger-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
