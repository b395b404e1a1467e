package tags

import (
	"github.com/aretw0/introspection"
)

// GathererState exposes internal state for observability.
type GathererState struct {
	Snapshot string `json:"snapshot,omitempty"`
	Total    int    `json:"total"`
	Done     int    `json:"done"`
	Gathered int    `json:"gathered"`
	Failed   string `json:"failed,omitempty"`
	Limit    int    `json:"limit"`
}

// State implements introspection.Introspectable.
func (g *Gatherer) State() any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := GathererState{
		Total:    g.total,
		Done:     g.done,
		Gathered: g.gathered,
		Limit:    g.limit,
	}
	if !g.target.IsZero() {
		s.Snapshot = g.target.Name()
	}
	if g.failed != nil {
		s.Failed = g.failed.Name
	}
	return s
}

// ComponentType implements introspection.Component.
func (g *Gatherer) ComponentType() string {
	return "tag-gatherer"
}

var _ introspection.Introspectable = (*Gatherer)(nil)
var _ introspection.Component = (*Gatherer)(nil)
