package walk

import (
	"github.com/aretw0/introspection"
)

// WalkerState exposes internal state for observability.
type WalkerState struct {
	RunID     string  `json:"run_id"`
	Snapshot  string  `json:"snapshot,omitempty"`
	Length    int     `json:"length"`
	Steps     int     `json:"steps"`
	Tail      string  `json:"tail,omitempty"`
	BackProb  float64 `json:"back_prob"`
	MaxDegree int     `json:"max_degree"`
	Autosave  bool    `json:"autosave"`
}

// State implements introspection.Introspectable.
func (w *Walker) State() any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := WalkerState{
		RunID:     w.runID,
		Length:    len(w.walk),
		Steps:     w.steps,
		BackProb:  w.backProb,
		MaxDegree: w.engine.MaxDegree(),
		Autosave:  w.autosave,
	}
	if !w.handle.IsZero() {
		s.Snapshot = w.handle.Name()
	}
	if tail, ok := w.walk.Tail(); ok {
		s.Tail = tail.Name
	}
	return s
}

// ComponentType implements introspection.Component.
func (w *Walker) ComponentType() string {
	return "walker"
}

var _ introspection.Introspectable = (*Walker)(nil)
var _ introspection.Component = (*Walker)(nil)
