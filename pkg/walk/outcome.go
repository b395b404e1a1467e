package walk

import "github.com/aretw0/tastewalk/pkg/core"

// Move tells how the base of a step was picked.
type Move string

const (
	// MoveAdvance expands the tail of the walk.
	MoveAdvance Move = "advance"
	// MoveBack expands an artist drawn uniformly from the whole history.
	MoveBack Move = "back"
)

// Choice tells how the next artist was drawn from the candidates.
type Choice string

const (
	// ChoiceUniform is a uniform draw from a capped neighborhood.
	ChoiceUniform Choice = "uniform"
	// ChoiceWeighted is a draw of a neighbor from a partial neighborhood.
	ChoiceWeighted Choice = "weighted"
	// ChoiceStay is a self-loop: the base itself is revisited.
	ChoiceStay Choice = "stay"
)

// Outcome describes one step.
type Outcome struct {
	Artist     core.Artist
	Base       core.Artist
	Move       Move
	Choice     Choice
	Candidates int
	Fallbacks  int
	// Length is the walk length once the artist is appended. Set by the Walker.
	Length int
}

// Recorder observes steps, e.g. to export metrics.
type Recorder interface {
	RecordStep(o Outcome)
}
