package walk

import (
	"fmt"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Event reports one appended artist.
type Event struct {
	Index   int
	Outcome Outcome
	Handle  core.Handle
}

func (e Event) String() string {
	o := e.Outcome
	return fmt.Sprintf("#%d %s (%s from %s, %s of %d candidates)", e.Index, o.Artist.Name, o.Move, o.Base.Name, o.Choice, o.Candidates)
}
