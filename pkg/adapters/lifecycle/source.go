// Package lifecycle exposes progress channels as lifecycle sources, so walk
// steps and snapshot changes can be consumed by lifecycle-managed components.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"
)

type source[E lifecycle.Event] struct {
	events <-chan E
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source forwarding every value of events,
// such as walk.Event or core.Event. The output closes when events closes or
// the context given to Start is done.
func NewSource[E lifecycle.Event](events <-chan E) lifecycle.Source {
	return &source[E]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *source[E]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *source[E]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
