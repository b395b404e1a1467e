package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/typed"
)

// ErrNotWatchable is returned by Follow when the backend cannot report changes.
var ErrNotWatchable = errors.New("repository does not support watching")

// Follow gathers the walk stored at walkHandle, then keeps gathering newly
// appended artists every time the walk snapshot changes, until ctx is done.
// The returned report accumulates every pass.
func (g *Gatherer) Follow(ctx context.Context, walks *typed.WalkStore, walkHandle core.Handle) (GatherReport, error) {
	watcher, ok := walks.Repository().(core.Watchable)
	if !ok {
		return GatherReport{}, ErrNotWatchable
	}
	events, err := watcher.Watch(ctx, walkHandle)
	if err != nil {
		return GatherReport{}, fmt.Errorf("failed to watch %s: %w", walkHandle, err)
	}

	var total GatherReport
	pass := func() error {
		walk, err := walks.Load(ctx, walkHandle)
		if errors.Is(err, core.ErrCorruptSnapshot) {
			// Caught mid-write; the next notification brings a complete snapshot.
			g.logger.Warn("skipping unreadable walk snapshot", "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		report, err := g.Gather(ctx, walkHandle, walk)
		total.merge(report)
		return err
	}

	if err := pass(); err != nil {
		return total, err
	}
	g.logger.Info("following walk", "snapshot", walkHandle.Name())

	for {
		select {
		case <-ctx.Done():
			return total, nil
		case e, ok := <-events:
			if !ok {
				return total, nil
			}
			if e.Type == core.EventDelete {
				continue
			}
			g.logger.Debug("walk changed", "event", e.String())
			if err := pass(); err != nil {
				return total, err
			}
		}
	}
}

func (r *GatherReport) merge(o GatherReport) {
	if r.Resumed == 0 && r.Gathered == 0 {
		r.Resumed = o.Resumed
	}
	r.Target = o.Target
	r.Total = o.Total
	r.Gathered += o.Gathered
	r.Done = o.Done
	r.Failed = o.Failed
}
