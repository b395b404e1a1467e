package fs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Watch notifies changes of the snapshot file for h.
//
// The data directory is watched rather than the file itself because atomic
// writes replace the inode on every save. Notifications are coalesced: if the
// consumer has not drained the previous one, the new change is folded into it.
// The returned channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, h core.Handle) (<-chan core.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}

	target := filepath.Clean(r.Filename(h))
	out := make(chan core.Event, 1)
	r.addWatcher(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer r.addWatcher(-1)
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				eType := mapEventType(event)
				if eType == "" {
					continue
				}
				r.config.Logger.Debug("snapshot changed", "file", event.Name, "op", event.Op.String())
				select {
				case out <- core.Event{Type: eType, Handle: h, Timestamp: time.Now().Unix()}:
				default:
				}

			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.config.Logger.Error("fsnotify error", "error", wErr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.config.Logger.Error("watcher panic", "error", err)
	}))

	return out, nil
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

var _ core.Watchable = (*Repository)(nil)
