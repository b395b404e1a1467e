package kv

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Watch notifies writes to h through a Badger subscription. Notifications
// are coalesced and the channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, h core.Handle) (<-chan core.Event, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := r.open(); err != nil {
		return nil, err
	}

	out := make(chan core.Event, 1)
	match := []pb.Match{{Prefix: key(h)}}
	r.addWatcher(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer r.addWatcher(-1)
		defer close(out)

		err := r.db.Subscribe(ctx, func(list *badger.KVList) error {
			for _, kv := range list.Kv {
				if string(kv.Key) != string(key(h)) {
					continue
				}
				eType := core.EventModify
				if len(kv.Value) == 0 {
					eType = core.EventDelete
				}
				select {
				case out <- core.Event{Type: eType, Handle: h, Timestamp: time.Now().Unix()}:
				default:
				}
			}
			return nil
		}, match)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.config.Logger.Error("badger subscription stopped", "snapshot", h.Name(), "error", err)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		r.config.Logger.Error("badger subscription panic", "error", err)
	}))

	return out, nil
}

func (r *Repository) addWatcher(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}

var _ core.Watchable = (*Repository)(nil)
