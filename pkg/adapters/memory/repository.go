// Package memory provides an in-process snapshot repository, useful for dry
// runs and tests. Snapshots do not survive the process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Repository keeps snapshots in a map and implements core.Watchable.
type Repository struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	handles   map[string]core.Handle
	watchers  map[string][]chan core.Event
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		snapshots: make(map[string][]byte),
		handles:   make(map[string]core.Handle),
		watchers:  make(map[string][]chan core.Event),
	}
}

func (r *Repository) Initialize(ctx context.Context) error { return nil }

func (r *Repository) List(ctx context.Context, kind string) ([]core.Handle, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []core.Handle
	for _, h := range r.handles {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	core.SortHandles(out)
	return out, nil
}

func (r *Repository) Latest(ctx context.Context, kind string) (core.Handle, bool, error) {
	hs, err := r.List(ctx, kind)
	if err != nil {
		return core.Handle{}, false, err
	}
	h, ok := core.LatestOf(hs)
	return h, ok, nil
}

func (r *Repository) Read(ctx context.Context, h core.Handle) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.snapshots[h.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, h)
	}
	return append([]byte(nil), data...), nil
}

func (r *Repository) Write(ctx context.Context, h core.Handle, data []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	_, existed := r.snapshots[h.Name()]
	r.snapshots[h.Name()] = append([]byte(nil), data...)
	r.handles[h.Name()] = h
	r.mu.Unlock()

	eType := core.EventModify
	if !existed {
		eType = core.EventCreate
	}

	// Sends happen under the read lock so a watcher cannot be closed mid-send.
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.watchers[h.Name()] {
		select {
		case ch <- core.Event{Type: eType, Handle: h, Timestamp: time.Now().Unix()}:
		default:
		}
	}
	return nil
}

func (r *Repository) Duplicate(ctx context.Context, h core.Handle, at time.Time) (core.Handle, error) {
	data, err := r.Read(ctx, h)
	if err != nil {
		return core.Handle{}, err
	}
	nh, err := core.FreeHandle(h.Kind, at, func(c core.Handle) (bool, error) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.snapshots[c.Name()]
		return ok, nil
	})
	if err != nil {
		return core.Handle{}, err
	}
	return nh, r.Write(ctx, nh, data)
}

// Watch notifies writes to h until ctx is done. Notifications are coalesced.
func (r *Repository) Watch(ctx context.Context, h core.Handle) (<-chan core.Event, error) {
	ch := make(chan core.Event, 1)
	r.mu.Lock()
	r.watchers[h.Name()] = append(r.watchers[h.Name()], ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		list := r.watchers[h.Name()]
		for i, c := range list {
			if c == ch {
				r.watchers[h.Name()] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (r *Repository) Close() error { return nil }

var _ core.SnapshotRepository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
