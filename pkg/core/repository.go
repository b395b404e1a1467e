package core

import (
	"context"
	"fmt"
	"time"
)

// SnapshotRepository stores full, point-in-time snapshots addressed by Handle.
// Implementations must keep the lexicographic ordering contract: within a
// kind, the latest snapshot is the one with the greatest name.
type SnapshotRepository interface {
	// Initialize ensures the underlying storage is ready (e.g. create directories, schema).
	Initialize(ctx context.Context) error

	// List returns the handles of the given kind, sorted by name.
	List(ctx context.Context, kind string) ([]Handle, error)

	// Latest returns the newest handle of the given kind by naming convention.
	Latest(ctx context.Context, kind string) (Handle, bool, error)

	// Read returns the payload of a snapshot or ErrSnapshotNotFound.
	Read(ctx context.Context, h Handle) ([]byte, error)

	// Write replaces the whole snapshot.
	Write(ctx context.Context, h Handle, data []byte) error

	// Duplicate copies a snapshot under a new name stamped with at (or the
	// first free second after it) and returns the new handle.
	Duplicate(ctx context.Context, h Handle, at time.Time) (Handle, error)

	// Close releases the underlying storage.
	Close() error
}

// Watchable is implemented by repositories able to notify snapshot changes.
type Watchable interface {
	Watch(ctx context.Context, h Handle) (<-chan Event, error)
}

// Codec encodes snapshots to bytes.
type Codec interface {
	// Ext is the file extension associated with the format (e.g. ".json").
	Ext() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// maxDuplicateTries bounds the search for a free name when duplicating.
const maxDuplicateTries = 3600

// FreeHandle returns the first handle of kind, stamped at or after at, for which
// exists reports false. Successive seconds are tried so the ordering contract holds.
func FreeHandle(kind string, at time.Time, exists func(Handle) (bool, error)) (Handle, error) {
	h := NewHandle(kind, at)
	for i := 0; i < maxDuplicateTries; i++ {
		taken, err := exists(h)
		if err != nil {
			return Handle{}, err
		}
		if !taken {
			return h, nil
		}
		if h, err = h.Next(); err != nil {
			return Handle{}, err
		}
	}
	return Handle{}, fmt.Errorf("%w: no free name for %s after %d tries", ErrSnapshotExists, kind, maxDuplicateTries)
}
