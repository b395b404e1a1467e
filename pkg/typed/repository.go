// Package typed provides type-safe snapshot stores on top of a raw
// core.SnapshotRepository and a core.Codec.
package typed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Store persists values of type T as snapshots of a single kind.
type Store[T any] struct {
	repo  core.SnapshotRepository
	codec core.Codec
	kind  string
}

// WalkStore stores walk snapshots.
type WalkStore = Store[core.Walk]

// TagStore stores tag gathering snapshots.
type TagStore = Store[core.TagCollection]

// DocumentStore stores batch collection snapshots.
type DocumentStore = Store[core.Batch]

// NewStore creates a store of kind backed by repo, encoding with codec.
func NewStore[T any](repo core.SnapshotRepository, codec core.Codec, kind string) (*Store[T], error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}
	return &Store[T]{repo: repo, codec: codec, kind: kind}, nil
}

// Kind returns the snapshot kind handled by the store.
func (s *Store[T]) Kind() string { return s.kind }

// Repository returns the underlying raw repository.
func (s *Store[T]) Repository() core.SnapshotRepository { return s.repo }

// NewHandle returns a handle of the store's kind stamped with at.
func (s *Store[T]) NewHandle(at time.Time) core.Handle {
	return core.NewHandle(s.kind, at)
}

// List returns the snapshots of the store's kind, sorted by name.
func (s *Store[T]) List(ctx context.Context) ([]core.Handle, error) {
	return s.repo.List(ctx, s.kind)
}

// Latest returns the newest snapshot by naming convention.
func (s *Store[T]) Latest(ctx context.Context) (core.Handle, bool, error) {
	return s.repo.Latest(ctx, s.kind)
}

// Load decodes the snapshot. Payloads that exist but cannot be decoded are
// reported as core.ErrCorruptSnapshot.
func (s *Store[T]) Load(ctx context.Context, h core.Handle) (T, error) {
	var v T
	if err := s.check(h); err != nil {
		return v, err
	}

	data, err := s.repo.Read(ctx, h)
	if err != nil {
		return v, err
	}
	if len(data) == 0 {
		return v, fmt.Errorf("%w: %s has no content", core.ErrCorruptSnapshot, h)
	}
	if err := s.codec.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", core.ErrCorruptSnapshot, h, err)
	}
	return v, nil
}

// Save replaces the whole snapshot with v.
func (s *Store[T]) Save(ctx context.Context, h core.Handle, v T) error {
	if err := s.check(h); err != nil {
		return err
	}
	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", h, err)
	}
	return s.repo.Write(ctx, h, data)
}

// Duplicate copies the snapshot under a new timestamped name.
func (s *Store[T]) Duplicate(ctx context.Context, h core.Handle, at time.Time) (core.Handle, error) {
	if err := s.check(h); err != nil {
		return core.Handle{}, err
	}
	return s.repo.Duplicate(ctx, h, at)
}

// Exists reports whether a snapshot is stored for h.
func (s *Store[T]) Exists(ctx context.Context, h core.Handle) (bool, error) {
	_, err := s.repo.Read(ctx, h)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrSnapshotNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store[T]) check(h core.Handle) error {
	if h.Kind != s.kind {
		return fmt.Errorf("%w: %s is not a %s snapshot", core.ErrInvalidHandle, h, s.kind)
	}
	return h.Validate()
}
