package core

import "errors"

// Common errors.
var (
	// ErrSourceUnavailable wraps network and API failures of the similarity source.
	ErrSourceUnavailable = errors.New("similarity source unavailable")
	// ErrArtistNotFound is returned when the source does not know the artist.
	ErrArtistNotFound = errors.New("artist not found")
	// ErrCorruptSnapshot is returned when a snapshot exists but cannot be decoded.
	ErrCorruptSnapshot = errors.New("snapshot is empty or damaged")
	// ErrSnapshotNotFound is returned when no snapshot exists for a handle.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSnapshotExists is returned when a write would clobber a snapshot that must not be replaced.
	ErrSnapshotExists = errors.New("snapshot already exists")
	// ErrEmptyNeighborhood is returned when no artist of the walk history yields neighbors.
	ErrEmptyNeighborhood = errors.New("empty neighborhood")
	// ErrMissingWalkState is returned by operations invoked before a walk is loaded.
	ErrMissingWalkState = errors.New("no walk data loaded")
	// ErrCancelled is returned when the user cancels an interactive prompt.
	ErrCancelled = errors.New("cancelled")
	// ErrInvalidHandle is returned for malformed snapshot names or kinds.
	ErrInvalidHandle = errors.New("invalid snapshot handle")
)
