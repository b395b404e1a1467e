package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// StampLayout is the timestamp embedded in snapshot names (YY-MM-DD--HH-MM-SS).
	// Names of one kind sort lexicographically in chronological order.
	StampLayout = "06-01-02--15-04-05"
	// StampLen is the length of a formatted stamp.
	StampLen = len(StampLayout)

	// KindWalk is the default kind of walk snapshots.
	KindWalk = "mdwalker"
	// KindTags is the kind of tag snapshots; they share the stamp of their walk.
	KindTags = "tag_data"
	// KindDocument is the kind of batch collection snapshots.
	KindDocument = "document"
)

var kindPattern = regexp.MustCompile(`^[a-z][a-z_]*$`)

// Handle names one snapshot: a kind plus a sortable timestamp.
type Handle struct {
	Kind  string
	Stamp string
}

// NewHandle creates a handle of the given kind stamped with at (local time).
func NewHandle(kind string, at time.Time) Handle {
	return Handle{Kind: kind, Stamp: at.Format(StampLayout)}
}

// ValidateKind checks that kind can prefix a snapshot name unambiguously.
func ValidateKind(kind string) error {
	if !kindPattern.MatchString(kind) {
		return fmt.Errorf("%w: kind %q must match %s", ErrInvalidHandle, kind, kindPattern)
	}
	return nil
}

// ParseName parses a snapshot name of the form <kind><stamp>[.ext].
// Directories and the extension are ignored.
func ParseName(name string) (Handle, error) {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if len(base) <= StampLen {
		return Handle{}, fmt.Errorf("%w: %q is too short", ErrInvalidHandle, name)
	}
	h := Handle{Kind: base[:len(base)-StampLen], Stamp: base[len(base)-StampLen:]}
	if err := h.Validate(); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// Validate checks the kind and the stamp of the handle.
func (h Handle) Validate() error {
	if err := ValidateKind(h.Kind); err != nil {
		return err
	}
	if _, err := time.ParseInLocation(StampLayout, h.Stamp, time.Local); err != nil {
		return fmt.Errorf("%w: stamp %q: %v", ErrInvalidHandle, h.Stamp, err)
	}
	return nil
}

// Name is the storage name of the snapshot, without extension.
func (h Handle) Name() string {
	return h.Kind + h.Stamp
}

func (h Handle) String() string {
	return h.Name()
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h.Kind == "" && h.Stamp == ""
}

// Time returns the instant embedded in the stamp.
func (h Handle) Time() (time.Time, error) {
	return time.ParseInLocation(StampLayout, h.Stamp, time.Local)
}

// WithKind returns a handle of another kind sharing this stamp, e.g. the tag
// snapshot documenting a walk.
func (h Handle) WithKind(kind string) Handle {
	return Handle{Kind: kind, Stamp: h.Stamp}
}

// Next returns the handle stamped one second later.
func (h Handle) Next() (Handle, error) {
	t, err := h.Time()
	if err != nil {
		return Handle{}, err
	}
	return NewHandle(h.Kind, t.Add(time.Second)), nil
}

// SortHandles orders handles by name, which is chronological within a kind.
func SortHandles(hs []Handle) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Name() < hs[j].Name() })
}

// LatestOf returns the lexicographically last handle.
func LatestOf(hs []Handle) (Handle, bool) {
	if len(hs) == 0 {
		return Handle{}, false
	}
	latest := hs[0]
	for _, h := range hs[1:] {
		if h.Name() > latest.Name() {
			latest = h
		}
	}
	return latest, true
}
