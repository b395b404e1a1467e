// Package core holds the domain of the walker: artists, walks, tag documents
// and the ports through which snapshots are stored.
package core

import (
	"strings"
)

// Artist is an entity of the external similarity graph.
// It is treated as an immutable value once fetched from the source.
type Artist struct {
	Name string `json:"name" yaml:"name"`
	MBID string `json:"mbid,omitempty" yaml:"mbid,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Key identifies an artist. Names are case-insensitive on the source side.
func (a Artist) Key() string {
	return strings.ToLower(strings.TrimSpace(a.Name))
}

// Same reports whether a and b refer to the same artist.
func (a Artist) Same(b Artist) bool {
	return a.Key() == b.Key()
}

func (a Artist) String() string {
	return a.Name
}

// Walk is the ordered sequence of visited artists, oldest first.
// Revisits are valid and are never deduplicated.
type Walk []Artist

// Tail returns the most recently visited artist.
func (w Walk) Tail() (Artist, bool) {
	return w.FromTail(1)
}

// FromTail returns the artist at offset positions from the end of the walk,
// where offset 1 is the tail, 2 the one before it, and so on.
func (w Walk) FromTail(offset int) (Artist, bool) {
	if offset < 1 || offset > len(w) {
		return Artist{}, false
	}
	return w[len(w)-offset], true
}

// Clone returns a copy that does not share the backing array.
func (w Walk) Clone() Walk {
	if w == nil {
		return nil
	}
	out := make(Walk, len(w))
	copy(out, w)
	return out
}

// Tag is a descriptive label attached to an artist with its weight.
type Tag struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

// TagDocument is the ordered list of tags gathered for one artist.
type TagDocument struct {
	Artist Artist `json:"artist" yaml:"artist"`
	Tags   []Tag  `json:"tags" yaml:"tags"`
}

// Head returns the names of the first n tags.
func (d TagDocument) Head(n int) []string {
	if n > len(d.Tags) {
		n = len(d.Tags)
	}
	names := make([]string, 0, n)
	for _, t := range d.Tags[:n] {
		names = append(names, t.Name)
	}
	return names
}

// TagCollection holds tag documents in walk order, one per gathered artist.
type TagCollection []TagDocument

// Batch is the result of a long-running tag collection over several artist
// lists: the documents plus the number of tags found for each of them.
type Batch struct {
	Documents []TagDocument `json:"documents" yaml:"documents"`
	TagCounts []int         `json:"tag_counts" yaml:"tag_counts"`
}

// EventType represents the type of change to a snapshot.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored snapshot.
type Event struct {
	Type      EventType
	Handle    Handle
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Handle.Name()
}
