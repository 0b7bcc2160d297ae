// Package store provides the path-keyed document store behind the admin
// console. Values form a JSON tree addressed by slash-separated paths, and
// observers of a path receive the full value at that path whenever anything
// inside its subtree changes.
package store

import (
	"encoding/json"
	"strings"
)

// Snapshot is the full value at a path at one point in time. Value is
// JSON-shaped: map[string]any for branches, float64/string/bool for leaves,
// nil when nothing exists at the path.
type Snapshot struct {
	Path  string
	Value any
}

// Exists reports whether the path held any value when the snapshot was taken.
func (s Snapshot) Exists() bool { return s.Value != nil }

// ObserveFunc receives snapshots for an observed path. The first call happens
// during Observe itself with the current value; later calls happen after each
// mutation touching the path's subtree. Snapshots for one path arrive in
// order; callbacks must not block.
type ObserveFunc func(Snapshot)

type Store interface {
	// Observe registers fn for path and returns an unsubscribe func.
	Observe(path string, fn ObserveFunc) (unsubscribe func())
	// ReadOnce returns the current value at path.
	ReadOnce(path string) (Snapshot, error)
	// Write replaces the value at path. Writing nil is equivalent to Delete.
	Write(path string, value any) error
	// Delete removes the subtree at path. Deleting a missing path is a no-op.
	Delete(path string) error
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// withinSubtree reports whether a change at changed is visible from observed:
// either path is an ancestor of the other, or they are equal.
func withinSubtree(observed, changed string) bool {
	if observed == changed {
		return true
	}
	return strings.HasPrefix(changed, observed+"/") || strings.HasPrefix(observed, changed+"/")
}

// normalize round-trips a value through JSON so stored trees never alias
// caller memory and always use JSON-shaped types.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
