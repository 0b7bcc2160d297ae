package store

import (
	"sort"
	"sync"
)

// MemoryStore is the in-process implementation of Store. It backs tests and
// single-node deployments that do not need the console state to survive a
// restart.
type MemoryStore struct {
	mu        sync.Mutex
	root      map[string]any
	observers map[int]*observer
	nextID    int
}

type observer struct {
	path string
	fn   ObserveFunc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root:      map[string]any{},
		observers: map[int]*observer{},
	}
}

func (s *MemoryStore) Observe(path string, fn ObserveFunc) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = &observer{path: path, fn: fn}
	snap := Snapshot{Path: path, Value: copyValue(valueAt(s.root, splitPath(path)))}
	s.mu.Unlock()

	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) ReadOnce(path string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Path: path, Value: copyValue(valueAt(s.root, splitPath(path)))}, nil
}

func (s *MemoryStore) Write(path string, value any) error {
	if value == nil {
		return s.Delete(path)
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	parts := splitPath(path)
	if len(parts) == 0 {
		m, ok := v.(map[string]any)
		if !ok {
			m = map[string]any{}
		}
		s.root = m
	} else {
		setNode(s.root, parts, v)
	}
	pending := s.pendingLocked(path)
	s.mu.Unlock()

	deliver(pending)
	return nil
}

func (s *MemoryStore) Delete(path string) error {
	s.mu.Lock()
	parts := splitPath(path)
	changed := false
	if len(parts) == 0 {
		changed = len(s.root) > 0
		s.root = map[string]any{}
	} else {
		changed = deleteNode(s.root, parts)
	}
	var pending []notification
	if changed {
		pending = s.pendingLocked(path)
	}
	s.mu.Unlock()

	deliver(pending)
	return nil
}

type notification struct {
	fn   ObserveFunc
	snap Snapshot
}

// pendingLocked collects snapshots for every observer whose subtree overlaps
// the changed path. Called with mu held; delivery happens after unlock so
// callbacks may read the store again.
func (s *MemoryStore) pendingLocked(changed string) []notification {
	ids := make([]int, 0, len(s.observers))
	for id, o := range s.observers {
		if withinSubtree(o.path, changed) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]notification, 0, len(ids))
	for _, id := range ids {
		o := s.observers[id]
		out = append(out, notification{
			fn:   o.fn,
			snap: Snapshot{Path: o.path, Value: copyValue(valueAt(s.root, splitPath(o.path)))},
		})
	}
	return out
}

func deliver(pending []notification) {
	for _, n := range pending {
		n.fn(n.snap)
	}
}

func valueAt(root map[string]any, parts []string) any {
	var cur any = root
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[p]
		if !ok {
			return nil
		}
	}
	return cur
}

// setNode replaces the node at parts, converting leaf ancestors into branches
// as needed.
func setNode(m map[string]any, parts []string, value any) {
	for len(parts) > 1 {
		child, ok := m[parts[0]].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[parts[0]] = child
		}
		m = child
		parts = parts[1:]
	}
	m[parts[0]] = value
}

// deleteNode removes the node at parts and prunes branches left empty, so a
// deleted collection reads back as missing rather than as an empty map.
func deleteNode(m map[string]any, parts []string) bool {
	if len(parts) == 1 {
		if _, ok := m[parts[0]]; !ok {
			return false
		}
		delete(m, parts[0])
		return true
	}
	child, ok := m[parts[0]].(map[string]any)
	if !ok {
		return false
	}
	changed := deleteNode(child, parts[1:])
	if changed && len(child) == 0 {
		delete(m, parts[0])
	}
	return changed
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, cv := range t {
			out[k] = copyValue(cv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, cv := range t {
			out[i] = copyValue(cv)
		}
		return out
	default:
		return v
	}
}

var _ Store = (*MemoryStore)(nil)
