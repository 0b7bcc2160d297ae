package store

import (
	"reflect"
	"testing"
)

func TestMemoryWriteReadDelete(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Write("settings/votingLocked", true); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	snap, err := s.ReadOnce("settings/votingLocked")
	if err != nil {
		t.Fatalf("ReadOnce returned error: %v", err)
	}
	if snap.Value != true {
		t.Fatalf("expected true, got %v", snap.Value)
	}

	// Parent assembles children.
	snap, _ = s.ReadOnce("settings")
	m, ok := snap.Value.(map[string]any)
	if !ok || m["votingLocked"] != true {
		t.Fatalf("expected settings subtree, got %v", snap.Value)
	}

	if err := s.Delete("settings/votingLocked"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	snap, _ = s.ReadOnce("settings/votingLocked")
	if snap.Exists() {
		t.Fatalf("expected missing value after delete, got %v", snap.Value)
	}
	// Empty branches are pruned, not left as empty maps.
	snap, _ = s.ReadOnce("settings")
	if snap.Exists() {
		t.Fatalf("expected settings pruned, got %v", snap.Value)
	}
}

func TestMemoryWriteReplacesSubtree(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Write("categoryVotes", map[string]any{"A": map[string]any{"x": 1, "y": 2}}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write("categoryVotes", map[string]any{"B": map[string]any{"z": 3}}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	snap, _ := s.ReadOnce("categoryVotes")
	want := map[string]any{"B": map[string]any{"z": float64(3)}}
	if !reflect.DeepEqual(snap.Value, want) {
		t.Fatalf("expected %v, got %v", want, snap.Value)
	}
}

func TestMemoryWriteNilDeletes(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Write("registeredStudents/student1", map[string]any{"name": "Jane"}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write("registeredStudents/student1", nil); err != nil {
		t.Fatalf("Write nil returned error: %v", err)
	}
	snap, _ := s.ReadOnce("registeredStudents/student1")
	if snap.Exists() {
		t.Fatalf("expected deleted, got %v", snap.Value)
	}
}

func TestMemoryObserveDeliversCurrentThenUpdates(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Write("registeredStudents/student1", map[string]any{"name": "Jane"})

	var got []Snapshot
	unsub := s.Observe("registeredStudents", func(snap Snapshot) { got = append(got, snap) })

	if len(got) != 1 {
		t.Fatalf("expected immediate snapshot, got %d", len(got))
	}
	if !got[0].Exists() {
		t.Fatalf("expected initial value, got none")
	}

	// Child write notifies the parent observer with the full parent value.
	_ = s.Write("registeredStudents/student2", map[string]any{"name": "John"})
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	m := got[1].Value.(map[string]any)
	if len(m) != 2 {
		t.Fatalf("expected both students in snapshot, got %v", m)
	}

	// Deleting the whole subtree delivers a missing snapshot.
	_ = s.Delete("registeredStudents")
	if len(got) != 3 || got[2].Exists() {
		t.Fatalf("expected missing snapshot after delete, got %+v", got)
	}

	unsub()
	_ = s.Write("registeredStudents/student3", map[string]any{"name": "Ann"})
	if len(got) != 3 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(got))
	}
}

func TestMemoryObserveUnrelatedPathsSilent(t *testing.T) {
	s := NewMemoryStore()
	calls := 0
	_ = s.Observe("categoryVotes", func(Snapshot) { calls++ })
	_ = s.Write("students/jane,doe@x,com", map[string]any{"votesCount": 3})
	if calls != 1 {
		t.Fatalf("expected only the initial delivery, got %d", calls)
	}
}

func TestMemorySnapshotsDoNotAliasStore(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Write("settings", map[string]any{"votingLocked": false})
	snap, _ := s.ReadOnce("settings")
	snap.Value.(map[string]any)["votingLocked"] = true
	again, _ := s.ReadOnce("settings")
	if again.Value.(map[string]any)["votingLocked"] != false {
		t.Fatalf("mutating a snapshot leaked into the store")
	}
}
