package services

import (
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/dipawards/console/internal/store"
)

// Session owns one admin session's view of the event: the five store
// subscriptions, the latest known snapshot of each stream, and the derived
// combined/stats view. Streams arrive independently and in any relative
// order; every delivery triggers a full recompute from whatever the latest
// snapshots are, so the derived view never assumes the streams are aligned.
//
// Lifecycle is explicit: Start subscribes, Stop unsubscribes. A Session is
// created at login and torn down at logout.
type Session struct {
	ID      string
	store   store.Store
	matcher ActivityMatcher

	mu           sync.RWMutex
	registered   []RegisteredStudent
	activities   map[string]StudentActivity
	votes        AllVotes
	votingLocked bool
	logs         []SecurityLog
	students     []CombinedStudentData
	stats        Stats
	unsubs       []func()
}

func NewSession(st store.Store, matcher ActivityMatcher) *Session {
	return &Session{
		ID:         uuid.NewString(),
		store:      st,
		matcher:    matcher,
		activities: map[string]StudentActivity{},
		votes:      AllVotes{},
	}
}

// Start opens all observation streams. Each callback fires immediately with
// the current value, so the session is fully populated on return when the
// store delivers synchronously.
func (s *Session) Start() {
	s.unsubs = []func(){
		s.store.Observe(PathRegisteredStudents, s.onRegistered),
		s.store.Observe(PathStudentActivity, s.onActivity),
		s.store.Observe(PathCategoryVotes, s.onVotes),
		s.store.Observe(PathVotingLocked, s.onVotingLocked),
		s.store.Observe(PathAdminLogs, s.onAdminLogs),
	}
}

// Stop tears down every subscription. Safe to call more than once.
func (s *Session) Stop() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// State returns a copy of the current session-visible view.
func (s *Session) State() DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make(AllVotes, len(s.votes))
	for cat, nominees := range s.votes {
		m := make(map[string]int, len(nominees))
		for n, c := range nominees {
			m[n] = c
		}
		votes[cat] = m
	}
	return DashboardState{
		Stats:        s.stats,
		Students:     append([]CombinedStudentData(nil), s.students...),
		AllVotes:     votes,
		VotingLocked: s.votingLocked,
		SecurityLogs: append([]SecurityLog(nil), s.logs...),
	}
}

func (s *Session) onRegistered(snap store.Snapshot) {
	records := map[string]struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		HasVoted bool   `json:"hasVoted"`
	}{}
	if err := decodeValue(snap.Value, &records); err != nil {
		log.Printf("session %s: decode registered students: %v", s.ID, err)
		return
	}

	registered := make([]RegisteredStudent, 0, len(records))
	for id, rec := range records {
		name := rec.Name
		if name == "" {
			name = "Unnamed"
		}
		registered = append(registered, RegisteredStudent{
			ID:       id,
			Name:     name,
			Email:    rec.Email,
			HasVoted: rec.HasVoted,
		})
	}
	sort.Slice(registered, func(i, j int) bool {
		return lessStudentID(registered[i].ID, registered[j].ID)
	})

	s.mu.Lock()
	s.registered = registered
	s.recomputeLocked()
	s.mu.Unlock()
}

func (s *Session) onActivity(snap store.Snapshot) {
	activities := map[string]StudentActivity{}
	if err := decodeValue(snap.Value, &activities); err != nil {
		log.Printf("session %s: decode student activity: %v", s.ID, err)
		return
	}

	s.mu.Lock()
	s.activities = activities
	s.recomputeLocked()
	s.mu.Unlock()
}

func (s *Session) onVotes(snap store.Snapshot) {
	votes := AllVotes{}
	if err := decodeValue(snap.Value, &votes); err != nil {
		log.Printf("session %s: decode vote tallies: %v", s.ID, err)
		return
	}

	s.mu.Lock()
	s.votes = votes
	s.recomputeLocked()
	s.mu.Unlock()
}

func (s *Session) onVotingLocked(snap store.Snapshot) {
	s.mu.Lock()
	s.votingLocked = snap.Value == true
	s.mu.Unlock()
}

func (s *Session) onAdminLogs(snap store.Snapshot) {
	entries := map[string]SecurityLog{}
	if err := decodeValue(snap.Value, &entries); err != nil {
		log.Printf("session %s: decode admin logs: %v", s.ID, err)
		return
	}

	logs := make([]SecurityLog, 0, len(entries))
	for key, e := range entries {
		e.Key = key
		logs = append(logs, e)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Timestamp > logs[j].Timestamp })
	if len(logs) > securityLogLimit {
		logs = logs[:securityLogLimit]
	}

	s.mu.Lock()
	s.logs = logs
	s.mu.Unlock()
}

// securityLogLimit caps the session view, not storage: the log itself is
// append-only and unbounded.
const securityLogLimit = 20

// recomputeLocked rebuilds the derived view from the latest snapshots.
// No incremental patching: both outputs are cheap at event scale and a full
// recompute cannot drift from its inputs. Called with mu held.
func (s *Session) recomputeLocked() {
	s.students = Reconcile(s.registered, s.activities, s.matcher)
	s.stats = ComputeStats(s.votes, s.activities)
}

// lessStudentID orders student<N> ids numerically, everything else
// lexicographically after them.
func lessStudentID(a, b string) bool {
	am := studentIDPattern.FindStringSubmatch(a)
	bm := studentIDPattern.FindStringSubmatch(b)
	switch {
	case am != nil && bm != nil:
		an, _ := strconv.Atoi(am[1])
		bn, _ := strconv.Atoi(bm[1])
		if an != bn {
			return an < bn
		}
		return a < b
	case am != nil:
		return true
	case bm != nil:
		return false
	default:
		return a < b
	}
}
