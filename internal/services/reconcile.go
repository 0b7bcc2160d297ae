package services

import (
	"sort"
	"strings"
)

// ActivityMatcher finds the activity record for a registered student. The
// matching policy is pluggable so the merge step can be tested and evolved
// independently of it.
type ActivityMatcher interface {
	Match(student RegisteredStudent, activities map[string]StudentActivity) (StudentActivity, bool)
}

// NewActivityMatcher returns the production policy: a two-phase lookup,
// first by normalized email key, then by normalized display name.
func NewActivityMatcher() ActivityMatcher { return emailNameMatcher{} }

type emailNameMatcher struct{}

func (emailNameMatcher) Match(student RegisteredStudent, activities map[string]StudentActivity) (StudentActivity, bool) {
	if student.Email != "" {
		if a, ok := activities[ActivityKey(student.Email)]; ok {
			return a, true
		}
	}

	// Name fallback. Keys are enumerated in sorted order so that duplicate
	// display names resolve the same way on every recompute; which record a
	// duplicate name "should" match remains undefined either way.
	want := normalizeName(student.Name)
	if want == "" {
		return StudentActivity{}, false
	}
	keys := make([]string, 0, len(activities))
	for k := range activities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if normalizeName(activities[k].Name) == want {
			return activities[k], true
		}
	}
	return StudentActivity{}, false
}

// ActivityKey maps an email to its storage key. Store paths cannot contain
// dots, so the client substitutes commas; the console must apply the same
// rule to find the record.
func ActivityKey(email string) string {
	return strings.ReplaceAll(email, ".", ",")
}

// normalizeName strips all whitespace and case-folds, matching the voting
// client's loose comparison.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// Reconcile joins every registered student with its activity record, or with
// a default "never voted" activity when nothing matches. Pure: the output is
// recomputed wholesale on every change to either input, always has exactly
// one element per registered student, and preserves input order.
func Reconcile(registered []RegisteredStudent, activities map[string]StudentActivity, matcher ActivityMatcher) []CombinedStudentData {
	out := make([]CombinedStudentData, 0, len(registered))
	for _, st := range registered {
		activity, ok := matcher.Match(st, activities)
		if !ok {
			activity = StudentActivity{Status: StatusNever, VotesCount: 0, LastActivity: 0}
		}
		out = append(out, CombinedStudentData{RegisteredStudent: st, Activity: activity})
	}
	return out
}

// ComputeStats derives the headline numbers from the latest vote and
// activity snapshots. TotalVotes sums every stored tally, including ones for
// categories or nominees outside the static configuration; filtering is an
// export concern, not a stats concern.
//
// PaidVotes is approximate: the data model has no authoritative paid flag,
// so anything beyond the free per-student votes is attributed to paid. Treat
// it as an estimate, not a ledger.
func ComputeStats(votes AllVotes, activities map[string]StudentActivity) Stats {
	var s Stats
	for _, nominees := range votes {
		for _, count := range nominees {
			s.TotalVotes += count
		}
	}
	for _, a := range activities {
		if a.VotesCount > 0 {
			s.TotalVoters++
			s.FreeVotes += a.VotesCount
		}
	}
	if paid := s.TotalVotes - s.FreeVotes; paid > 0 {
		s.PaidVotes = paid
	}
	return s
}
