package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dipawards/console/internal/store"
)

// ModerationStore is the slice of the store moderation actions need.
type ModerationStore interface {
	ReadOnce(path string) (store.Snapshot, error)
	Write(path string, value any) error
	Delete(path string) error
}

// ModerationService implements the administrative commands. Each command is
// a single attempt: store failures surface to the caller and are never
// retried, and no success audit entry is written for an action that failed
// partway.
type ModerationService struct {
	store      ModerationStore
	audit      *auditLog
	categories []Category
}

func NewModerationService(st ModerationStore, categories []Category) *ModerationService {
	return &ModerationService{
		store:      st,
		audit:      newAuditLog(st),
		categories: categories,
	}
}

// ToggleVotingLock flips settings/votingLocked and returns the new value.
// The audit tag names the direction the flag moved.
func (s *ModerationService) ToggleVotingLock() (bool, error) {
	snap, err := s.store.ReadOnce(PathVotingLocked)
	if err != nil {
		return false, fmt.Errorf("read voting lock: %w", err)
	}
	locked := snap.Value == true
	newLocked := !locked
	if err := s.store.Write(PathVotingLocked, newLocked); err != nil {
		return false, fmt.Errorf("write voting lock: %w", err)
	}
	action := ActionVotingUnlocked
	if newLocked {
		action = ActionVotingLocked
	}
	if err := s.audit.append(action, true, 0); err != nil {
		return false, err
	}
	return newLocked, nil
}

// ResetAllVotes wipes the tallies, the per-user vote choices, and the
// activity records, then clears every registered student's hasVoted flag.
// Irreversible; callers must have obtained explicit confirmation. The
// votes_reset audit entry is written only after every step succeeded.
func (s *ModerationService) ResetAllVotes() error {
	for _, path := range []string{PathCategoryVotes, PathUserVotes, PathStudentActivity} {
		if err := s.store.Delete(path); err != nil {
			return fmt.Errorf("reset votes: delete %s: %w", path, err)
		}
	}

	snap, err := s.store.ReadOnce(PathRegisteredStudents)
	if err != nil {
		return fmt.Errorf("reset votes: read registered students: %w", err)
	}
	if records, ok := snap.Value.(map[string]any); ok {
		// Merge into the existing collection: every student keeps its other
		// fields, and students missing from the update set are not dropped.
		merged := make(map[string]any, len(records))
		for id, v := range records {
			rec, ok := v.(map[string]any)
			if !ok {
				rec = map[string]any{}
			}
			rec["hasVoted"] = false
			merged[id] = rec
		}
		if err := s.store.Write(PathRegisteredStudents, merged); err != nil {
			return fmt.Errorf("reset votes: clear hasVoted: %w", err)
		}
	}

	return s.audit.append(ActionVotesReset, true, 0)
}

var studentIDPattern = regexp.MustCompile(`^student(\d+)$`)

// AddStudent registers a new student and returns the assigned id. Ids are
// student<N> where N is one past the highest N currently in the collection;
// gaps left by deletions are never refilled. Two admins adding concurrently
// can compute the same id — an accepted risk for a single-admin tool.
func (s *ModerationService) AddStudent(name, email string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewInvalidError("student name is required")
	}
	email = strings.TrimSpace(email)

	snap, err := s.store.ReadOnce(PathRegisteredStudents)
	if err != nil {
		return "", fmt.Errorf("add student: read registered students: %w", err)
	}
	maxID := 0
	if records, ok := snap.Value.(map[string]any); ok {
		for id := range records {
			m := studentIDPattern.FindStringSubmatch(id)
			if m == nil {
				continue
			}
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxID {
				maxID = n
			}
		}
	}
	id := fmt.Sprintf("student%d", maxID+1)

	record := map[string]any{
		"name":     name,
		"hasVoted": false,
	}
	if email != "" {
		record["email"] = email
	} else {
		record["email"] = nil
	}
	if err := s.store.Write(PathRegisteredStudents+"/"+id, record); err != nil {
		return "", fmt.Errorf("add student: write %s: %w", id, err)
	}
	return id, nil
}

// DeleteStudent removes a registration by id. Irreversible; callers must
// have obtained explicit confirmation. Unlike the other moderation actions
// this writes no audit entry, mirroring the voting client's admin surface.
func (s *ModerationService) DeleteStudent(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return NewInvalidError("student id is required")
	}
	if err := s.store.Delete(PathRegisteredStudents + "/" + id); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}

// ChangePassword always refuses: secret rotation is delegated to an
// out-of-band administrative channel. The refusal itself is audited with
// success=false.
func (s *ModerationService) ChangePassword() error {
	if err := s.audit.append(ActionPasswordChange, false, 0); err != nil {
		return err
	}
	return NewInvalidError("passwords must be changed by a system administrator through the store console")
}

// ExportResults renders the current tallies as CSV over the static category
// configuration: every configured (category, nominee) pair gets a row, with
// zero for missing tallies, and tallies outside the configuration are
// omitted. Text fields are double-quoted unconditionally, which is why the
// rows are formatted by hand rather than through encoding/csv (csv.Writer
// only quotes when forced to).
func (s *ModerationService) ExportResults() ([]byte, error) {
	snap, err := s.store.ReadOnce(PathCategoryVotes)
	if err != nil {
		return nil, fmt.Errorf("export results: read tallies: %w", err)
	}
	var votes AllVotes
	if err := decodeValue(snap.Value, &votes); err != nil {
		return nil, fmt.Errorf("export results: decode tallies: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("Category,Nominee,Votes\n")
	for _, c := range s.categories {
		tallies := votes[c.Name]
		for _, nominee := range c.Nominees {
			fmt.Fprintf(&buf, "%q,%q,%d\n", c.Name, nominee, tallies[nominee])
		}
	}

	if err := s.audit.append(ActionResultsExported, true, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
