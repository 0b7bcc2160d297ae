package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dipawards/console/internal/store"
)

// AuditWriter is the slice of the store the audit log needs.
type AuditWriter interface {
	Write(path string, value any) error
}

// auditLog appends entries at adminLogs/<epochMillis>. Entries are
// append-only; nothing in the console ever rewrites or deletes them.
// Keys collide only if two entries land in the same millisecond, which the
// sparse, human-initiated write rate makes a non-issue.
type auditLog struct {
	store AuditWriter
	now   func() time.Time
}

func newAuditLog(w AuditWriter) *auditLog {
	return &auditLog{store: w, now: func() time.Time { return time.Now().UTC() }}
}

// append writes one entry. attempts is recorded only when positive (failed
// login accounting); other actions carry just action/timestamp/success.
func (a *auditLog) append(action string, success bool, attempts int) error {
	ts := a.now().UnixMilli()
	entry := map[string]any{
		"action":    action,
		"timestamp": ts,
		"success":   success,
	}
	if attempts > 0 {
		entry["attempts"] = attempts
	}
	if err := a.store.Write(fmt.Sprintf("%s/%d", PathAdminLogs, ts), entry); err != nil {
		return fmt.Errorf("append audit entry %s: %w", action, err)
	}
	return nil
}

// decodeValue converts a JSON-shaped store value into a typed destination.
func decodeValue(v any, dst any) error {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

var _ AuditWriter = (store.Store)(nil)
