package services

import (
	"strings"
	"testing"
	"time"

	"github.com/dipawards/console/internal/store"
)

type authStubStore struct {
	hash     string
	hasHash  bool
	readErr  error
	writeErr error
	writes   []map[string]any
}

func (s *authStubStore) ReadOnce(path string) (store.Snapshot, error) {
	if s.readErr != nil {
		return store.Snapshot{}, s.readErr
	}
	if path != PathAdminPasswordHash || !s.hasHash {
		return store.Snapshot{Path: path}, nil
	}
	return store.Snapshot{Path: path, Value: s.hash}, nil
}

func (s *authStubStore) Write(path string, value any) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	entry, _ := value.(map[string]any)
	if entry == nil {
		entry = map[string]any{}
	}
	entry["_path"] = path
	s.writes = append(s.writes, entry)
	return nil
}

func newTestAuthService(stub *authStubStore) *AuthService {
	svc := NewAuthService(stub, func(sid string, ttl time.Duration) (string, error) {
		return "token:" + sid, nil
	})
	svc.newSessionID = func() string { return "sess1" }
	base := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return base }
	svc.audit.now = svc.now
	return svc
}

func TestAttemptLoginAccepted(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)

	res, st, err := svc.AttemptLogin("correct-horse", AttemptState{Count: 2, LastAttempt: time.Unix(1, 0)})
	if err != nil {
		t.Fatalf("AttemptLogin returned error: %v", err)
	}
	if res.Token != "token:sess1" || res.SessionID != "sess1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if st.Count != 0 {
		t.Fatalf("expected counter reset on success, got %d", st.Count)
	}
	if len(stub.writes) != 1 || stub.writes[0]["action"] != ActionLogin || stub.writes[0]["success"] != true {
		t.Fatalf("expected one login audit entry, got %+v", stub.writes)
	}
}

func TestAttemptLoginTrimsCandidate(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)
	if _, _, err := svc.AttemptLogin("  correct-horse  ", AttemptState{}); err != nil {
		t.Fatalf("expected trimmed candidate to match: %v", err)
	}
}

func TestWrongSecretIncrementsWithoutLockout(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)

	st := AttemptState{}
	for i := 1; i < MaxAttempts; i++ {
		var err error
		_, st, err = svc.AttemptLogin("wrong-secret", st)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorUnauthorized {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i, err)
		}
		if st.Count != i {
			t.Fatalf("attempt %d: expected count %d, got %d", i, i, st.Count)
		}
		if se.RemainingAttempts != MaxAttempts-i {
			t.Fatalf("attempt %d: expected %d remaining, got %d", i, MaxAttempts-i, se.RemainingAttempts)
		}
	}
	if len(stub.writes) != MaxAttempts-1 {
		t.Fatalf("expected %d login_failed entries, got %d", MaxAttempts-1, len(stub.writes))
	}
	last := stub.writes[len(stub.writes)-1]
	if last["action"] != ActionLoginFailed || last["success"] != false {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)

	st := AttemptState{}
	for i := 0; i < MaxAttempts; i++ {
		_, st, _ = svc.AttemptLogin("wrong-secret", st)
	}
	if st.Count != MaxAttempts {
		t.Fatalf("expected count %d, got %d", MaxAttempts, st.Count)
	}
	audits := len(stub.writes)

	_, newSt, err := svc.AttemptLogin("wrong-secret", st)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorLocked {
		t.Fatalf("expected locked, got %v", err)
	}
	if se.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", se.RetryAfter)
	}
	if newSt != st {
		t.Fatalf("lockout must not mutate state: %+v vs %+v", newSt, st)
	}
	if len(stub.writes) != audits {
		t.Fatalf("lockout rejection must not write audit entries")
	}
}

func TestLockoutWindowElapsesThenOneFreshAttempt(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)

	base := time.Unix(1_700_000_000, 0)
	st := AttemptState{Count: MaxAttempts, LastAttempt: base}
	svc.now = func() time.Time { return base.Add(LockoutWindow) }
	svc.audit.now = svc.now

	// The very next attempt is evaluated as if count == 0 — even a wrong one.
	_, newSt, err := svc.AttemptLogin("wrong-secret", st)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected fresh evaluation after window, got %v", err)
	}
	if newSt.Count != 1 {
		t.Fatalf("expected count 1 after reset+failure, got %d", newSt.Count)
	}

	// And a correct one right after the window succeeds outright.
	res, _, err := svc.AttemptLogin("correct-horse", st)
	if err != nil || res == nil {
		t.Fatalf("expected success after window, got %v", err)
	}
}

func TestShortCandidateRejectedWithoutAccounting(t *testing.T) {
	stub := &authStubStore{hash: HashSecret("correct-horse"), hasHash: true}
	svc := newTestAuthService(stub)

	st := AttemptState{Count: 1, LastAttempt: time.Unix(5, 0)}
	_, newSt, err := svc.AttemptLogin("  ab  ", st)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	if newSt != st {
		t.Fatalf("validation failure must not mutate state")
	}
	if len(stub.writes) != 0 {
		t.Fatalf("validation failure must not write audit entries")
	}
}

func TestMissingHashFailsBeforeAccounting(t *testing.T) {
	stub := &authStubStore{hasHash: false}
	svc := newTestAuthService(stub)

	st := AttemptState{Count: 1, LastAttempt: time.Unix(5, 0)}
	_, newSt, err := svc.AttemptLogin("whatever-secret", st)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotConfigured {
		t.Fatalf("expected not_configured, got %v", err)
	}
	if newSt != st || len(stub.writes) != 0 {
		t.Fatalf("not-configured must not mutate state or audit")
	}
}

func TestHashSecretDeterministic(t *testing.T) {
	a := HashSecret("secret-one")
	b := HashSecret("secret-one")
	if a != b {
		t.Fatalf("digest must be deterministic")
	}
	if a == HashSecret("secret-two") {
		t.Fatalf("distinct secrets must not collide trivially")
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Fatalf("expected lowercase hex digest, got %q", a)
	}
}
