package services

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/dipawards/console/internal/store"
)

// Login attempt policy.
const (
	MaxAttempts     = 3
	LockoutWindow   = 5 * time.Minute
	MinSecretLength = 6
)

// AuthStore is the slice of the store the login governor needs.
type AuthStore interface {
	ReadOnce(path string) (store.Snapshot, error)
	Write(path string, value any) error
}

// TokenSigner mints a session token for a freshly created session id.
type TokenSigner func(sessionID string, ttl time.Duration) (string, error)

// AttemptState is the per-admin-session failed-attempt counter. It is never
// persisted; it resets on success or once the lockout window has elapsed.
type AttemptState struct {
	Count       int
	LastAttempt time.Time
}

// LoginResult is returned on an accepted attempt.
type LoginResult struct {
	SessionID string
	Token     string
}

// AuthService validates a candidate admin secret against the hash stored at
// settings/adminPasswordHash and enforces the attempt/lockout machine:
// after MaxAttempts consecutive failures, further attempts are rejected
// until LockoutWindow has elapsed since the last failure, after which the
// counter resets and exactly one fresh attempt is admitted.
type AuthService struct {
	store        AuthStore
	audit        *auditLog
	now          func() time.Time
	newSessionID func() string
	signToken    TokenSigner
	tokenTTL     time.Duration
}

func NewAuthService(st AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:        st,
		audit:        newAuditLog(st),
		now:          func() time.Time { return time.Now().UTC() },
		newSessionID: uuid.NewString,
		signToken:    signer,
		tokenTTL:     12 * time.Hour,
	}
}

// AttemptLogin evaluates one candidate secret. It returns the (possibly
// updated) attempt state alongside the outcome; callers own the state and
// pass it back on the next attempt.
//
// The stored hash is fetched on every call, never cached, so an out-of-band
// rotation takes effect immediately.
func (s *AuthService) AttemptLogin(candidate string, st AttemptState) (*LoginResult, AttemptState, error) {
	now := s.now()

	if st.Count >= MaxAttempts {
		since := now.Sub(st.LastAttempt)
		if since < LockoutWindow {
			remaining := LockoutWindow - since
			minutes := int(math.Ceil(remaining.Minutes()))
			msg := fmt.Sprintf("too many failed attempts, wait %d min", minutes)
			return nil, st, NewLockedError(msg, remaining)
		}
		// Window elapsed: the counter resets before this attempt is
		// evaluated, admitting exactly one fresh try.
		st = AttemptState{}
	}

	candidate = strings.TrimSpace(candidate)
	if len(candidate) < MinSecretLength {
		return nil, st, NewInvalidError("password must be at least 6 characters")
	}

	snap, err := s.store.ReadOnce(PathAdminPasswordHash)
	if err != nil {
		return nil, st, fmt.Errorf("read admin password hash: %w", err)
	}
	if !snap.Exists() {
		// Fails before attempt accounting: no state change, no audit entry.
		return nil, st, NewNotConfiguredError("admin password not configured")
	}
	storedHash, _ := snap.Value.(string)

	if HashSecret(candidate) == storedHash {
		if err := s.audit.append(ActionLogin, true, 0); err != nil {
			return nil, st, err
		}
		sid := s.newSessionID()
		token, err := s.signToken(sid, s.tokenTTL)
		if err != nil {
			return nil, st, fmt.Errorf("sign session token: %w", err)
		}
		return &LoginResult{SessionID: sid, Token: token}, AttemptState{}, nil
	}

	st.Count++
	st.LastAttempt = now
	if err := s.audit.append(ActionLoginFailed, false, st.Count); err != nil {
		return nil, st, err
	}
	remaining := MaxAttempts - st.Count
	if remaining > 0 {
		msg := fmt.Sprintf("incorrect password, %d attempt(s) left", remaining)
		return nil, st, NewWrongSecretError(msg, remaining)
	}
	return nil, st, NewWrongSecretError("account locked for 5 minutes", 0)
}

// HashSecret is the one-way transform applied to the admin secret. The store
// holds the hex digest; comparison is byte-for-byte, so the digest must be
// deterministic (no per-call salt).
func HashSecret(secret string) string {
	sum := sha3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
