// Package session holds the server-side state of authenticated sessions:
// one opaque bearer token bound to one identity per session context.
// The store is injected into handlers rather than living in a global,
// so tests can simulate multiple concurrent sessions deterministically.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for authorization failures.
var (
	ErrNoSession    = errors.New("session has never authenticated")
	ErrInvalidToken = errors.New("invalid session token")
)

// tokenLength is the number of characters in an issued key.
const tokenLength = 32

// Session binds a session context to an identity and its current token.
// At most one token is live per context; issuing replaces the previous one.
type Session struct {
	UserID   uuid.UUID
	Username string
	Token    string
	IssuedAt time.Time
}

// Store is the per-session-context token state.
type Store interface {
	// Issue mints a fresh token for the context, replacing any prior binding.
	Issue(contextID string, userID uuid.UUID, username string) (string, error)

	// IssueOrReuse returns the live token when the context is already bound
	// to the same user, otherwise mints a new one. The check and the bind
	// are atomic with respect to other writers on the same context.
	IssueOrReuse(contextID string, userID uuid.UUID, username string) (token string, reused bool, err error)

	// Authorize validates a submitted token against the context's bound
	// token and returns the bound identity. ErrNoSession when the context
	// never authenticated (or its binding expired), ErrInvalidToken on any
	// mismatch, including an empty submission.
	Authorize(contextID, submitted string) (*Session, error)
}

// MemoryStore is a mutex-guarded in-process Store. A ttl of zero means
// tokens never expire, matching the original login contract.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	now func() time.Time // overridable in tests
}

// NewMemoryStore creates an empty store with the given token TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewContextID generates a fresh opaque session context identifier.
func NewContextID() string {
	return uuid.NewString()
}

// Issue mints a fresh token for the context, replacing any prior binding.
func (s *MemoryStore) Issue(contextID string, userID uuid.UUID, username string) (string, error) {
	token, err := generateToken(tokenLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[contextID] = &Session{
		UserID:   userID,
		Username: username,
		Token:    token,
		IssuedAt: s.now(),
	}
	return token, nil
}

// IssueOrReuse returns the live token if one is bound to the same user,
// otherwise mints and binds a new one.
func (s *MemoryStore) IssueOrReuse(contextID string, userID uuid.UUID, username string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.live(contextID); ok && sess.UserID == userID {
		return sess.Token, true, nil
	}

	token, err := generateToken(tokenLength)
	if err != nil {
		return "", false, err
	}
	s.sessions[contextID] = &Session{
		UserID:   userID,
		Username: username,
		Token:    token,
		IssuedAt: s.now(),
	}
	return token, false, nil
}

// Authorize validates the submitted token for the context.
func (s *MemoryStore) Authorize(contextID, submitted string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(contextID)
	if !ok {
		return nil, ErrNoSession
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(sess.Token)) != 1 {
		return nil, ErrInvalidToken
	}

	// Copy so callers never hold a pointer into the map.
	out := *sess
	return &out, nil
}

// PurgeExpired removes every expired session and returns how many were
// dropped. A no-op when the TTL is disabled.
func (s *MemoryStore) PurgeExpired() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	purged := 0
	for id, sess := range s.sessions {
		if sess.IssuedAt.Before(cutoff) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// Len reports the number of live session bindings.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// live looks up a session and drops it when expired. Caller holds the lock.
func (s *MemoryStore) live(contextID string) (*Session, bool) {
	sess, ok := s.sessions[contextID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(sess.IssuedAt) > s.ttl {
		delete(s.sessions, contextID)
		return nil, false
	}
	return sess, true
}

// generateToken produces a cryptographically secure, URL-safe random string.
func generateToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
