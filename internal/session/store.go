package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/google/uuid"
)

// ErrSessionLimit is returned by Create when the store holds its maximum of live sessions
var ErrSessionLimit = errors.New("session limit reached")

// Session is the server-side state of one operator's browser session.
// Callers hold Lock for the duration of one action.
type Session struct {
	ID        string
	CSRFToken string
	CreatedAt time.Time

	Auth      models.AuthAttemptState
	Lookup    models.LookupSessionState
	Principal *models.AuthenticatedSession

	mu       sync.Mutex
	lastSeen time.Time
}

// Lock serializes actions within the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Authenticated reports whether the gate has been passed
func (s *Session) Authenticated() bool {
	return s.Principal != nil
}

// SignIn stores the principal and starts a clean lookup state
func (s *Session) SignIn(principal *models.AuthenticatedSession) {
	s.Principal = principal
	s.Auth.Reset()
	s.Lookup.Reset()
}

// Store keeps sessions in memory, keyed by a random id
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time
}

// NewStore creates a new Store. Sessions unused for idleTimeout are discarded.
func NewStore(idleTimeout time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// WithClock replaces the wall clock, used by tests
func (st *Store) WithClock(now func() time.Time) *Store {
	st.now = now
	return st
}

// WithMaxSessions caps the number of live sessions. Zero means no cap.
func (st *Store) WithMaxSessions(n int) *Store {
	st.maxSessions = n
	return st
}

// Create starts an anonymous session with fresh attempt and lookup state
func (st *Store) Create() (*Session, error) {
	csrf, err := newCSRFToken()
	if err != nil {
		return nil, err
	}

	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		CSRFToken: csrf,
		CreatedAt: now,
		lastSeen:  now,
	}
	s.Lookup.Reset()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.sweepLocked(now)
		if len(st.sessions) >= st.maxSessions {
			return nil, ErrSessionLimit
		}
	}
	st.sessions[s.ID] = s

	return s, nil
}

// Get returns a live session and marks it as used
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}

	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Delete discards a session, used on logout
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Sweep removes idle sessions and returns how many were removed
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(st.now())
}

func (st *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.idleTimeout > 0 && now.Sub(s.lastSeen) >= st.idleTimeout
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
