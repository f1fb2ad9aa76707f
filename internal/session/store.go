// Package session provides session management functionality.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/coin-gacha-back/internal/game"
)

// Factory builds the game session for a new session ID.
type Factory func(id string) *game.Session

// sessionEntry holds a session and its last HTTP lookup.
type sessionEntry struct {
	Session  *game.Session
	LastSeen time.Time
}

// lastUse is the later of the last lookup and the last game operation.
// WebSocket messages reach the session directly and only show up in the
// latter.
func (e *sessionEntry) lastUse() time.Time {
	if active := e.Session.LastActive(); active.After(e.LastSeen) {
		return active
	}
	return e.LastSeen
}

// SessionStore manages game sessions in memory.
type SessionStore struct {
	sessions map[string]*sessionEntry
	mu       sync.RWMutex
	factory  Factory
	expiry   time.Duration // idle time before a session is dropped, 0 means no expiry
}

// NewSessionStore creates a new SessionStore with no expiry.
func NewSessionStore(factory Factory) *SessionStore {
	return NewSessionStoreWithExpiry(factory, 0)
}

// NewSessionStoreWithExpiry creates a new SessionStore with the specified expiry duration.
func NewSessionStoreWithExpiry(factory Factory, expiry time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		factory:  factory,
		expiry:   expiry,
	}
}

// Create creates a new session and returns it with its ID.
func (s *SessionStore) Create() (*game.Session, string) {
	sessionID := uuid.New().String()
	sess := s.factory(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &sessionEntry{
		Session:  sess,
		LastSeen: time.Now(),
	}

	return sess, sessionID
}

// Get retrieves a session by ID and marks it as used.
// Returns nil and false if the session does not exist or has expired.
func (s *SessionStore) Get(sessionID string) (*game.Session, bool) {
	s.mu.Lock()
	entry, exists := s.sessions[sessionID]
	if !exists {
		s.mu.Unlock()
		return nil, false
	}

	// Check expiry if set
	if s.expired(entry, time.Now()) {
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		entry.Session.Close()
		return nil, false
	}
	entry.LastSeen = time.Now()
	s.mu.Unlock()

	return entry.Session, true
}

// Delete removes a session by ID and closes it.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	entry, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		entry.Session.Close()
	}
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes and removes every expired session and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	var expired []*game.Session
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			expired = append(expired, entry.Session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired)
}

// RunJanitor sweeps expired sessions every interval until ctx is canceled.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.expiry <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CloseAll closes and removes every session.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]*sessionEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		entry.Session.Close()
	}
}

// expired also reports sessions that were closed from elsewhere.
func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	if entry.Session.Closed() {
		return true
	}
	return s.expiry > 0 && now.Sub(entry.lastUse()) > s.expiry
}
