// internal/store/sessions.go
package store

import (
	"sync"

	"janmanch-client/internal/domain/session"
)

// SessionStore caches the member's device session list. Push events mark
// the cache stale rather than patching it; the next explicit fetch
// replaces the list wholesale.
type SessionStore struct {
	mu       sync.RWMutex
	sessions []session.Session
	loaded   bool
	stale    bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Replace applies a freshly fetched list and clears staleness.
func (s *SessionStore) Replace(sessions []session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]session.Session, len(sessions))
	copy(s.sessions, sessions)
	s.loaded = true
	s.stale = false
}

// Invalidate marks the cached list stale so the next read refetches.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

// Remove drops one session from the cache by id. Missing ids are ignored.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
}

// Clear empties the cache. Idempotent; used on logout.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.loaded = false
	s.stale = false
}

// Stale reports whether a fetch is needed before the cache can be trusted.
func (s *SessionStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded || s.stale
}

// Snapshot returns a copy of the cached list.
func (s *SessionStore) Snapshot() []session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}
