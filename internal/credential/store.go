// internal/credential/store.go
package credential

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Key identifies one persisted credential field.
type Key string

const (
	KeyToken     Key = "token"
	KeySessionID Key = "sessionId"
	KeyUser      Key = "user"
)

// Lifetime classifies how long a credential entry lives. SHORT tracks the
// rotated bearer token, LONG tracks the device session id.
type Lifetime int

const (
	LifetimeShort Lifetime = iota
	LifetimeLong
)

const (
	shortTTL = time.Hour
	longTTL  = 30 * 24 * time.Hour
)

func (l Lifetime) ttl() time.Duration {
	if l == LifetimeLong {
		return longTTL
	}
	return shortTTL
}

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is the sole owner of persisted credentials. The in-memory copy is
// authoritative; a durable file mirror lets a new process resume the
// long-lived session. A failed mirror write degrades the store to
// memory-only for the rest of the process life, it never surfaces an error.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]entry
	mirror  *fileMirror
	logger  *zap.Logger

	now func() time.Time
}

// NewStore builds a store backed by a mirror file under stateDir. The
// production flag selects which mirror file is used, keeping dev and
// production sessions apart. An empty stateDir disables the mirror
// entirely (memory-only store).
func NewStore(stateDir string, production bool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		entries: make(map[Key]entry),
		logger:  logger,
		now:     time.Now,
	}
	if stateDir != "" {
		s.mirror = newFileMirror(stateDir, production, logger)
		s.restore()
	}
	return s
}

// Get reads a credential field, honoring per-entry expiry. Expired entries
// are dropped on read.
func (s *Store) Get(key Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if s.now().After(e.ExpiresAt) {
		delete(s.entries, key)
		s.persistLocked()
		return "", false
	}
	return e.Value, true
}

// Set writes a credential field with the default TTL for its lifetime
// class. Writing never fails.
func (s *Store) Set(key Key, value string, lifetime Lifetime) {
	s.SetUntil(key, value, s.now().Add(lifetime.ttl()))
}

// SetUntil writes a credential field with an explicit expiry, used when the
// token itself carries one.
func (s *Store) SetUntil(key Key, value string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{Value: value, ExpiresAt: expiresAt}
	s.persistLocked()
}

// Clear removes every credential field from memory and the mirror.
// Idempotent; used on logout and on revocation of the current session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[Key]entry)
	if s.mirror != nil {
		s.mirror.remove()
	}
}

func (s *Store) persistLocked() {
	if s.mirror == nil {
		return
	}
	s.mirror.save(s.entries)
}

func (s *Store) restore() {
	loaded, ok := s.mirror.load()
	if !ok {
		return
	}
	now := s.now()
	for k, e := range loaded {
		if now.After(e.ExpiresAt) {
			continue
		}
		s.entries[k] = e
	}
}
