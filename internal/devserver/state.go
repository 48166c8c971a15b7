// internal/devserver/state.go
package devserver

import (
	"sync"
	"time"

	authdomain "janmanch-client/internal/domain/auth"
	notifdomain "janmanch-client/internal/domain/notification"
	sessiondomain "janmanch-client/internal/domain/session"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// Account is a registered member in the in-memory backend.
type Account struct {
	ID           string
	FullName     string
	Phone        string
	Email        string
	District     string
	State        string
	PasswordHash []byte
	Verified     bool
	CreatedAt    time.Time
}

// DeviceSession is one issued session id.
type DeviceSession struct {
	ID           string
	UserID       string
	DeviceType   string
	Location     string
	CreatedAt    time.Time
	LastActiveAt time.Time
	Revoked      bool
}

// State holds every account, session and notification the dev backend
// knows about. Everything lives in memory so the binary runs with no
// external dependencies.
type State struct {
	mu            sync.RWMutex
	accounts      map[string]*Account // keyed by phone
	sessions      map[string]*DeviceSession
	notifications map[string][]notifdomain.Notification // keyed by user id, newest first
	otps          map[string]string                     // identifier -> code
}

func NewState() *State {
	return &State{
		accounts:      make(map[string]*Account),
		sessions:      make(map[string]*DeviceSession),
		notifications: make(map[string][]notifdomain.Notification),
		otps:          make(map[string]string),
	}
}

// Seed registers an account directly, bypassing OTP. Used by main and tests.
func (s *State) Seed(fullName, phone, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		ID:           ulid.Make().String(),
		FullName:     fullName,
		Phone:        phone,
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.accounts[phone] = acc
	s.mu.Unlock()
	return acc, nil
}

func (s *State) Authenticate(identifier, password string) (*Account, bool) {
	s.mu.RLock()
	acc, ok := s.accounts[identifier]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)) != nil {
		return nil, false
	}
	return acc, true
}

func (s *State) AccountByID(id string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return nil, false
}

func (s *State) CreateSession(userID, deviceType, location string) *DeviceSession {
	sess := &DeviceSession{
		ID:           ulid.Make().String(),
		UserID:       userID,
		DeviceType:   deviceType,
		Location:     location,
		CreatedAt:    time.Now(),
		LastActiveAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// SessionActive reports whether the session exists, belongs to the user
// and has not been revoked. Activity is touched on every successful check.
func (s *State) SessionActive(id, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Revoked || sess.UserID != userID {
		return false
	}
	sess.LastActiveAt = time.Now()
	return true
}

// RevokeSession marks one session revoked. Returns the session and whether
// anything changed.
func (s *State) RevokeSession(id, userID string) (*DeviceSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID || sess.Revoked {
		return nil, false
	}
	sess.Revoked = true
	return sess, true
}

// RevokeOtherSessions revokes every active session of the user except keep.
func (s *State) RevokeOtherSessions(userID, keep string) []*DeviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var revoked []*DeviceSession
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.ID != keep && !sess.Revoked {
			sess.Revoked = true
			revoked = append(revoked, sess)
		}
	}
	return revoked
}

func (s *State) ActiveSessions(userID string) []sessiondomain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sessiondomain.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || sess.Revoked {
			continue
		}
		out = append(out, sessiondomain.Session{
			ID:           sess.ID,
			DeviceType:   sess.DeviceType,
			Location:     sess.Location,
			CreatedAt:    sess.CreatedAt,
			LastActiveAt: sess.LastActiveAt,
		})
	}
	return out
}

// AddNotification prepends a notification to the user's feed.
func (s *State) AddNotification(userID string, n notifdomain.Notification) notifdomain.Notification {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	s.mu.Lock()
	s.notifications[userID] = append([]notifdomain.Notification{n}, s.notifications[userID]...)
	s.mu.Unlock()
	return n
}

func (s *State) Notifications(userID string, limit, skip int, unreadOnly bool) []notifdomain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []notifdomain.Notification
	for _, n := range s.notifications[userID] {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	if skip >= len(out) {
		return nil
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *State) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkNotificationRead flips one notification; reports whether it existed.
func (s *State) MarkNotificationRead(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.notifications[userID]
	for i := range feed {
		if feed[i].ID == id {
			feed[i].Read = true
			feed[i].UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

func (s *State) MarkAllNotificationsRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.notifications[userID]
	for i := range feed {
		feed[i].Read = true
		feed[i].UpdatedAt = time.Now()
	}
}

func (s *State) DeleteNotification(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.notifications[userID]
	for i := range feed {
		if feed[i].ID == id {
			s.notifications[userID] = append(feed[:i], feed[i+1:]...)
			return true
		}
	}
	return false
}

func (s *State) DeleteAllNotifications(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, userID)
}

// SetOTP records the pending code for an identifier.
func (s *State) SetOTP(identifier, code string) {
	s.mu.Lock()
	s.otps[identifier] = code
	s.mu.Unlock()
}

// VerifyOTP consumes the pending code; the account becomes verified.
func (s *State) VerifyOTP(identifier, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.otps[identifier]
	if !ok || want != code {
		return false
	}
	delete(s.otps, identifier)
	if acc, ok := s.accounts[identifier]; ok {
		acc.Verified = true
	}
	return true
}

// RegisterAccount stores an unverified account from the registration form.
func (s *State) RegisterAccount(req authdomain.RegisterRequest) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		ID:           ulid.Make().String(),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		District:     req.District,
		State:        req.State,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.accounts[req.Phone] = acc
	s.mu.Unlock()
	return acc, nil
}

// UpdateAccount applies editable profile fields.
func (s *State) UpdateAccount(id string, req authdomain.UpdateProfileRequest) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID != id {
			continue
		}
		if req.FullName != "" {
			acc.FullName = req.FullName
		}
		if req.Email != "" {
			acc.Email = req.Email
		}
		if req.District != "" {
			acc.District = req.District
		}
		if req.State != "" {
			acc.State = req.State
		}
		return acc, true
	}
	return nil, false
}

// Profile converts an account to the wire profile shape.
func (a *Account) Profile() authdomain.AuthUser {
	return authdomain.AuthUser{
		ID:        a.ID,
		FullName:  a.FullName,
		Phone:     a.Phone,
		Email:     a.Email,
		District:  a.District,
		State:     a.State,
		CreatedAt: a.CreatedAt,
	}
}
