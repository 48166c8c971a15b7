// internal/store/notifications.go
package store

import (
	"sync"

	"janmanch-client/internal/domain/notification"
)

// NotificationStore holds the cached notification feed. Push-delivered
// deltas and explicit fetch results both land here; every mutation
// recomputes the unread count from the collection so the two never drift.
// Unknown-id updates are no-ops and clears are idempotent.
type NotificationStore struct {
	mu     sync.RWMutex
	items  []notification.Notification
	unread int
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

// ReplaceAll applies a full snapshot, replacing the local collection.
func (s *NotificationStore) ReplaceAll(items []notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]notification.Notification, len(items))
	copy(s.items, items)
	s.recountLocked()
}

// Add prepends one pushed notification; the feed is newest-first.
func (s *NotificationStore) Add(n notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]notification.Notification{n}, s.items...)
	s.recountLocked()
}

// MarkRead flips one item's read flag. Missing ids are ignored.
func (s *NotificationStore) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			break
		}
	}
	s.recountLocked()
}

// MarkAllRead flips every item's read flag.
func (s *NotificationStore) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].Read = true
	}
	s.recountLocked()
}

// Remove deletes one item by id. Missing ids are ignored.
func (s *NotificationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.recountLocked()
}

// Clear empties the collection. Safe to apply repeatedly.
func (s *NotificationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.unread = 0
}

// Snapshot returns a copy of the current feed.
func (s *NotificationStore) Snapshot() []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread items in the collection.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the collection size.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *NotificationStore) recountLocked() {
	unread := 0
	for i := range s.items {
		if !s.items[i].Read {
			unread++
		}
	}
	s.unread = unread
}
