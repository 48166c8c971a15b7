package store

import (
	"testing"

	"janmanch-client/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notif(id string, read bool) notification.Notification {
	return notification.Notification{
		ID:      id,
		Type:    notification.TypeInfo,
		Title:   "title " + id,
		Message: "message " + id,
		Read:    read,
	}
}

func TestNotificationStorePrependAndUnread(t *testing.T) {
	s := NewNotificationStore()

	s.Add(notif("n1", false))
	items := s.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
	assert.Equal(t, 1, s.UnreadCount())

	s.MarkRead("n1")
	items = s.Snapshot()
	assert.True(t, items[0].Read)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestNotificationStoreNewestFirst(t *testing.T) {
	s := NewNotificationStore()
	s.Add(notif("n1", false))
	s.Add(notif("n2", false))
	s.Add(notif("n3", false))

	items := s.Snapshot()
	require.Len(t, items, 3)
	assert.Equal(t, "n3", items[0].ID)
	assert.Equal(t, "n1", items[2].ID)
}

func TestNotificationStoreReplaceAll(t *testing.T) {
	s := NewNotificationStore()
	s.Add(notif("old", false))

	s.ReplaceAll([]notification.Notification{notif("a", true), notif("b", false)})
	items := s.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestNotificationStoreUnknownIDIsNoop(t *testing.T) {
	s := NewNotificationStore()
	s.Add(notif("n1", false))

	s.MarkRead("missing")
	s.Remove("missing")

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.UnreadCount())
}

func TestNotificationStoreClearIdempotent(t *testing.T) {
	s := NewNotificationStore()
	s.Add(notif("n1", false))
	s.Add(notif("n2", true))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UnreadCount())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UnreadCount())
}

// The unread count must equal the number of unread items after any event
// sequence, never drifting from the collection.
func TestNotificationStoreUnreadInvariant(t *testing.T) {
	s := NewNotificationStore()

	check := func() {
		unread := 0
		for _, n := range s.Snapshot() {
			if !n.Read {
				unread++
			}
		}
		require.Equal(t, unread, s.UnreadCount())
	}

	s.Add(notif("a", false))
	check()
	s.Add(notif("b", false))
	check()
	s.Add(notif("c", true))
	check()
	s.MarkRead("a")
	check()
	s.Remove("b")
	check()
	s.MarkAllRead()
	check()
	s.Add(notif("d", false))
	check()
	s.Clear()
	check()
}
