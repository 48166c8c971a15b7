package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"janmanch-client/internal/domain/auth"
	"janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"
	xerrors "janmanch-client/internal/pkg/errors"
	"janmanch-client/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsTestServer accepts websocket connections and records what the client
// sends. Pushed events go out through push.
type wsTestServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []rt.Message
	headers  []http.Header
}

func newWSTestServer(t *testing.T) (*wsTestServer, string) {
	t.Helper()
	ws := &wsTestServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(ws.handle))
	t.Cleanup(func() {
		ws.mu.Lock()
		for _, c := range ws.conns {
			c.Close()
		}
		ws.mu.Unlock()
		srv.Close()
	})
	return ws, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (ws *wsTestServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ws.mu.Lock()
	ws.conns = append(ws.conns, conn)
	ws.headers = append(ws.headers, r.Header.Clone())
	ws.mu.Unlock()

	go func() {
		for {
			var msg rt.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			ws.mu.Lock()
			ws.received = append(ws.received, msg)
			ws.mu.Unlock()
		}
	}()
}

func (ws *wsTestServer) push(event rt.EventType, payload interface{}) {
	msg, err := rt.NewMessage(event, payload)
	require.NoError(ws.t, err)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	require.NotEmpty(ws.t, ws.conns, "no client connected")
	require.NoError(ws.t, ws.conns[len(ws.conns)-1].WriteJSON(msg))
}

func (ws *wsTestServer) events() []rt.EventType {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]rt.EventType, len(ws.received))
	for i, m := range ws.received {
		out[i] = m.Event
	}
	return out
}

func (ws *wsTestServer) dials() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.conns)
}

func (ws *wsTestServer) lastHeader() http.Header {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	require.NotEmpty(ws.t, ws.headers)
	return ws.headers[len(ws.headers)-1]
}

func testCred() auth.Credential {
	return auth.Credential{Token: "t1", SessionID: "s1"}
}

func newTestChannel(t *testing.T, hooks Hooks) (*Channel, *wsTestServer, *store.NotificationStore, *store.SessionStore) {
	t.Helper()
	ws, url := newWSTestServer(t)
	notifications := store.NewNotificationStore()
	sessions := store.NewSessionStore()
	ch := NewChannel(url, 20, notifications, sessions, hooks, nil)
	t.Cleanup(ch.Disconnect)
	return ch, ws, notifications, sessions
}

func TestConnectAnnouncesSessionAndFetches(t *testing.T) {
	ch, ws, _, _ := newTestChannel(t, Hooks{})

	require.NoError(t, ch.Connect(testCred(), "u1"))
	assert.Equal(t, StateConnected, ch.State())

	require.Eventually(t, func() bool {
		return len(ws.events()) >= 2
	}, time.Second, 5*time.Millisecond)

	events := ws.events()
	assert.Equal(t, rt.EventSessionConnect, events[0])
	assert.Equal(t, rt.EventNotificationFetch, events[1])

	header := ws.lastHeader()
	assert.Equal(t, "Bearer t1", header.Get("Authorization"))
	assert.Equal(t, "s1", header.Get("x-session-id"))
}

func TestConnectWhileConnectedIsNoop(t *testing.T) {
	ch, ws, _, _ := newTestChannel(t, Hooks{})

	require.NoError(t, ch.Connect(testCred(), "u1"))
	require.NoError(t, ch.Connect(testCred(), "u1"))

	assert.Equal(t, 1, ws.dials())
}

func TestDisconnectIdempotent(t *testing.T) {
	ch, _, _, _ := newTestChannel(t, Hooks{})

	require.NoError(t, ch.Connect(testCred(), "u1"))
	ch.Disconnect()
	assert.Equal(t, StateDisconnected, ch.State())
	ch.Disconnect()
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestConnectRejectsUnusableCredential(t *testing.T) {
	ch, ws, _, _ := newTestChannel(t, Hooks{})

	err := ch.Connect(auth.Credential{Token: "", SessionID: "s1"}, "u1")
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)
	assert.Equal(t, StateDisconnected, ch.State())
	assert.Zero(t, ws.dials())
}

func TestEmitRequiresConnection(t *testing.T) {
	ch, _, _, _ := newTestChannel(t, Hooks{})

	err := ch.FetchNotifications(10, 0)
	assert.ErrorIs(t, err, xerrors.ErrNotConnected)
}

func TestPushedNotificationEventsUpdateStore(t *testing.T) {
	var pushed []notification.Notification
	var mu sync.Mutex
	ch, ws, notifications, _ := newTestChannel(t, Hooks{
		OnNotification: func(n notification.Notification) {
			mu.Lock()
			pushed = append(pushed, n)
			mu.Unlock()
		},
	})
	require.NoError(t, ch.Connect(testCred(), "u1"))

	ws.push(rt.EventNotificationList, []notification.Notification{
		{ID: "n1", Title: "first", Read: true},
		{ID: "n2", Title: "second"},
	})
	require.Eventually(t, func() bool { return notifications.Len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, notifications.UnreadCount())

	ws.push(rt.EventNotificationNew, notification.Notification{ID: "n3", Title: "third"})
	require.Eventually(t, func() bool { return notifications.Len() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "n3", notifications.Snapshot()[0].ID, "pushed notification must be newest")
	assert.Equal(t, 2, notifications.UnreadCount())

	mu.Lock()
	require.Len(t, pushed, 1)
	assert.Equal(t, "n3", pushed[0].ID)
	mu.Unlock()

	ws.push(rt.EventNotificationRead, rt.NotificationRefPayload{NotificationID: "n3"})
	require.Eventually(t, func() bool { return notifications.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)

	ws.push(rt.EventNotificationDeleted, rt.NotificationRefPayload{NotificationID: "n2"})
	require.Eventually(t, func() bool { return notifications.Len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, notifications.UnreadCount())

	ws.push(rt.EventNotificationDeletedAll, nil)
	require.Eventually(t, func() bool { return notifications.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSessionRevokedFiresHook(t *testing.T) {
	revoked := make(chan rt.SessionRevokedPayload, 1)
	ch, ws, _, _ := newTestChannel(t, Hooks{
		OnSessionRevoked: func(p rt.SessionRevokedPayload) { revoked <- p },
	})
	require.NoError(t, ch.Connect(testCred(), "u1"))

	ws.push(rt.EventSessionRevoked, rt.SessionRevokedPayload{SessionID: "s1", DeviceType: "cli"})

	select {
	case p := <-revoked:
		assert.Equal(t, "s1", p.SessionID)
		assert.Equal(t, "cli", p.DeviceType)
	case <-time.After(time.Second):
		t.Fatal("session revoked hook never fired")
	}
}

func TestSessionEventsInvalidateCache(t *testing.T) {
	ch, ws, _, sessions := newTestChannel(t, Hooks{})
	require.NoError(t, ch.Connect(testCred(), "u1"))

	sessions.Replace(nil)
	require.False(t, sessions.Stale())

	ws.push(rt.EventSessionCreated, nil)
	require.Eventually(t, sessions.Stale, time.Second, 5*time.Millisecond)

	sessions.Replace(nil)
	ws.push(rt.EventSessionsRevoked, nil)
	require.Eventually(t, sessions.Stale, time.Second, 5*time.Millisecond)
}

func TestChannelErrorFiresHook(t *testing.T) {
	errs := make(chan string, 1)
	ch, ws, _, _ := newTestChannel(t, Hooks{
		OnError: func(msg string) { errs <- msg },
	})
	require.NoError(t, ch.Connect(testCred(), "u1"))

	ws.push(rt.EventNotificationError, rt.ErrorPayload{Message: "unsupported event"})

	select {
	case msg := <-errs:
		assert.Equal(t, "unsupported event", msg)
	case <-time.After(time.Second):
		t.Fatal("error hook never fired")
	}
}

func TestReconnectAfterDisconnect(t *testing.T) {
	ch, ws, _, _ := newTestChannel(t, Hooks{})

	require.NoError(t, ch.Connect(testCred(), "u1"))
	ch.Disconnect()

	require.NoError(t, ch.Connect(testCred(), "u1"))
	assert.Equal(t, StateConnected, ch.State())
	assert.Equal(t, 2, ws.dials())
}
