// internal/realtime/channel.go
package realtime

import (
	"net/http"
	"sync"
	"time"

	"janmanch-client/internal/domain/auth"
	"janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"
	xerrors "janmanch-client/internal/pkg/errors"
	"janmanch-client/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Hooks are the channel's escalation points. OnSessionRevoked receives
// every session:revoked push; deciding whether it means a forced logout is
// the auth controller's call. OnError surfaces non-fatal channel errors.
type Hooks struct {
	OnSessionRevoked func(payload rt.SessionRevokedPayload)
	OnError          func(message string)
	// OnNotification fires after a pushed notification has been applied to
	// the store, for view layers that render the feed live.
	OnNotification func(n notification.Notification)
}

// Channel owns the single live realtime connection for the authenticated
// member. Connect while connected is a no-op, so at most one socket exists
// per controller instance. Inbound events are applied to the stores in
// arrival order by a single read loop.
type Channel struct {
	url           string
	fetchLimit    int
	notifications *store.NotificationStore
	sessions      *store.SessionStore
	hooks         Hooks
	logger        *zap.Logger
	dialer        *websocket.Dialer

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	writeMu sync.Mutex
}

func NewChannel(
	url string,
	fetchLimit int,
	notifications *store.NotificationStore,
	sessions *store.SessionStore,
	hooks Hooks,
	logger *zap.Logger,
) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetchLimit <= 0 {
		fetchLimit = 20
	}
	return &Channel{
		url:           url,
		fetchLimit:    fetchLimit,
		notifications: notifications,
		sessions:      sessions,
		hooks:         hooks,
		logger:        logger,
		dialer:        websocket.DefaultDialer,
	}
}

// Connect establishes the transport authenticated by cred, announces the
// session for presence tracking and requests the initial notification
// snapshot. A second call while connected returns nil without dialing.
func (c *Channel) Connect(cred auth.Credential, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	if !cred.Valid() {
		return xerrors.ErrSessionExpired
	}
	c.state = StateConnecting

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.Token)
	header.Set("x-session-id", cred.SessionID)

	conn, _, err := c.dialer.Dial(c.url, header)
	if err != nil {
		c.state = StateDisconnected
		return xerrors.New(xerrors.KindSocket, 0, err.Error()).WithCause(err)
	}
	c.conn = conn
	c.state = StateConnected

	if err := c.write(conn, rt.EventSessionConnect, rt.SessionConnectPayload{
		SessionID: cred.SessionID,
		UserID:    userID,
	}); err != nil {
		c.teardownLocked()
		return xerrors.New(xerrors.KindSocket, 0, err.Error()).WithCause(err)
	}
	if err := c.write(conn, rt.EventNotificationFetch, rt.NotificationFetchPayload{
		Limit: c.fetchLimit,
	}); err != nil {
		c.teardownLocked()
		return xerrors.New(xerrors.KindSocket, 0, err.Error()).WithCause(err)
	}

	go c.readLoop(conn)

	c.logger.Info("realtime channel connected", zap.String("session_id", cred.SessionID))
	return nil
}

// Disconnect tears down the transport and clears the held handle.
// Idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	c.teardownLocked()
	c.logger.Info("realtime channel disconnected")
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Emit sends one event to the server over the live connection.
func (c *Channel) Emit(event rt.EventType, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return xerrors.ErrNotConnected
	}
	if err := c.write(conn, event, payload); err != nil {
		return xerrors.New(xerrors.KindSocket, 0, err.Error()).WithCause(err)
	}
	return nil
}

// FetchNotifications asks the server for another page of the feed.
func (c *Channel) FetchNotifications(limit, skip int) error {
	return c.Emit(rt.EventNotificationFetch, rt.NotificationFetchPayload{Limit: limit, Skip: skip})
}

func (c *Channel) teardownLocked() {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.conn.Close()
	c.conn = nil
	c.state = StateDisconnected
}

func (c *Channel) write(conn *websocket.Conn, event rt.EventType, payload interface{}) error {
	msg, err := rt.NewMessage(event, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		var msg rt.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("realtime channel dropped", zap.Error(err))
			}
			c.dropConn(conn)
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.dispatch(msg)
	}
}

// dropConn clears the handle only if it still refers to the connection the
// loop was reading; a newer connection from a fresh login stays untouched.
func (c *Channel) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn.Close()
		c.conn = nil
		c.state = StateDisconnected
	}
}
