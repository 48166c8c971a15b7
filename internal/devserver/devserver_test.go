package devserver_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"janmanch-client/internal/auth"
	"janmanch-client/internal/credential"
	"janmanch-client/internal/devserver"
	notifdomain "janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"
	"janmanch-client/internal/httpclient"
	"janmanch-client/internal/notification"
	"janmanch-client/internal/realtime"
	"janmanch-client/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// device is one full client stack wired against the dev backend, the same
// composition memberctl performs.
type device struct {
	creds         *credential.Store
	client        *httpclient.Client
	notifications *store.NotificationStore
	sessions      *store.SessionStore
	channel       *realtime.Channel
	controller    *auth.Controller
	notifSvc      *notification.Service
}

func startBackend(t *testing.T, cfg devserver.Config) (*devserver.Server, string) {
	t.Helper()
	srv := devserver.New(cfg, nil)
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func newDevice(t *testing.T, baseURL string) *device {
	t.Helper()
	d := &device{
		creds:         credential.NewStore("", true, nil),
		notifications: store.NewNotificationStore(),
		sessions:      store.NewSessionStore(),
	}
	d.client = httpclient.New(baseURL+"/api/v1", "cli", 5*time.Second, d.creds, nil)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	d.channel = realtime.NewChannel(wsURL, 20, d.notifications, d.sessions, realtime.Hooks{
		OnSessionRevoked: func(p rt.SessionRevokedPayload) {
			d.controller.HandleSessionRevoked(p)
		},
	}, nil)
	d.controller = auth.NewController(d.client, d.creds, d.channel, d.notifications, d.sessions, nil)
	d.notifSvc = notification.NewService(d.client, d.notifications, nil)

	t.Cleanup(d.channel.Disconnect)
	return d
}

func seedDemoAccount(t *testing.T, srv *devserver.Server) string {
	t.Helper()
	acc, err := srv.State().Seed("Demo Member", "9999999999", "secret1")
	require.NoError(t, err)
	return acc.ID
}

func TestLoginEstablishesServerSession(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)
	d := newDevice(t, url)

	user, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "Demo Member", user.FullName)

	sessionID, ok := d.creds.Get(credential.KeySessionID)
	require.True(t, ok)
	assert.True(t, srv.State().SessionActive(sessionID, userID))

	// The session records the device type the client sent.
	sessions := srv.State().ActiveSessions(userID)
	require.Len(t, sessions, 1)
	assert.Equal(t, "cli", sessions[0].DeviceType)

	_, err = d.controller.Login(context.Background(), "9999999999", "wrong")
	assert.Error(t, err)
}

func TestLoginConnectsAndReceivesFeed(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)
	srv.State().AddNotification(userID, notifdomain.Notification{
		Type:  notifdomain.TypeInfo,
		Title: "welcome",
	})

	d := newDevice(t, url)
	_, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)

	// The channel fetches the feed right after connecting.
	require.Eventually(t, func() bool {
		return d.notifications.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "welcome", d.notifications.Snapshot()[0].Title)
	assert.Equal(t, 1, d.notifications.UnreadCount())
}

func TestPushedNotificationReachesStore(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)
	d := newDevice(t, url)

	_, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return srv.Hub().Connected(userID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	err = d.client.Post(context.Background(), "/dev/notify", map[string]string{
		"title":   "rally moved",
		"message": "new venue announced",
	}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.notifications.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	got := d.notifications.Snapshot()[0]
	assert.Equal(t, "rally moved", got.Title)
	assert.False(t, got.Read)
}

func TestNotificationRESTMirror(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)
	first := srv.State().AddNotification(userID, notifdomain.Notification{Title: "one"})
	srv.State().AddNotification(userID, notifdomain.Notification{Title: "two"})

	d := newDevice(t, url)
	_, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)

	list, err := d.notifSvc.List(context.Background(), 20, 0, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Title, "feed must be newest-first")

	count, err := d.notifSvc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, d.notifSvc.MarkRead(context.Background(), first.ID))
	count, err = d.notifSvc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, d.notifications.UnreadCount())

	require.NoError(t, d.notifSvc.DeleteAll(context.Background()))
	assert.Zero(t, d.notifications.Len())
	assert.Zero(t, srv.State().UnreadCount(userID))
}

func TestLogoutRevokesServerSession(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)
	d := newDevice(t, url)

	_, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)
	sessionID, _ := d.creds.Get(credential.KeySessionID)

	require.NoError(t, d.controller.Logout(context.Background()))

	assert.False(t, d.controller.IsAuthenticated())
	assert.False(t, srv.State().SessionActive(sessionID, userID))
}

// Revoking other sessions from one device must force the other device out,
// end to end through the push channel.
func TestRevokeOthersForcesLogoutOnOtherDevice(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{})
	userID := seedDemoAccount(t, srv)

	devA := newDevice(t, url)
	_, err := devA.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)

	devB := newDevice(t, url)
	_, err = devB.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return srv.Hub().Connected(userID) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, devB.controller.RevokeOtherSessions(context.Background()))

	require.Eventually(t, func() bool {
		return devA.controller.State() == auth.StateAnonymous
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := devA.creds.Get(credential.KeyToken)
	assert.False(t, ok)

	assert.Equal(t, auth.StateAuthenticated, devB.controller.State())
}

// An aged token is rotated on the next authenticated response and the
// client keeps using the fresh one transparently.
func TestTokenRotationEndToEnd(t *testing.T) {
	srv, url := startBackend(t, devserver.Config{RotateAfter: time.Nanosecond})
	seedDemoAccount(t, srv)
	d := newDevice(t, url)

	_, err := d.controller.Login(context.Background(), "9999999999", "secret1")
	require.NoError(t, err)
	original, ok := d.creds.Get(credential.KeyToken)
	require.True(t, ok)

	// Token age exceeds RotateAfter immediately, so any authed call rotates.
	time.Sleep(1100 * time.Millisecond) // jwt iat has second precision
	_, err = d.notifSvc.UnreadCount(context.Background())
	require.NoError(t, err)

	rotated, ok := d.creds.Get(credential.KeyToken)
	require.True(t, ok)
	assert.NotEqual(t, original, rotated)

	// The rotated token still authenticates.
	_, err = d.notifSvc.UnreadCount(context.Background())
	require.NoError(t, err)
}

func TestRequestWithoutTokenRejected(t *testing.T) {
	_, url := startBackend(t, devserver.Config{})
	d := newDevice(t, url)

	err := d.client.Get(context.Background(), "/notifications", nil)
	require.Error(t, err)
}
