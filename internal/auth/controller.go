// internal/auth/controller.go
package auth

import (
	"context"
	"encoding/json"
	"sync"

	"janmanch-client/internal/credential"
	domain "janmanch-client/internal/domain/auth"
	rt "janmanch-client/internal/domain/realtime"
	"janmanch-client/internal/httpclient"
	xerrors "janmanch-client/internal/pkg/errors"
	"janmanch-client/internal/store"

	"go.uber.org/zap"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateLoggingOut:
		return "logging_out"
	default:
		return "anonymous"
	}
}

// RealtimeConnector is the slice of the realtime channel the controller
// drives: one connection up after login, torn down on logout.
type RealtimeConnector interface {
	Connect(cred domain.Credential, userID string) error
	Disconnect()
}

// Controller owns every authentication transition. It is the single writer
// of the authenticated flag and the only component allowed to clear the
// credential store.
type Controller struct {
	http          *httpclient.Client
	creds         *credential.Store
	channel       RealtimeConnector
	notifications *store.NotificationStore
	sessions      *store.SessionStore
	logger        *zap.Logger

	stateMu sync.Mutex
	state   State
	userID  string

	// op serializes login and logout end to end so a logout's clear is
	// always the last credential writer once issued.
	op sync.Mutex
}

func NewController(
	http *httpclient.Client,
	creds *credential.Store,
	channel RealtimeConnector,
	notifications *store.NotificationStore,
	sessions *store.SessionStore,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		http:          http,
		creds:         creds,
		channel:       channel,
		notifications: notifications,
		sessions:      sessions,
		logger:        logger,
	}
	c.restore()
	return c
}

// restore resumes an authenticated state from the credential mirror, so a
// new process with a still-valid token and session id skips the login form.
func (c *Controller) restore() {
	token, hasToken := c.creds.Get(credential.KeyToken)
	sessionID, hasSession := c.creds.Get(credential.KeySessionID)
	if !hasToken || !hasSession || token == "" || sessionID == "" {
		return
	}
	c.state = StateAuthenticated
	if raw, ok := c.creds.Get(credential.KeyUser); ok {
		var user domain.AuthUser
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			c.userID = user.ID
		}
	}
	c.logger.Info("resumed session from credential mirror")
}

// Login signs the member in. A concurrent second call while the first is
// pending is rejected with ErrLoginInFlight; credentials are persisted only
// after the server accepts, so a failed login leaves nothing behind.
func (c *Controller) Login(ctx context.Context, identifier, password string) (*domain.AuthUser, error) {
	c.stateMu.Lock()
	switch c.state {
	case StateAuthenticating:
		c.stateMu.Unlock()
		return nil, xerrors.ErrLoginInFlight
	case StateAuthenticated:
		c.stateMu.Unlock()
		return nil, xerrors.ErrAlreadyAuthenticated
	}
	c.state = StateAuthenticating
	c.stateMu.Unlock()

	c.op.Lock()
	defer c.op.Unlock()

	var resp domain.LoginResponse
	err := c.http.Post(ctx, "/auth/login", domain.LoginRequest{
		Identifier: identifier,
		Password:   password,
	}, &resp)
	if err != nil {
		c.setState(StateAnonymous)
		return nil, err
	}
	result := resp.Data

	if exp, ok := httpclient.TokenExpiry(result.Token); ok {
		c.creds.SetUntil(credential.KeyToken, result.Token, exp)
	} else {
		c.creds.Set(credential.KeyToken, result.Token, credential.LifetimeShort)
	}
	c.creds.Set(credential.KeySessionID, result.SessionID, credential.LifetimeLong)
	if raw, err := json.Marshal(result.User); err == nil {
		c.creds.Set(credential.KeyUser, string(raw), credential.LifetimeLong)
	}

	c.stateMu.Lock()
	c.state = StateAuthenticated
	c.userID = result.User.ID
	c.stateMu.Unlock()

	cred := domain.Credential{Token: result.Token, SessionID: result.SessionID}
	if err := c.channel.Connect(cred, result.User.ID); err != nil {
		// The session is valid without push; realtime stays best-effort.
		c.logger.Warn("realtime connect failed after login", zap.Error(err))
	}

	c.logger.Info("logged in", zap.String("user_id", result.User.ID))
	return &result.User, nil
}

// Logout invalidates the server-side session best-effort and always clears
// local state: stores, realtime connection and credentials. A failed server
// call is logged and swallowed because local cleanup must succeed.
func (c *Controller) Logout(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state == StateAnonymous {
		c.stateMu.Unlock()
		return nil
	}
	c.state = StateLoggingOut
	c.stateMu.Unlock()

	c.op.Lock()
	defer c.op.Unlock()
	defer c.cleanupLocal()

	if err := c.http.Post(ctx, "/auth/sessions/logout", nil, nil); err != nil {
		c.logger.Warn("server-side logout failed, clearing local state anyway", zap.Error(err))
	}
	return nil
}

// HandleSessionRevoked reacts to a session:revoked push. Revocation of the
// current session short-circuits into a full local logout; any other
// session just stales the cached list.
func (c *Controller) HandleSessionRevoked(payload rt.SessionRevokedPayload) {
	current, _ := c.creds.Get(credential.KeySessionID)
	if payload.SessionID != "" && payload.SessionID == current {
		c.logger.Info("current session revoked by server, forcing logout",
			zap.String("session_id", payload.SessionID))
		c.ForceLogout()
		return
	}
	c.sessions.Invalidate()
}

// ForceLogout clears all local session state without a server call. It is
// used when the server has already revoked the session and cannot fail.
func (c *Controller) ForceLogout() {
	c.stateMu.Lock()
	if c.state == StateAnonymous {
		c.stateMu.Unlock()
		return
	}
	c.state = StateLoggingOut
	c.stateMu.Unlock()

	c.op.Lock()
	defer c.op.Unlock()
	c.cleanupLocal()
}

func (c *Controller) cleanupLocal() {
	// The generation bump must precede the clear: a response still in
	// flight may carry a rotated token, and once the store is cleared the
	// clear has to be the last writer.
	c.http.BumpGeneration()
	c.channel.Disconnect()
	c.notifications.Clear()
	c.sessions.Clear()
	c.creds.Clear()

	c.stateMu.Lock()
	c.state = StateAnonymous
	c.userID = ""
	c.stateMu.Unlock()
}

// State returns the current authentication state.
func (c *Controller) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// IsAuthenticated is true iff the controller is in the authenticated state
// and the stored credential is still usable.
func (c *Controller) IsAuthenticated() bool {
	if c.State() != StateAuthenticated {
		return false
	}
	token, _ := c.creds.Get(credential.KeyToken)
	sessionID, _ := c.creds.Get(credential.KeySessionID)
	return domain.Credential{Token: token, SessionID: sessionID}.Valid()
}

// authFailed escalates an auth-kind failure on an authenticated call into
// a forced local logout: the server no longer accepts the credential, so
// keeping it would only produce more of the same.
func (c *Controller) authFailed(err error) error {
	if xerrors.IsAuth(err) {
		c.logger.Warn("credential rejected by server, forcing logout", zap.Error(err))
		c.ForceLogout()
	}
	return err
}

// UserID returns the authenticated member's id, or "".
func (c *Controller) UserID() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.userID
}

func (c *Controller) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}
