// internal/auth/sessions.go
package auth

import (
	"context"

	"janmanch-client/internal/credential"
	sessiondomain "janmanch-client/internal/domain/session"
	xerrors "janmanch-client/internal/pkg/errors"
)

// ActiveSessions returns the member's device sessions. The cached list is
// served until a push event or a revoke call invalidates it.
func (c *Controller) ActiveSessions(ctx context.Context) ([]sessiondomain.Session, error) {
	if !c.IsAuthenticated() {
		return nil, xerrors.ErrNotAuthenticated
	}
	if !c.sessions.Stale() {
		return c.sessions.Snapshot(), nil
	}

	var resp sessiondomain.ListResponse
	if err := c.http.Get(ctx, "/auth/sessions/active", &resp); err != nil {
		return nil, c.authFailed(err)
	}

	current, _ := c.creds.Get(credential.KeySessionID)
	for i := range resp.Data {
		resp.Data[i].IsCurrent = resp.Data[i].ID == current
	}
	c.sessions.Replace(resp.Data)
	return c.sessions.Snapshot(), nil
}

// RevokeSession revokes one device session. On success the cached list is
// invalidated so the next read is fresh.
func (c *Controller) RevokeSession(ctx context.Context, id string) error {
	if !c.IsAuthenticated() {
		return xerrors.ErrNotAuthenticated
	}
	if err := c.http.Delete(ctx, "/auth/sessions/"+id, nil, nil); err != nil {
		return c.authFailed(err)
	}
	c.sessions.Invalidate()
	return nil
}

// RevokeOtherSessions revokes every session except the current one.
func (c *Controller) RevokeOtherSessions(ctx context.Context) error {
	if !c.IsAuthenticated() {
		return xerrors.ErrNotAuthenticated
	}
	if err := c.http.Delete(ctx, "/auth/sessions/logout-others", nil, nil); err != nil {
		return c.authFailed(err)
	}
	c.sessions.Invalidate()
	return nil
}
