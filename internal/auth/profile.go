// internal/auth/profile.go
package auth

import (
	"context"
	"encoding/json"

	"janmanch-client/internal/credential"
	domain "janmanch-client/internal/domain/auth"
	xerrors "janmanch-client/internal/pkg/errors"
)

// CurrentUser fetches the authenticated member's profile and refreshes the
// cached copy in the credential mirror.
func (c *Controller) CurrentUser(ctx context.Context) (*domain.AuthUser, error) {
	if !c.IsAuthenticated() {
		return nil, xerrors.ErrNotAuthenticated
	}
	var resp domain.UserResponse
	if err := c.http.Post(ctx, "/users/me", nil, &resp); err != nil {
		return nil, c.authFailed(err)
	}
	c.cacheUser(resp.Data)
	return &resp.Data, nil
}

// UpdateProfile updates editable profile fields.
func (c *Controller) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.AuthUser, error) {
	if !c.IsAuthenticated() {
		return nil, xerrors.ErrNotAuthenticated
	}
	var resp domain.UserResponse
	if err := c.http.Put(ctx, "/users/me", req, &resp); err != nil {
		return nil, c.authFailed(err)
	}
	c.cacheUser(resp.Data)
	return &resp.Data, nil
}

// CachedUser returns the last-known profile from the credential mirror,
// usable before the first fetch of a resumed session.
func (c *Controller) CachedUser() (*domain.AuthUser, bool) {
	raw, ok := c.creds.Get(credential.KeyUser)
	if !ok {
		return nil, false
	}
	var user domain.AuthUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

func (c *Controller) cacheUser(user domain.AuthUser) {
	if raw, err := json.Marshal(user); err == nil {
		c.creds.Set(credential.KeyUser, string(raw), credential.LifetimeLong)
	}
	c.stateMu.Lock()
	c.userID = user.ID
	c.stateMu.Unlock()
}
