// internal/domain/auth/entity.go
package auth

import "time"

// Credential is the token + session-id pair identifying an authenticated
// client. The token is short-lived and rotated by the server via response
// headers; the session id outlives it by roughly a month.
type Credential struct {
	Token     string     `json:"token"`
	SessionID string     `json:"sessionId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Valid reports whether the credential can authenticate a request.
// Both halves must be present; the expiry, when known, must not have passed.
func (c Credential) Valid() bool {
	if c.Token == "" || c.SessionID == "" {
		return false
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return false
	}
	return true
}

// AuthUser is the member profile returned by the backend on login and from
// the /users/me endpoints.
type AuthUser struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	MembershipID string    `json:"membershipId,omitempty"`
	Role         string    `json:"role,omitempty"`
	District     string    `json:"district,omitempty"`
	State        string    `json:"state,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
