// internal/domain/session/entity.go
package session

import "time"

// Session is a server-tracked device login, mirrored client-side. The list
// is read-only from the client's perspective except for revoke calls; it is
// refreshed by explicit fetch or invalidated by push events.
type Session struct {
	ID           string    `json:"id"`
	DeviceType   string    `json:"deviceType"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	IsCurrent    bool      `json:"isCurrent"`
}

// ListResponse wraps GET /auth/sessions/active.
type ListResponse struct {
	Message string    `json:"message,omitempty"`
	Data    []Session `json:"data"`
}
