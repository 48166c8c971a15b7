// internal/domain/notification/entity.go
package notification

import "time"

type NotificationType string

const (
	TypeSystem   NotificationType = "system"
	TypeAlert    NotificationType = "alert"
	TypeInfo     NotificationType = "info"
	TypeCase     NotificationType = "case"
	TypeDonation NotificationType = "donation"
)

// Notification is one entry in the member's notification feed. The feed is
// ordered newest-first; pushed items are inserted at the head.
type Notification struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// ListResponse wraps GET /notifications.
type ListResponse struct {
	Message string         `json:"message,omitempty"`
	Data    []Notification `json:"data"`
}

// CountResponse wraps GET /notifications/unread/count.
type CountResponse struct {
	Message string `json:"message,omitempty"`
	Data    struct {
		Count int `json:"count"`
	} `json:"data"`
}
