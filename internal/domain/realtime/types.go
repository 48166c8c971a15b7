// internal/domain/realtime/types.go
package realtime

import (
	"encoding/json"
)

// EventType names one realtime event on the wire. Client and server share
// a single logical namespace; events use the domain:action form.
type EventType string

const (
	// Client -> server
	EventSessionConnect    EventType = "session:connect"
	EventNotificationFetch EventType = "notification:fetch"

	// Server -> client, session scoped
	EventSessionActivated   EventType = "session:activated"
	EventSessionReconnected EventType = "session:reconnected"
	EventSessionCreated     EventType = "session:created"
	EventSessionUpdated     EventType = "session:updated"
	EventSessionRevoked     EventType = "session:revoked"
	EventSessionsRevoked    EventType = "sessions:revoked"

	// Server -> client, notification scoped
	EventNotificationList       EventType = "notification:list"
	EventNotificationNew        EventType = "notification:new"
	EventNotificationRead       EventType = "notification:marked-as-read"
	EventNotificationReadAll    EventType = "notification:all-marked-as-read"
	EventNotificationDeleted    EventType = "notification:deleted"
	EventNotificationDeletedAll EventType = "notification:all-deleted"
	EventNotificationError      EventType = "notification:error"
)

// Message is the universal wire envelope. Data is kept raw so each event's
// payload is decoded only by the code that handles it.
type Message struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds an envelope around a payload.
func NewMessage(event EventType, data interface{}) (Message, error) {
	if data == nil {
		return Message{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: raw}, nil
}

// SessionConnectPayload announces the current session for presence tracking.
type SessionConnectPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// NotificationFetchPayload requests an initial snapshot of the feed.
type NotificationFetchPayload struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// SessionRevokedPayload identifies the session the server tore down.
type SessionRevokedPayload struct {
	SessionID  string `json:"sessionId"`
	DeviceType string `json:"deviceType,omitempty"`
	Location   string `json:"location,omitempty"`
}

// NotificationRefPayload references a single notification by id.
type NotificationRefPayload struct {
	NotificationID string `json:"notificationId"`
}

// ErrorPayload carries a non-fatal channel error message.
type ErrorPayload struct {
	Message string `json:"message"`
}
