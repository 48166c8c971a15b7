// internal/realtime/dispatch.go
package realtime

import (
	"encoding/json"

	"janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"

	"go.uber.org/zap"
)

// dispatch applies one inbound event. The read loop calls it serially, so
// reducers never run concurrently even though delivery is asynchronous.
func (c *Channel) dispatch(msg rt.Message) {
	switch msg.Event {
	case rt.EventNotificationList:
		var items []notification.Notification
		if err := json.Unmarshal(msg.Data, &items); err != nil {
			c.logger.Warn("bad notification list payload", zap.Error(err))
			return
		}
		c.notifications.ReplaceAll(items)

	case rt.EventNotificationNew:
		var item notification.Notification
		if err := json.Unmarshal(msg.Data, &item); err != nil {
			c.logger.Warn("bad notification payload", zap.Error(err))
			return
		}
		c.notifications.Add(item)
		if c.hooks.OnNotification != nil {
			c.hooks.OnNotification(item)
		}

	case rt.EventNotificationRead:
		var ref rt.NotificationRefPayload
		if err := json.Unmarshal(msg.Data, &ref); err != nil {
			return
		}
		c.notifications.MarkRead(ref.NotificationID)

	case rt.EventNotificationReadAll:
		c.notifications.MarkAllRead()

	case rt.EventNotificationDeleted:
		var ref rt.NotificationRefPayload
		if err := json.Unmarshal(msg.Data, &ref); err != nil {
			return
		}
		c.notifications.Remove(ref.NotificationID)

	case rt.EventNotificationDeletedAll:
		c.notifications.Clear()

	case rt.EventNotificationError:
		var payload rt.ErrorPayload
		_ = json.Unmarshal(msg.Data, &payload)
		c.logger.Warn("realtime channel error", zap.String("message", payload.Message))
		if c.hooks.OnError != nil {
			c.hooks.OnError(payload.Message)
		}

	case rt.EventSessionRevoked:
		var payload rt.SessionRevokedPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}
		if c.hooks.OnSessionRevoked != nil {
			c.hooks.OnSessionRevoked(payload)
		}

	case rt.EventSessionsRevoked:
		c.sessions.Invalidate()

	case rt.EventSessionCreated, rt.EventSessionUpdated,
		rt.EventSessionActivated, rt.EventSessionReconnected:
		c.sessions.Invalidate()

	default:
		c.logger.Debug("unhandled realtime event", zap.String("event", string(msg.Event)))
	}
}
