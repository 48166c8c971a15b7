// internal/devserver/ws.go
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	rt "janmanch-client/internal/domain/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleWS(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		respondError(c, http.StatusUnauthorized, "missing authorization token")
		return
	}
	userID, sessionID, _, err := s.issuer.Parse(token)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if !s.state.SessionActive(sessionID, userID) {
		respondError(c, http.StatusUnauthorized, "session expired or revoked")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:       s.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    userID,
		sessionID: sessionID,
	}
	s.hub.register(client)

	go client.writePump()
	go client.readPump(s.onSocketMessage)
}

func (s *Server) onSocketMessage(client *wsClient, msg rt.Message) {
	switch msg.Event {
	case rt.EventSessionConnect:
		var payload rt.SessionConnectPayload
		_ = json.Unmarshal(msg.Data, &payload)
		client.sendEvent(rt.EventSessionActivated, map[string]string{"sessionId": client.sessionID})

	case rt.EventNotificationFetch:
		payload := rt.NotificationFetchPayload{Limit: 20}
		_ = json.Unmarshal(msg.Data, &payload)
		feed := s.state.Notifications(client.userID, payload.Limit, payload.Skip, false)
		client.sendEvent(rt.EventNotificationList, feed)

	default:
		client.sendEvent(rt.EventNotificationError, rt.ErrorPayload{
			Message: "unsupported event: " + string(msg.Event),
		})
	}
}
