// internal/devserver/handlers.go
package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	authdomain "janmanch-client/internal/domain/auth"
	notifdomain "janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"
	"janmanch-client/internal/httpclient"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, "missing authorization token")
			return
		}
		userID, sessionID, issuedAt, err := s.issuer.Parse(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !s.state.SessionActive(sessionID, userID) {
			respondError(c, http.StatusUnauthorized, "session expired or revoked")
			return
		}

		// Rotate aging tokens on any authenticated response.
		if time.Since(issuedAt) > s.cfg.RotateAfter {
			if fresh, err := s.issuer.Issue(userID, sessionID); err == nil {
				c.Header(httpclient.HeaderNewToken, fresh)
			}
		}

		c.Set("user_id", userID)
		c.Set("session_id", sessionID)
		c.Next()
	}
}

// ========== Auth ==========

func (s *Server) handleLogin(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	acc, ok := s.state.Authenticate(req.Identifier, req.Password)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	deviceType := c.GetHeader(httpclient.HeaderDeviceType)
	if deviceType == "" {
		deviceType = "web"
	}
	sess := s.state.CreateSession(acc.ID, deviceType, c.ClientIP())

	token, err := s.issuer.Issue(acc.ID, sess.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.Header(httpclient.HeaderNewToken, token)
	c.Header(httpclient.HeaderSessionID, sess.ID)

	// Other devices learn about the new session immediately.
	s.hub.SendToUser(acc.ID, rt.EventSessionCreated, gin.H{"id": sess.ID, "deviceType": deviceType})

	s.logger.Info("login", zap.String("user_id", acc.ID), zap.String("session_id", sess.ID))
	respondData(c, http.StatusOK, "login successful", authdomain.LoginResult{
		Token:     token,
		SessionID: sess.ID,
		User:      acc.Profile(),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.GetString("session_id")
	s.state.RevokeSession(sessionID, userID)
	respondData(c, http.StatusOK, "logout successful", nil)
}

func (s *Server) handleRegister(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	field := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := authdomain.RegisterRequest{
		FullName: field("fullName"),
		Phone:    field("phone"),
		Email:    field("email"),
		District: field("district"),
		State:    field("state"),
		Password: field("password"),
	}

	var fields []fieldError
	if req.FullName == "" {
		fields = append(fields, fieldError{Field: "fullName", Msg: "full name is required"})
	}
	if req.Phone == "" {
		fields = append(fields, fieldError{Field: "phone", Msg: "phone is required"})
	}
	if req.Password == "" {
		fields = append(fields, fieldError{Field: "password", Msg: "password is required"})
	}
	docCount := 0
	for _, files := range form.File {
		docCount += len(files)
	}
	if docCount > 4 {
		fields = append(fields, fieldError{Field: "documents", Msg: "at most 4 documents may be attached"})
	}
	if len(fields) > 0 {
		respondError(c, http.StatusBadRequest, "validation failed", fields...)
		return
	}

	acc, err := s.state.RegisterAccount(req)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to register")
		return
	}
	s.state.SetOTP(req.Phone, s.cfg.OTP)
	s.logger.Info("registration received",
		zap.String("phone", req.Phone), zap.Int("documents", docCount))

	respondData(c, http.StatusCreated, "registration received", gin.H{
		"registrationId": acc.ID,
		"status":         "pending_verification",
	})
}

func (s *Server) handleSendOTP(c *gin.Context) {
	var req authdomain.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Identifier == "" {
		respondError(c, http.StatusBadRequest, "identifier is required")
		return
	}
	s.state.SetOTP(req.Identifier, s.cfg.OTP)
	s.logger.Info("otp issued", zap.String("identifier", req.Identifier), zap.String("otp", s.cfg.OTP))
	respondData(c, http.StatusOK, "otp sent", nil)
}

func (s *Server) handleVerifyOTP(c *gin.Context) {
	var req authdomain.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	if !s.state.VerifyOTP(req.Identifier, req.OTP) {
		respondError(c, http.StatusBadRequest, "invalid or expired otp")
		return
	}
	respondData(c, http.StatusOK, "otp verified", nil)
}

// ========== Sessions ==========

func (s *Server) handleActiveSessions(c *gin.Context) {
	userID := c.GetString("user_id")
	respondData(c, http.StatusOK, "active sessions", s.state.ActiveSessions(userID))
}

func (s *Server) handleRevokeSession(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")

	sess, ok := s.state.RevokeSession(id, userID)
	if !ok {
		respondError(c, http.StatusNotFound, "session not found")
		return
	}
	s.hub.SendToUser(userID, rt.EventSessionRevoked, rt.SessionRevokedPayload{
		SessionID:  sess.ID,
		DeviceType: sess.DeviceType,
		Location:   sess.Location,
	})
	respondData(c, http.StatusOK, "session revoked", nil)
}

func (s *Server) handleRevokeOthers(c *gin.Context) {
	userID := c.GetString("user_id")
	current := c.GetString("session_id")

	revoked := s.state.RevokeOtherSessions(userID, current)
	for _, sess := range revoked {
		s.hub.SendToUser(userID, rt.EventSessionRevoked, rt.SessionRevokedPayload{
			SessionID:  sess.ID,
			DeviceType: sess.DeviceType,
			Location:   sess.Location,
		})
	}
	s.hub.SendToUser(userID, rt.EventSessionsRevoked, nil)
	respondData(c, http.StatusOK, "other sessions revoked", gin.H{"revoked": len(revoked)})
}

// ========== Profile ==========

func (s *Server) handleMe(c *gin.Context) {
	acc, ok := s.state.AccountByID(c.GetString("user_id"))
	if !ok {
		respondError(c, http.StatusNotFound, "account not found")
		return
	}
	respondData(c, http.StatusOK, "current user", acc.Profile())
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	var req authdomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	acc, ok := s.state.UpdateAccount(c.GetString("user_id"), req)
	if !ok {
		respondError(c, http.StatusNotFound, "account not found")
		return
	}
	respondData(c, http.StatusOK, "profile updated", acc.Profile())
}

// ========== Notifications ==========

func (s *Server) handleListNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	unreadOnly := c.Query("unreadOnly") == "true"
	respondData(c, http.StatusOK, "notifications", s.state.Notifications(userID, limit, skip, unreadOnly))
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	userID := c.GetString("user_id")
	respondData(c, http.StatusOK, "unread count", gin.H{"count": s.state.UnreadCount(userID)})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")
	if !s.state.MarkNotificationRead(userID, id) {
		respondError(c, http.StatusNotFound, "notification not found")
		return
	}
	s.hub.SendToUser(userID, rt.EventNotificationRead, rt.NotificationRefPayload{NotificationID: id})
	respondData(c, http.StatusOK, "marked as read", nil)
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	userID := c.GetString("user_id")
	s.state.MarkAllNotificationsRead(userID)
	s.hub.SendToUser(userID, rt.EventNotificationReadAll, nil)
	respondData(c, http.StatusOK, "all marked as read", nil)
}

func (s *Server) handleDeleteNotification(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")
	if !s.state.DeleteNotification(userID, id) {
		respondError(c, http.StatusNotFound, "notification not found")
		return
	}
	s.hub.SendToUser(userID, rt.EventNotificationDeleted, rt.NotificationRefPayload{NotificationID: id})
	respondData(c, http.StatusOK, "deleted", nil)
}

func (s *Server) handleDeleteAllNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	s.state.DeleteAllNotifications(userID)
	s.hub.SendToUser(userID, rt.EventNotificationDeletedAll, nil)
	respondData(c, http.StatusOK, "all deleted", nil)
}

// handleDevNotify creates a notification and pushes it, so a second
// terminal can drive the watch demo.
func (s *Server) handleDevNotify(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}
	if req.Type == "" {
		req.Type = string(notifdomain.TypeInfo)
	}

	n := s.state.AddNotification(userID, notifdomain.Notification{
		Type:    notifdomain.NotificationType(req.Type),
		Title:   req.Title,
		Message: req.Message,
	})
	s.hub.SendToUser(userID, rt.EventNotificationNew, n)
	respondData(c, http.StatusCreated, "notification created", n)
}
