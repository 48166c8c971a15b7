// internal/devserver/server.go
package devserver

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config tunes the dev backend. Zero values get sensible dev defaults.
type Config struct {
	Addr        string
	TokenTTL    time.Duration
	RotateAfter time.Duration
	OTP         string
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.RotateAfter == 0 {
		c.RotateAfter = 15 * time.Minute
	}
	if c.OTP == "" {
		c.OTP = "123456"
	}
	return c
}

// Server is an in-memory stand-in for the membership backend so the SDK
// can be exercised end to end without it. It implements the HTTP surface
// and the realtime namespace the client speaks.
type Server struct {
	cfg      Config
	state    *State
	hub      *Hub
	issuer   *tokenIssuer
	engine   *gin.Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}

	s := &Server{
		cfg:    cfg,
		state:  NewState(),
		hub:    NewHub(logger),
		issuer: newTokenIssuer(secret, cfg.TokenTTL),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

// Engine exposes the router for httptest-based tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// State exposes the in-memory backend state for seeding.
func (s *Server) State() *State { return s.state }

// Hub exposes the realtime fan-out for pushing test events.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.logger.Info("dev backend listening", zap.String("addr", s.cfg.Addr))
	return s.engine.Run(s.cfg.Addr)
}

func (s *Server) routes() {
	s.engine.GET("/ws", s.handleWS)

	api := s.engine.Group("/api/v1")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", s.handleLogin)
		authPublic.POST("/register", s.handleRegister)
		authPublic.POST("/register/send-otp", s.handleSendOTP)
		authPublic.POST("/register/verify-otp", s.handleVerifyOTP)
	}

	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.POST("/auth/sessions/logout", s.handleLogout)
		authed.GET("/auth/sessions/active", s.handleActiveSessions)
		authed.DELETE("/auth/sessions/logout-others", s.handleRevokeOthers)
		authed.DELETE("/auth/sessions/:id", s.handleRevokeSession)

		authed.POST("/users/me", s.handleMe)
		authed.PUT("/users/me", s.handleUpdateMe)

		authed.GET("/notifications", s.handleListNotifications)
		authed.GET("/notifications/unread/count", s.handleUnreadCount)
		authed.PATCH("/notifications/:id/read", s.handleMarkRead)
		authed.PATCH("/notifications/read-all", s.handleMarkAllRead)
		authed.DELETE("/notifications/:id", s.handleDeleteNotification)
		authed.DELETE("/notifications", s.handleDeleteAllNotifications)

		authed.POST("/dev/notify", s.handleDevNotify)
	}
}
