package devserver

import (
	"context"
	"time"

	"talentlink-inbox/config"
	"talentlink-inbox/internal/middleware"
	"talentlink-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Server assembles the dev backend: REST routes under /api plus the
// per-conversation websocket endpoint.
type Server struct {
	engine *gin.Engine
	hub    *Hub
	log    *logger.Logger
}

func NewServer(cfg *config.Config, store *Store, log *logger.Logger) *Server {
	if cfg.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := NewHub()
	tm := NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryMin)*time.Minute)
	handlers := NewHandlers(store, hub, tm, log)
	wsHandler := NewWSHandler(store, hub, tm, log)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware(log))
	engine.Use(middleware.ErrorHandler(log))

	api := engine.Group("/api")
	api.POST("/auth/login", handlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(tm))
	authed.GET("/conversations", handlers.ListConversations)
	authed.GET("/conversations/search", handlers.SearchConversations)
	authed.POST("/conversations", handlers.StartConversation)
	authed.GET("/conversations/:id/messages", handlers.ListMessages)
	authed.POST("/conversations/:id/messages", handlers.SendMessage)
	authed.POST("/conversations/:id/read", handlers.MarkRead)
	authed.POST("/conversations/:id/typing", handlers.SetTyping)
	authed.PATCH("/messages/:id", handlers.EditMessage)
	authed.DELETE("/messages/:id", handlers.DeleteMessage)
	authed.POST("/messages/:id/reactions", handlers.AddReaction)
	authed.DELETE("/messages/:id/reactions/:kind", handlers.RemoveReaction)
	authed.GET("/attachments/:id/:filename", handlers.Attachment)

	engine.GET("/ws/conversations/:id", wsHandler.Connect)

	return &Server{engine: engine, hub: hub, log: log}
}

// Run starts the hub loop and serves until the listener fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)
	s.log.Infof("dev server listening on %s", addr)
	return s.engine.Run(addr)
}

// Engine exposes the router for httptest-based tests.
func (s *Server) Engine() *gin.Engine { return s.engine }
