// Package web exposes the assistant over HTTP. Each chat request carries a
// session ID so concurrent users keep independent conversations.
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"calassist/internal/dialog"
	"calassist/internal/logging"
	"calassist/internal/session"
)

// Server routes chat traffic to the dialog manager and persists conversation
// state between turns.
type Server struct {
	store   *session.Store
	manager *dialog.Manager
	engine  *gin.Engine
	started time.Time
}

// New builds the HTTP server and registers its routes.
func New(store *session.Store, manager *dialog.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:   store,
		manager: manager,
		engine:  gin.New(),
		started: time.Now(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/api/stats", s.handleStats)

	api := s.engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/meetings", s.handleMeetings)
	api.POST("/session/clear", s.handleClearSession)

	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conv, err := s.store.Get(sessionID)
	if err != nil {
		logging.Warn("web", "load session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}

	reply := s.manager.Process(c.Request.Context(), conv, req.Message)

	if err := s.store.Put(sessionID, conv); err != nil {
		logging.Warn("web", "save session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{SessionID: sessionID, Reply: reply})
}

func (s *Server) handleMeetings(c *gin.Context) {
	meetings, err := s.store.Meetings()
	if err != nil {
		logging.Warn("web", "list meetings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meetings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

type clearRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (s *Server) handleClearSession(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	if err := s.store.Delete(req.SessionID); err != nil {
		logging.Warn("web", "clear session %s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
