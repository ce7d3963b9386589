package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sessionhub/pkg/types"
)

const healthTimeout = 5 * time.Second

type SessionResponse struct {
	Session *types.Session `json:"session"`
}

type EndSessionResponse struct {
	Session *types.Session `json:"session"`
	Message string         `json:"message"`
}

type SessionDetailResponse struct {
	Session *types.SessionDetail `json:"session"`
}

type ListSessionsResponse struct {
	Sessions []*types.SessionDetail `json:"sessions"`
}

type ChatTokenResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserImage string `json:"userImage"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// POST /sessions
func (s *Server) createSession(c *gin.Context) {
	var req types.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.sendError(c, http.StatusBadRequest, kindBadRequest, "invalid JSON body")
		return
	}

	created, err := s.coordinator.CreateSession(c.Request.Context(), req, actorOf(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Session: created})
}

// GET /sessions/active
func (s *Server) listActiveSessions(c *gin.Context) {
	sessions, err := s.query.ListActive(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListSessionsResponse{Sessions: sessions})
}

// GET /sessions/mine/recent
func (s *Server) listRecentSessions(c *gin.Context) {
	sessions, err := s.query.ListRecent(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListSessionsResponse{Sessions: sessions})
}

// GET /sessions/:id
func (s *Server) getSession(c *gin.Context) {
	detail, err := s.query.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionDetailResponse{Session: detail})
}

// POST /sessions/:id/join
func (s *Server) joinSession(c *gin.Context) {
	joined, err := s.coordinator.JoinSession(c.Request.Context(), c.Param("id"), actorOf(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: joined})
}

// POST /sessions/:id/end
func (s *Server) endSession(c *gin.Context) {
	ended, err := s.coordinator.EndSession(c.Request.Context(), c.Param("id"), actorOf(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, EndSessionResponse{Session: ended, Message: "Session ended successfully"})
}

// GET /chat/token
func (s *Server) chatToken(c *gin.Context) {
	user := currentUser(c)
	token, err := s.chatTokens.CreateUserToken(user.ExternalID, s.chatTokenTTL)
	if err != nil {
		requestLogger(c, s.log).WithError(err).Error("Failed to sign chat token")
		s.sendError(c, http.StatusInternalServerError, kindInternal, "failed to issue chat token")
		return
	}
	c.JSON(http.StatusOK, ChatTokenResponse{
		Token:     token,
		UserID:    user.ExternalID,
		UserName:  user.Name,
		UserImage: user.ProfileImage,
	})
}

// GET /health
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Database: "ok"}
	if err := s.profiles.HealthCheck(ctx); err != nil {
		requestLogger(c, s.log).WithError(err).Warn("Health check failed")
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
