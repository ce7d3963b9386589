package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/identity"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxUser      = "user"
)

// requestLogging tags each request with an id and logs its outcome
func (s *Server) requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		entry := requestLogger(c, s.log).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// requestLogger returns log scoped to the current request id
func requestLogger(c *gin.Context, log logrus.FieldLogger) logrus.FieldLogger {
	if id, ok := c.Get(ctxRequestID); ok {
		return log.WithField(ctxRequestID, id)
	}
	return log
}

// recovery turns a panic into a 500 with the standard error body
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		requestLogger(c, s.log).WithField("panic", recovered).Error("Recovered from panic")
		s.sendError(c, http.StatusInternalServerError, kindInternal, "internal server error")
	})
}

// cors mirrors the configured origin, answering preflights directly
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.corsOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
		if s.corsOrigin != "*" {
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authRequired verifies the bearer token and refreshes the caller's cached
// profile, which also resolves their internal user id.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := identity.FromHeader(c.GetHeader("Authorization"))
		var id *identity.Identity
		if err == nil {
			id, err = s.verifier.Verify(token)
		}
		if err != nil {
			requestLogger(c, s.log).WithError(err).Debug("Rejected unauthenticated request")
			s.sendError(c, http.StatusUnauthorized, kindUnauthorized, "authentication required")
			return
		}

		user, err := s.profiles.UpsertUser(c.Request.Context(), &types.User{
			ExternalID:   id.ExternalID,
			Name:         id.Name,
			Email:        id.Email,
			ProfileImage: id.Image,
		})
		if err != nil {
			requestLogger(c, s.log).WithError(err).Error("Failed to sync user profile")
			s.sendError(c, http.StatusInternalServerError, kindPersistence, "failed to load user profile")
			return
		}

		c.Set(ctxUser, user)
		c.Next()
	}
}

// rateLimited rejects mutations beyond the caller's budget. It runs after
// authRequired so the budget is per user, not per address
func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		user := currentUser(c)
		if !s.limiter.Allow(user.ID) {
			requestLogger(c, s.log).WithField("user_id", user.ID).Warn("Rate limit exceeded")
			s.sendError(c, http.StatusTooManyRequests, kindRateLimited, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// syncChatUser upserts the caller into the chat back-end before a chat token
// is handed out. Create and join sync inside the coordinator, after their
// local checks
func (s *Server) syncChatUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.chatUsers == nil {
			c.Next()
			return
		}
		user := currentUser(c)
		err := s.chatUsers.UpsertUsers(c.Request.Context(), []interfaces.ChatUser{{
			ID:    user.ExternalID,
			Name:  user.Name,
			Image: user.ProfileImage,
		}})
		if err != nil {
			requestLogger(c, s.log).WithError(err).WithField("external_id", user.ExternalID).Error("Failed to sync chat user")
			s.sendError(c, http.StatusBadGateway, kindExternalService, "failed to sync chat user")
			return
		}
		c.Next()
	}
}

// currentUser returns the user stored by authRequired
func currentUser(c *gin.Context) *types.User {
	return c.MustGet(ctxUser).(*types.User)
}

func actorOf(c *gin.Context) types.Actor {
	user := currentUser(c)
	return types.Actor{
		UserID:     user.ID,
		ExternalID: user.ExternalID,
		Name:       user.Name,
		Image:      user.ProfileImage,
	}
}
