package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/identity"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

// TokenVerifier authenticates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*identity.Identity, error)
}

// ChatTokenIssuer mints client tokens for the chat and video back-end
type ChatTokenIssuer interface {
	CreateUserToken(userID string, ttl time.Duration) (string, error)
}

// RateLimiter admits or rejects a call for a key
type RateLimiter interface {
	Allow(key string) bool
}

// ProfileStore is the slice of the session store the HTTP layer touches directly
type ProfileStore interface {
	UpsertUser(ctx context.Context, user *types.User) (*types.User, error)
	HealthCheck(ctx context.Context) error
}

// Deps wires the server to the rest of the application
type Deps struct {
	Coordinator  interfaces.SessionCoordinator
	Query        interfaces.SessionQuery
	Profiles     ProfileStore
	Verifier     TokenVerifier
	ChatTokens   ChatTokenIssuer
	ChatTokenTTL time.Duration
	CORSOrigin   string
	// ChatUsers mirrors callers into the chat back-end before a chat token
	// is issued; nil skips the sync
	ChatUsers interfaces.ChatUserDirectory
	// Limiter caps session mutations per user; nil leaves them unlimited
	Limiter RateLimiter
	// Lobby serves the live feed at /sessions/live when set
	Lobby http.Handler
	Log   logrus.FieldLogger
}

// ARCHITECTURAL DISCOVERY: HTTP API layer serves as pure interface between external clients and internal components
// Clean separation - no business logic, only HTTP handling and JSON serialization
type Server struct {
	coordinator  interfaces.SessionCoordinator
	query        interfaces.SessionQuery
	profiles     ProfileStore
	verifier     TokenVerifier
	chatTokens   ChatTokenIssuer
	chatTokenTTL time.Duration
	chatUsers    interfaces.ChatUserDirectory
	corsOrigin   string
	limiter      RateLimiter
	lobby        http.Handler
	log          logrus.FieldLogger
	engine       *gin.Engine
}

// NewServer builds the router. gin's mode is a process setting and is left to the caller.
func NewServer(deps Deps) *Server {
	s := &Server{
		coordinator:  deps.Coordinator,
		query:        deps.Query,
		profiles:     deps.Profiles,
		verifier:     deps.Verifier,
		chatTokens:   deps.ChatTokens,
		chatTokenTTL: deps.ChatTokenTTL,
		chatUsers:    deps.ChatUsers,
		corsOrigin:   deps.CORSOrigin,
		limiter:      deps.Limiter,
		lobby:        deps.Lobby,
		log:          deps.Log.WithField("component", "http"),
		engine:       gin.New(),
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}

	s.setupRoutes()
	return s
}

// ARCHITECTURAL DISCOVERY: Route setup follows REST conventions with proper middleware
// Listing active sessions and health are public, everything else needs a verified caller
func (s *Server) setupRoutes() {
	s.engine.Use(s.requestLogging(), s.recovery(), s.cors())

	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/sessions/active", s.listActiveSessions)
	if s.lobby != nil {
		s.engine.GET("/sessions/live", gin.WrapH(s.lobby))
	}

	auth := s.engine.Group("/", s.authRequired())
	auth.POST("/sessions", s.rateLimited(), s.createSession)
	auth.GET("/sessions/mine/recent", s.listRecentSessions)
	auth.GET("/sessions/:id", s.getSession)
	auth.POST("/sessions/:id/join", s.rateLimited(), s.joinSession)
	auth.POST("/sessions/:id/end", s.rateLimited(), s.endSession)
	auth.GET("/chat/token", s.syncChatUser(), s.chatToken)

	s.engine.NoRoute(func(c *gin.Context) {
		s.sendError(c, http.StatusNotFound, kindNotFound, "route not found")
	})
}

// FUNCTIONAL DISCOVERY: Implement http.Handler interface for integration with standard HTTP server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}
