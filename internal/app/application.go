package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/api"
	"sessionhub/internal/badgerstore"
	"sessionhub/internal/config"
	"sessionhub/internal/database"
	"sessionhub/internal/hub"
	"sessionhub/internal/identity"
	"sessionhub/internal/logger"
	"sessionhub/internal/query"
	"sessionhub/internal/ratelimit"
	"sessionhub/internal/session"
	"sessionhub/internal/stream"
	"sessionhub/internal/websocket"
	pkgdatabase "sessionhub/pkg/database"
	"sessionhub/pkg/interfaces"
)

// Application coordinates all system components
// Component initialization follows strict dependency order:
// Logger → Store → Stream clients → Verifier → Hub → Coordinator → Query → API → HTTP
type Application struct {
	config      *config.Config
	log         *logrus.Logger
	store       interfaces.SessionStore
	lobby       *hub.Hub
	coordinator *session.Coordinator
	query       *query.Service
	apiServer   *api.Server
	httpServer  *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewApplication creates a new application instance with all components initialized
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Validate configuration before component initialization
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// STEP 1: Logger and gin mode are process-wide
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	gin.SetMode(cfg.HTTP.Mode)

	// STEP 2: Open the session store (foundation layer)
	store, err := OpenStore(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	// STEP 3: Stream video and chat clients share credentials
	streamConfig := stream.Config{
		APIKey:       cfg.Stream.APIKey,
		APISecret:    cfg.Stream.APISecret,
		VideoBaseURL: cfg.Stream.VideoBaseURL,
		ChatBaseURL:  cfg.Stream.ChatBaseURL,
		Timeout:      cfg.Stream.Timeout,
	}
	video, err := stream.NewVideoClient(streamConfig, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize video client: %w", err)
	}
	chat, err := stream.NewChatClient(streamConfig, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize chat client: %w", err)
	}

	// STEP 4: Bearer token verification
	verifier := identity.NewVerifier(cfg.Identity.Secret, cfg.Identity.Issuer, cfg.Identity.Audience)

	// STEP 5: Lobby hub receives every committed transition
	lobby := hub.NewHub(log)

	// STEP 6: Lifecycle coordinator and read models over the same store
	coordinator := session.NewCoordinator(store, video, chat, session.Config{
		ExternalTimeout: cfg.Session.ExternalTimeout,
		CallIDAttempts:  cfg.Session.CallIDAttempts,
		Events:          lobby,
		ChatUsers:       chat,
	}, log)
	queryService := query.NewService(store, log)

	// STEP 7: Initialize API server with all business dependencies
	apiServer := api.NewServer(api.Deps{
		Coordinator:  coordinator,
		Query:        queryService,
		Profiles:     store,
		Verifier:     verifier,
		ChatTokens:   chat,
		ChatTokenTTL: cfg.Stream.ChatTokenTTL,
		ChatUsers:    chat,
		CORSOrigin:   cfg.HTTP.CORSOrigin,
		Limiter:      ratelimit.New(cfg.HTTP.RateLimit, time.Minute),
		Lobby:        websocket.NewHandler(lobby, cfg.HTTP.CORSOrigin, log),
		Log:          log,
	})

	// STEP 8: Setup HTTP server
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           apiServer,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		log:         log,
		store:       store,
		lobby:       lobby,
		coordinator: coordinator,
		query:       queryService,
		apiServer:   apiServer,
		httpServer:  httpServer,
		serveErr:    make(chan error, 1),
	}, nil
}

// OpenStore opens the configured backend and, for SQLite, brings the schema up to date.
func OpenStore(cfg *config.DatabaseConfig, log *logrus.Logger) (interfaces.SessionStore, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		store, err := badgerstore.Open(badgerstore.Options{Path: cfg.BadgerPath}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize badger store: %w", err)
		}
		log.WithField("path", cfg.BadgerPath).Info("badger store opened")
		return store, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbConfig := pkgdatabase.DefaultConfig()
		dbConfig.DatabasePath = cfg.Path
		dbConfig.WriteTimeout = cfg.WriteTimeout

		manager, err := database.NewManager(dbConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database manager: %w", err)
		}

		// Apply database migrations to ensure schema is up to date
		if err := pkgdatabase.NewMigrationManager(manager.GetDB()).ApplyMigrations(); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		if err := pkgdatabase.NewSchemaValidator(manager.GetDB()).Validate(); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("database schema invalid: %w", err)
		}
		log.WithField("path", cfg.Path).Info("database migrations applied successfully")
		return manager, nil

	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}

// Start binds the listener and serves in the background.
// A bind failure is returned directly; later serve errors arrive on Errors
func (app *Application) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// STEP 1: Hub first so no transition committed by a request is lost
	if err := app.lobby.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start lobby hub: %w", err)
	}

	// STEP 2: Bind and serve
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		_ = app.lobby.Stop()
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.mu.Lock()
	app.listener = listener
	app.mu.Unlock()

	go func() {
		if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.serveErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	app.log.WithField("addr", listener.Addr().String()).Info("sessionhub started")
	return nil
}

// Errors reports fatal serve errors after Start returned
func (app *Application) Errors() <-chan error {
	return app.serveErr
}

// Stop gracefully shuts down the application
// Reverse dependency order: HTTP → Hub → Store
func (app *Application) Stop(ctx context.Context) error {
	app.log.Info("shutting down sessionhub")

	var errs []error
	// STEP 1: Stop accepting new requests and drain in-flight ones
	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, err)
	}

	// STEP 2: Close lobby sockets; Shutdown does not track hijacked connections
	if err := app.lobby.Stop(); err != nil && !errors.Is(err, hub.ErrHubNotRunning) {
		errs = append(errs, err)
	}

	// STEP 3: Close the store once no handler can reach it
	if err := app.store.Close(); err != nil {
		app.log.WithError(err).Error("store shutdown error")
		errs = append(errs, err)
	}

	app.log.Info("sessionhub shutdown complete")
	return errors.Join(errs...)
}

// ShutdownTimeout is the configured drain budget for Stop
func (app *Application) ShutdownTimeout() time.Duration {
	return app.config.HTTP.ShutdownTimeout
}

// GetAddr returns the bound address once started, the configured one before
func (app *Application) GetAddr() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}

// Logger exposes the application logger to the entry point
func (app *Application) Logger() logrus.FieldLogger {
	return app.log
}
