package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	dbconfig "sessionhub/pkg/database"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

const (
	sessionColumns = `id, call_id, problem, difficulty, status, host_id, participant_id, created_at, updated_at`
	userColumns    = `id, external_id, name, email, profile_image, created_at, updated_at`

	// busyRetryDelay is the pause before the single retry of a write that hit SQLITE_BUSY
	busyRetryDelay = 500 * time.Millisecond
)

// Manager implements interfaces.SessionStore on SQLite
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	log          logrus.FieldLogger
	writeChannel chan writeOperation // TECHNICAL: Single-writer pattern for SQLite
	shutdown     chan struct{}
	stopped      chan struct{} // closed once writeLoop has answered every queued write
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // TECHNICAL: Protect closed status
	now          func() time.Time
}

var _ interfaces.SessionStore = (*Manager)(nil)

// writeOperation represents a database write operation
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the SQLite database and starts the writer goroutine
func NewManager(config *dbconfig.Config, log logrus.FieldLogger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// FUNCTIONAL DISCOVERY: Connection pool configuration critical for concurrent reads
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := applySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	manager := &Manager{
		db:           db,
		config:       config,
		log:          log.WithField("component", "sqlite"),
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
		stopped:      make(chan struct{}),
		now:          func() time.Time { return time.Now().UTC() },
	}

	// ARCHITECTURAL DISCOVERY: Single-writer goroutine prevents SQLite write contention
	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

// writeLoop processes all write operations in a single goroutine
func (m *Manager) writeLoop() {
	defer m.wg.Done()
	defer close(m.stopped)

	for {
		select {
		case op := <-m.writeChannel:
			// Close wins over anything still queued
			select {
			case <-m.shutdown:
				op.result <- interfaces.ErrStoreClosed
				m.rejectQueued()
				return
			default:
			}

			err := op.operation(m.db)
			if isBusy(err) {
				m.log.WithError(err).Warn("database busy, retrying write once")
				time.Sleep(busyRetryDelay)
				err = op.operation(m.db)
			}
			op.result <- err

		case <-m.shutdown:
			m.log.Debug("database write loop shutting down")
			m.rejectQueued()
			return
		}
	}
}

// rejectQueued answers writes still buffered at shutdown so no caller waits forever
func (m *Manager) rejectQueued() {
	for {
		select {
		case op := <-m.writeChannel:
			op.result <- interfaces.ErrStoreClosed
		default:
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion
func (m *Manager) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return interfaces.ErrStoreClosed
	}
	m.mu.RUnlock()

	result := make(chan error, 1)
	timeout := time.NewTimer(m.config.WriteTimeout)
	defer timeout.Stop()

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
	case <-timeout.C:
		return fmt.Errorf("write operation timeout")
	case <-ctx.Done():
		return ctx.Err()
	case <-m.shutdown:
		return interfaces.ErrStoreClosed
	}

	// The operation is owned by the writer once queued; its outcome is authoritative.
	// A write queued after the final drain is answered by the writer exiting.
	select {
	case err := <-result:
		return err
	case <-m.stopped:
		select {
		case err := <-result:
			return err
		default:
			return interfaces.ErrStoreClosed
		}
	}
}

// CreateSession inserts a new session
func (m *Manager) CreateSession(ctx context.Context, session *types.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	return m.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			INSERT INTO sessions (` + sessionColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			session.ID,
			session.CallID,
			session.Problem,
			string(session.Difficulty),
			string(session.Status),
			session.HostID,
			session.ParticipantID,
			session.CreatedAt.UTC(),
			session.UpdatedAt.UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return interfaces.ErrCallIDConflict
			}
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	// ARCHITECTURAL DISCOVERY: Read operations can be concurrent - no need for writeChannel
	row := m.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// SetParticipant seats the participant with a conditional update
// FUNCTIONAL DISCOVERY: The WHERE clause carries the whole precondition, so two
// racing joins serialize on the writer and only the first sees one affected row
func (m *Manager) SetParticipant(ctx context.Context, sessionID, participantID string) (*types.Session, error) {
	err := m.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			UPDATE sessions
			SET participant_id = ?, updated_at = ?
			WHERE id = ? AND status = 'active' AND participant_id IS NULL AND host_id <> ?
		`
		result, err := db.ExecContext(ctx, query, participantID, m.now(), sessionID, participantID)
		if err != nil {
			return fmt.Errorf("failed to set participant: %w", err)
		}
		return m.checkAffected(ctx, db, result, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return m.GetSession(ctx, sessionID)
}

// CompleteSession moves an active session to completed
func (m *Manager) CompleteSession(ctx context.Context, sessionID string) (*types.Session, error) {
	err := m.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			UPDATE sessions
			SET status = 'completed', updated_at = ?
			WHERE id = ? AND status = 'active'
		`
		result, err := db.ExecContext(ctx, query, m.now(), sessionID)
		if err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		return m.checkAffected(ctx, db, result, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return m.GetSession(ctx, sessionID)
}

// checkAffected distinguishes a lost precondition from a missing row
func (m *Manager) checkAffected(ctx context.Context, db *sql.DB, result sql.Result, sessionID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check session existence: %w", err)
	}
	if exists == 0 {
		return interfaces.ErrSessionNotFound
	}
	return interfaces.ErrPreconditionFailed
}

// ListActiveSessions returns active sessions newest first
func (m *Manager) ListActiveSessions(ctx context.Context, limit int) ([]*types.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'active'
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	return m.querySessions(ctx, query, limit)
}

// ListCompletedSessionsForUser returns the user's finished sessions newest first
func (m *Manager) ListCompletedSessionsForUser(ctx context.Context, userID string, limit int) ([]*types.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'completed' AND (host_id = ? OR participant_id = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	return m.querySessions(ctx, query, userID, userID, limit)
}

func (m *Manager) querySessions(ctx context.Context, query string, args ...interface{}) ([]*types.Session, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*types.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// UpsertUser creates or refreshes a cached profile keyed by external id
func (m *Manager) UpsertUser(ctx context.Context, user *types.User) (*types.User, error) {
	if strings.TrimSpace(user.ExternalID) == "" {
		return nil, types.ErrInvalidExternalID
	}
	now := m.now()
	err := m.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			INSERT INTO users (` + userColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(external_id) DO UPDATE SET
				name = excluded.name,
				email = excluded.email,
				profile_image = excluded.profile_image,
				updated_at = excluded.updated_at
		`
		_, err := db.ExecContext(ctx, query,
			uuid.New().String(),
			user.ExternalID,
			user.Name,
			user.Email,
			user.ProfileImage,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := m.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, user.ExternalID)
	stored, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read upserted user: %w", err)
	}
	return stored, nil
}

// GetUsers resolves a set of internal user ids
func (m *Manager) GetUsers(ctx context.Context, userIDs []string) (map[string]*types.User, error) {
	ids := lo.Uniq(lo.Compact(userIDs))
	users := make(map[string]*types.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders + `)`

	rows, err := m.db.QueryContext(ctx, query, lo.ToAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users[user.ID] = user
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// HealthCheck validates database connectivity
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var count int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	return nil
}

// GetDB returns the underlying database connection for migrations
func (m *Manager) GetDB() *sql.DB {
	return m.db
}

// Close shuts down the database manager
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	// ARCHITECTURAL DISCOVERY: Graceful shutdown requires careful goroutine coordination
	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*types.Session, error) {
	var session types.Session
	var difficulty, status string
	var participantID sql.NullString

	err := row.Scan(
		&session.ID,
		&session.CallID,
		&session.Problem,
		&difficulty,
		&status,
		&session.HostID,
		&participantID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Difficulty = types.Difficulty(difficulty)
	session.Status = types.Status(status)
	if participantID.Valid {
		session.ParticipantID = &participantID.String
	}
	return &session, nil
}

func scanUser(row rowScanner) (*types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Name,
		&user.Email,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// applySQLiteOptimizations applies performance optimizations
func applySQLiteOptimizations(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for concurrency
		"PRAGMA synchronous = NORMAL", // Balance safety and performance
		"PRAGMA cache_size = -64000",  // 64MB cache
		"PRAGMA temp_store = MEMORY",  // Use memory for temporary tables
		"PRAGMA foreign_keys = ON",    // Ensure referential integrity
		"PRAGMA busy_timeout = 5000",  // 5 second timeout for write coordination
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}
	return nil
}
