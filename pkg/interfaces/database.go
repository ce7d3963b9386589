//go:generate go run go.uber.org/mock/mockgen -source=database.go -destination=../../mocks/mock_session_store.go -package=mocks
package interfaces

import (
	"context"

	"sessionhub/pkg/types"
)

// SessionStore handles all persistence operations
// ARCHITECTURAL DISCOVERY: Single interface for all persistence operations so the
// SQLite and Badger backends are interchangeable behind the coordinator
type SessionStore interface {
	// CreateSession inserts a new session record.
	// Returns ErrCallIDConflict when the call id is already taken.
	CreateSession(ctx context.Context, session *types.Session) error

	// GetSession retrieves a session by ID, ErrSessionNotFound if absent.
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)

	// SetParticipant writes the participant only if the session is active and the
	// seat is empty. Any other state yields ErrPreconditionFailed.
	// FUNCTIONAL DISCOVERY: This compare-and-set is the only serialization point
	// between concurrent joins
	SetParticipant(ctx context.Context, sessionID, participantID string) (*types.Session, error)

	// CompleteSession flips an active session to completed, ErrPreconditionFailed
	// if it is not active anymore.
	CompleteSession(ctx context.Context, sessionID string) (*types.Session, error)

	// ListActiveSessions returns active sessions newest first.
	ListActiveSessions(ctx context.Context, limit int) ([]*types.Session, error)

	// ListCompletedSessionsForUser returns completed sessions hosted or joined by
	// userID, newest first.
	ListCompletedSessionsForUser(ctx context.Context, userID string, limit int) ([]*types.Session, error)

	// UpsertUser creates or refreshes the cached profile keyed by ExternalID and
	// returns the stored user with its internal ID.
	UpsertUser(ctx context.Context, user *types.User) (*types.User, error)

	// GetUsers resolves internal user IDs; unknown IDs are absent from the map.
	GetUsers(ctx context.Context, userIDs []string) (map[string]*types.User, error)

	// HealthCheck verifies storage connectivity
	HealthCheck(ctx context.Context) error

	// Close releases the underlying storage
	Close() error
}
