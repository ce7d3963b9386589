package interfaces

import (
	"context"

	"sessionhub/pkg/types"
)

// SessionCoordinator handles session lifecycle operations
// ARCHITECTURAL DISCOVERY: Context-first design pattern ensures proper
// cancellation and timeout handling across all session operations
type SessionCoordinator interface {
	// CreateSession persists a session and provisions its call and channel.
	CreateSession(ctx context.Context, input types.CreateSessionInput, actor types.Actor) (*types.Session, error)

	// JoinSession seats actor as the participant and adds them to the channel.
	JoinSession(ctx context.Context, sessionID string, actor types.Actor) (*types.Session, error)

	// EndSession tears down the call and channel, then completes the session.
	EndSession(ctx context.Context, sessionID string, actor types.Actor) (*types.Session, error)
}

// SessionQuery is the read side over the store.
// FUNCTIONAL DISCOVERY: Queries never mutate state and never reach the
// external call or channel services
type SessionQuery interface {
	ListActive(ctx context.Context) ([]*types.SessionDetail, error)
	ListRecent(ctx context.Context, userID string) ([]*types.SessionDetail, error)
	Get(ctx context.Context, sessionID string) (*types.SessionDetail, error)
}

// SessionEvents receives committed lifecycle transitions.
// Publish must not block the caller
type SessionEvents interface {
	Publish(event types.SessionEvent)
}
