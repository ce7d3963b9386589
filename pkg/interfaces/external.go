//go:generate go run go.uber.org/mock/mockgen -source=external.go -destination=../../mocks/mock_external.go -package=mocks
package interfaces

import (
	"context"
)

// CallMetadata is attached to a video call when it is provisioned.
type CallMetadata struct {
	CreatedByID string
	Problem     string
	Difficulty  string
	SessionID   string
}

// CallHandle describes a provisioned video call.
type CallHandle struct {
	ID      string
	Type    string
	Created bool
}

// ChannelHandle describes a provisioned chat channel.
type ChannelHandle struct {
	ID      string
	Type    string
	Members []string
}

// CallService provisions and destroys real-time video calls
// ARCHITECTURAL DISCOVERY: Keyed by the session call id so a retry after a
// partial failure addresses the same remote resource
type CallService interface {
	// GetOrCreateCall is idempotent for a given callID.
	GetOrCreateCall(ctx context.Context, callID string, meta CallMetadata) (*CallHandle, error)

	// DeleteCall removes the call. Deleting a missing call is not an error.
	DeleteCall(ctx context.Context, callID string, hard bool) error
}

// ChannelService provisions chat channels and their membership
type ChannelService interface {
	// CreateChannel creates the channel with its initial members.
	CreateChannel(ctx context.Context, channelID, name, creatorID string, members []string) (*ChannelHandle, error)

	// AddMembers adds members to an existing channel.
	AddMembers(ctx context.Context, channelID string, memberIDs []string) error

	// DeleteChannel removes the channel. Deleting a missing channel is not an error.
	DeleteChannel(ctx context.Context, channelID string) error
}

// ChatUser is the chat back-end's view of a user, keyed by external id.
type ChatUser struct {
	ID    string
	Name  string
	Image string
}

// ChatUserDirectory mirrors users into the chat back-end
// FUNCTIONAL DISCOVERY: The chat back-end rejects channel creators and
// members it has never seen, so users are upserted before they are named
type ChatUserDirectory interface {
	// UpsertUsers creates or updates users. Repeating it is harmless.
	UpsertUsers(ctx context.Context, users []ChatUser) error
}
