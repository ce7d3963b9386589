package types

import (
	"time"
)

// Status is the lifecycle state of a session.
// ARCHITECTURAL DISCOVERY: Only two states exist and the only legal edge is
// active -> completed; stores enforce the edge with conditional writes
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Difficulty categorises the problem a session is built around.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PageSize caps every listing query.
const PageSize = 20

// Session is the durable record of one collaborative meeting.
// FUNCTIONAL DISCOVERY: CallID, HostID and CreatedAt are immutable after creation.
// ParticipantID is written at most once, Status moves forward at most once
type Session struct {
	ID            string     `json:"id" db:"id"`
	CallID        string     `json:"call_id" db:"call_id"`
	Problem       string     `json:"problem" db:"problem"`
	Difficulty    Difficulty `json:"difficulty" db:"difficulty"`
	Status        Status     `json:"status" db:"status"`
	HostID        string     `json:"host_id" db:"host_id"`
	ParticipantID *string    `json:"participant_id,omitempty" db:"participant_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the session still owns a call and a channel.
func (s *Session) IsActive() bool {
	return s.Status == StatusActive
}

// HasParticipant reports whether the second seat is taken.
func (s *Session) HasParticipant() bool {
	return s.ParticipantID != nil && *s.ParticipantID != ""
}

// IsMember reports whether userID is the host or the participant.
func (s *Session) IsMember(userID string) bool {
	if s.HostID == userID {
		return true
	}
	return s.HasParticipant() && *s.ParticipantID == userID
}

// User is the locally cached profile of an identity-provider user.
// ARCHITECTURAL DISCOVERY: Profiles are owned by the identity provider; this copy
// only exists so listings can resolve host and participant fields
type User struct {
	ID           string    `json:"id" db:"id"`
	ExternalID   string    `json:"external_id" db:"external_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	ProfileImage string    `json:"profile_image" db:"profile_image"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the public subset of User embedded in read models.
type Profile struct {
	ID           string `json:"id"`
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

// ToProfile projects the cached user onto its public fields.
func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:           u.ID,
		ExternalID:   u.ExternalID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}

// SessionDetail is a session with its host and participant profiles resolved.
type SessionDetail struct {
	*Session
	Host        *Profile `json:"host"`
	Participant *Profile `json:"participant,omitempty"`
}

// Actor identifies the authenticated user performing an operation.
// FUNCTIONAL DISCOVERY: UserID is the internal id stored on sessions,
// ExternalID is what the chat back-end knows the same user by
type Actor struct {
	UserID     string
	ExternalID string
	// Name and Image are mirrored into the chat back-end's user directory
	Name  string
	Image string
}

// CreateSessionInput is the user-supplied part of a new session.
type CreateSessionInput struct {
	Problem    string `json:"problem" validate:"required,max=500"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
}
