package session

import (
	"errors"
	"fmt"
)

// Kind classifies coordinator failures for callers.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindConflict        Kind = "conflict"
	KindExternalService Kind = "external_service"
	KindPersistence     Kind = "persistence"
	KindInternal        Kind = "internal"
)

// Session coordination errors; their text is what callers are shown.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionCompleted     = errors.New("cannot join a completed session")
	ErrHostCannotJoin       = errors.New("host cannot join their own session as participant")
	ErrSessionFull          = errors.New("session is already full")
	ErrNotHost              = errors.New("only host can end the session")
	ErrAlreadyCompleted     = errors.New("session is already completed")
	ErrProvisioningFailed   = errors.New("failed to provision session resources")
	ErrMembershipFailed     = errors.New("failed to add participant to session channel")
	ErrChatUserSyncFailed   = errors.New("failed to sync chat user")
	ErrTeardownFailed       = errors.New("failed to tear down session resources, retry ending the session")
	ErrStoreUnavailable     = errors.New("session store unavailable")
	ErrCallIDSpaceExhausted = errors.New("could not allocate a unique call id")
)

// Error carries a Kind, the user-facing reason and the underlying cause.
type Error struct {
	Kind   Kind
	Reason error
	Cause  error
}

func newError(kind Kind, reason, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason.Error()
}

// Message is the text safe to return to callers.
func (e *Error) Message() string {
	return e.Reason.Error()
}

// Unwrap exposes both the reason and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var coordErr *Error
	if errors.As(err, &coordErr) {
		return coordErr.Kind
	}
	return KindInternal
}
