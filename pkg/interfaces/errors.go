package interfaces

import "errors"

// Common interface errors used across components
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCallIDConflict     = errors.New("call id already in use")
	ErrPreconditionFailed = errors.New("session state changed concurrently")
	ErrStoreClosed        = errors.New("store is closed")
)
