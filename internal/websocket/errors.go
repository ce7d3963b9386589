package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSlowConsumer     = errors.New("subscriber is not keeping up")
	ErrInvalidJSON      = errors.New("invalid JSON data")
)
