package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrHandshake            = errors.New("handshake failed")
	ErrUnsupportedVersion   = errors.New("unsupported protocol version")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrForbidden            = errors.New("message not allowed for role")
	ErrSlowConsumer         = errors.New("send queue full")
	ErrSessionClosed        = errors.New("session is closed")
)
