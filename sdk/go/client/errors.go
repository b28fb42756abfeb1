package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed = errors.New("client is closed")
	ErrNotConnected = errors.New("client is not connected")
	ErrHandshake    = errors.New("handshake failed")
	ErrServer       = errors.New("server error")
)
