// Package protocol defines the JSON envelope exchanged between the
// simulation server and its sensor and viewer clients.
package protocol

import "encoding/json"

// Version is bumped on any incompatible change to a payload.
const Version = 1

// Client to server.
const (
	MsgHello  = "hello"
	MsgSensor = "sensor"
	MsgAccel  = "accel"
	MsgArena  = "arena"
)

// Server to client.
const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgWin     = "win"
	MsgError   = "error"
)

// Role tells the server what a client wants from the session.
type Role string

const (
	// RoleSensor clients only push acceleration samples.
	RoleSensor Role = "sensor"
	// RoleViewer clients receive state and may also push samples and arena
	// bounds.
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleSensor || r == RoleViewer
}

// Receives reports whether a session with this role gets state frames.
func (r Role) Receives() bool {
	return r == RoleViewer
}

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}
