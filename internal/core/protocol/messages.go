package protocol

import (
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/simulation"
)

// Hello opens every session.
type Hello struct {
	V    int    `json:"v"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

// Sensor is a raw accelerometer reading in device axes.
type Sensor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Screen maps the reading onto screen axes.
func (s Sensor) Screen() Accel {
	x, y := input.FromDevice(s.X, s.Y, s.Z)
	return Accel{X: x, Y: y}
}

// Accel is an acceleration already in screen axes.
type Accel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Arena = simulation.Arena

type Welcome struct {
	SessionID string `json:"sessionId"`
	TickHz    int    `json:"tickHz"`
	Role      Role   `json:"role"`
}

type State struct {
	Tick   uint64             `json:"tick"`
	Wins   uint64             `json:"wins"`
	Body   simulation.Body    `json:"body"`
	Drain  simulation.Drain   `json:"drain"`
	Plates []simulation.Plate `json:"plates"`
	Arena  simulation.Arena   `json:"arena"`
}

func NewState(s simulation.Snapshot) State {
	return State{
		Tick:   s.Tick,
		Wins:   s.Wins,
		Body:   s.Body,
		Drain:  s.Drain,
		Plates: s.Plates,
		Arena:  s.Arena,
	}
}

type Win struct {
	Tick uint64 `json:"tick"`
	Wins uint64 `json:"wins"`
}

type Error struct {
	Message string `json:"message"`
}
