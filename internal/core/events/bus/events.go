package bus

import "errors"

// Event types published by the simulation loop.
const (
	// TypeTick carries a simulation.Snapshot after every tick.
	TypeTick = "simulation.tick"
	// TypeWin carries a simulation.WinEvent when the body reaches the drain.
	TypeWin = "simulation.win"
	// TypeArena carries the new simulation.Arena after a resize.
	TypeArena = "simulation.arena"
)

var (
	ErrNilEvent   = errors.New("event is nil")
	ErrNilHandler = errors.New("handler is nil")
)
