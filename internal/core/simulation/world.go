package simulation

import (
	"time"

	"github.com/zeusync/drain/internal/core/input"
)

// WinEvent is returned by World.Step when the body enters the drain.
type WinEvent struct {
	Tick uint64 `json:"tick"`
	Wins uint64 `json:"wins"`
	Body Body   `json:"body"`
}

// Snapshot is a read-only copy of everything a renderer draws.
type Snapshot struct {
	Tick   uint64  `json:"tick"`
	Wins   uint64  `json:"wins"`
	Arena  Arena   `json:"arena"`
	Body   Body    `json:"body"`
	Drain  Drain   `json:"drain"`
	Plates []Plate `json:"plates"`
}

// World owns one body, its drain and plates, and the arena they were built
// from. It has a single mutator: whoever drives Step. Acceleration is read
// from the shared Accelerometer, which may be written from anywhere.
type World struct {
	tuning Tuning
	accel  *input.Accelerometer

	ready  bool
	arena  Arena
	body   Body
	drain  Drain
	plates []Plate

	tick uint64
	wins uint64
	last Collisions
}

func NewWorld(tuning Tuning, accel *input.Accelerometer) *World {
	if accel == nil {
		accel = input.NewAccelerometer()
	}
	return &World{
		tuning: tuning,
		accel:  accel,
	}
}

// SetArena rebuilds body, drain and plates for new bounds. Invalid bounds
// leave the world as it was.
func (w *World) SetArena(top, left, right, bottom float64) error {
	a, err := NewArena(top, left, right, bottom)
	if err != nil {
		return err
	}

	w.arena = a
	w.body = Spawn(a)
	w.drain = NewDrain(a, w.body.Radius)
	w.plates = NewPlates(a)
	w.ready = true
	return nil
}

// Step advances the world by dt using the latest acceleration sample. The
// returned event is nil unless the body entered the drain; the body is left
// where it won so the caller decides when to Respawn.
func (w *World) Step(dt time.Duration) (*WinEvent, error) {
	if !w.ready {
		return nil, ErrArenaNotSet
	}

	w.tick++
	body, won, collisions := w.tuning.Step(w.body, w.accel.Acceleration(), w.plates, w.arena, w.drain, dt.Seconds())
	w.body = body
	w.last = collisions
	if !won {
		return nil, nil
	}

	w.wins++
	return &WinEvent{Tick: w.tick, Wins: w.wins, Body: body}, nil
}

// Respawn puts a fresh resting body at the spawn point.
func (w *World) Respawn() {
	if !w.ready {
		return
	}
	w.body = Spawn(w.arena)
}

// Place moves the body centre to (x, y) and stops it. The radius is kept.
func (w *World) Place(x, y float64) {
	if !w.ready {
		return
	}
	w.body = Body{X: x, Y: y, Radius: w.body.Radius}
}

// SetAcceleration overwrites the latest acceleration sample.
func (w *World) SetAcceleration(x, y float64) {
	w.accel.Set(x, y)
}

func (w *World) Accelerometer() *input.Accelerometer { return w.accel }
func (w *World) Tuning() Tuning                      { return w.tuning }
func (w *World) Ready() bool                         { return w.ready }
func (w *World) Arena() Arena                        { return w.arena }
func (w *World) Body() Body                          { return w.body }
func (w *World) Drain() Drain                        { return w.drain }
func (w *World) Tick() uint64                        { return w.tick }
func (w *World) Wins() uint64                        { return w.wins }

// LastCollisions reports the obstacles hit during the most recent Step.
func (w *World) LastCollisions() Collisions { return w.last }

// Plates returns a copy of the plates.
func (w *World) Plates() []Plate {
	out := make([]Plate, len(w.plates))
	copy(out, w.plates)
	return out
}

func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Tick:   w.tick,
		Wins:   w.wins,
		Arena:  w.arena,
		Body:   w.body,
		Drain:  w.drain,
		Plates: w.Plates(),
	}
}
