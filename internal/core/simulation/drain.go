package simulation

import "github.com/zeusync/drain/internal/core/physics"

// Drain is the circular goal region.
type Drain struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// NewDrain centres the drain horizontally near the bottom edge with twice
// the body radius.
func NewDrain(a Arena, bodyRadius float64) Drain {
	return Drain{
		X:      a.Left + a.Width()/2,
		Y:      a.Bottom - bodyRadius*2 + 1,
		Radius: bodyRadius * 2,
	}
}

// WithinDrain reports whether b lies entirely inside d.
func WithinDrain(b Body, d Drain) bool {
	return physics.Within(physics.Vec2{d.X, d.Y}, physics.Vec2{b.X, b.Y}, d.Radius-b.Radius)
}
