package simulation

import (
	"fmt"
	"math"
)

// Arena is the playable rectangle in screen coordinates (y grows downwards).
type Arena struct {
	Top    float64 `json:"top" yaml:"top"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// NewArena validates the bounds and returns the arena they describe.
func NewArena(top, left, right, bottom float64) (Arena, error) {
	a := Arena{Top: top, Left: left, Right: right, Bottom: bottom}
	if err := a.Validate(); err != nil {
		return Arena{}, err
	}
	return a, nil
}

func (a Arena) Width() float64  { return a.Right - a.Left }
func (a Arena) Height() float64 { return a.Bottom - a.Top }

// Validate rejects arenas without a positive finite area; any geometry
// derived from them would have a non-positive radius.
func (a Arena) Validate() error {
	for _, v := range [...]float64{a.Top, a.Left, a.Right, a.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bound %v", ErrDegenerateArena, v)
		}
	}
	if a.Width() <= 0 || a.Height() <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrDegenerateArena, a.Width(), a.Height())
	}
	return nil
}

// BodyRadius is the radius of a body spawned in a.
func (a Arena) BodyRadius() float64 {
	return math.Min(a.Width()/SpawnFraction, a.Height()/SpawnFraction)
}
