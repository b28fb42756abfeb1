package simulation

import (
	"math"

	"github.com/zeusync/drain/internal/core/physics"
)

// Plate is a static horizontal segment obstacle.
type Plate struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// NewPlates builds the two plates of an arena: the upper one hangs from the
// left wall at a third of the height, the lower one from the right wall at
// two thirds.
func NewPlates(a Arena) []Plate {
	w, h := a.Width(), a.Height()
	return []Plate{
		{StartX: a.Left, StartY: a.Top + h/3, EndX: a.Left + w*2/3, EndY: a.Top + h/3},
		{StartX: a.Left + w/3, StartY: a.Top + h*2/3, EndX: a.Right, EndY: a.Top + h*2/3},
	}
}

// collide resolves either a face hit or an endpoint hit of b against p. The
// face needs the centre within [StartX, EndX] and an endpoint needs it
// outside, so at most one fires per call.
func (p Plate) collide(b Body, gamma float64) (Body, bool) {
	hit := false

	if p.StartX <= b.X && b.X <= p.EndX && math.Abs(b.Y-p.EndY) < b.Radius {
		if b.VY < 0 {
			b.Y = p.EndY + b.Radius + Separation
		} else {
			b.Y = p.EndY - b.Radius - Separation
		}
		b.VY *= -gamma
		hit = true
	}

	centre := physics.Vec2{b.X, b.Y}
	pastEnd := p.EndX < b.X && physics.Within(physics.Vec2{p.EndX, p.EndY}, centre, b.Radius)
	pastStart := p.StartX > b.X && physics.Within(physics.Vec2{p.StartX, p.StartY}, centre, b.Radius)
	if pastEnd || pastStart {
		corner := physics.Vec2{p.StartX, p.StartY}
		if math.Abs(b.X-p.EndX) < math.Abs(b.X-p.StartX) {
			corner = physics.Vec2{p.EndX, p.EndY}
		}
		b = deflect(b, corner, gamma)
		hit = true
	}

	return b, hit
}

// deflect bounces b off a point obstacle. The parallel part is the velocity
// projected onto the corner-to-centre offset; the perpendicular part is that
// offset minus the parallel part. The result is gamma*(perpendicular-parallel).
func deflect(b Body, corner physics.Vec2, gamma float64) Body {
	offset := physics.Vec2{b.X, b.Y}.Sub(corner)
	parallel := physics.Project(physics.Vec2{b.VX, b.VY}, offset)
	perpendicular := offset.Sub(parallel)

	v := perpendicular.Sub(parallel).Mul(gamma)
	b.VX, b.VY = v.X(), v.Y()
	return b
}
