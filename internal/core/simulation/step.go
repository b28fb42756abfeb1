package simulation

import "github.com/zeusync/drain/internal/core/physics"

// Collisions reports which obstacles a step reacted to.
type Collisions struct {
	Plates int
	Walls  int
}

// Step advances b by dt seconds under the default tuning. It reports whether
// the body ended the step inside the drain.
func Step(b Body, accel physics.Vec2, plates []Plate, a Arena, d Drain, dt float64) (Body, bool) {
	b, won, _ := DefaultTuning().Step(b, accel, plates, a, d, dt)
	return b, won
}

// Step integrates b for min(dt, MaxStep) seconds, resolves plate and wall
// collisions against the integrated position and checks the drain.
//
// Collisions are resolved by moving the body out of penetration, not by
// time of impact, so a fast body can pass through a plate within one step.
// MaxStep bounds how far that can be.
func (t Tuning) Step(b Body, accel physics.Vec2, plates []Plate, a Arena, d Drain, dt float64) (Body, bool, Collisions) {
	dt = t.clampStep(dt)
	ix := t.Beta * accel.X()
	iy := t.Beta * accel.Y()

	// x = x0 + v*t + a*t²/2
	b.X = b.X + b.VX*dt + ix*dt*dt/2
	b.Y = b.Y + b.VY*dt + iy*dt*dt/2
	// v = v0 + a*t, less the damped share of v0
	b.VX = b.VX - b.VX*(1-t.Alpha)*dt + ix*dt
	b.VY = b.VY - b.VY*(1-t.Alpha)*dt + iy*dt

	var c Collisions
	for _, p := range plates {
		var hit bool
		if b, hit = p.collide(b, t.Gamma); hit {
			c.Plates++
		}
	}

	if b.X+b.Radius >= a.Right {
		b.X = a.Right - b.Radius - Separation
		b.VX *= -t.Gamma
		c.Walls++
	}
	if b.X-b.Radius <= a.Left {
		b.X = a.Left + b.Radius + Separation
		b.VX *= -t.Gamma
		c.Walls++
	}
	if b.Y+b.Radius >= a.Bottom {
		b.Y = a.Bottom - b.Radius - Separation
		b.VY *= -t.Gamma
		c.Walls++
	}
	if b.Y-b.Radius <= a.Top {
		b.Y = a.Top + b.Radius + Separation
		b.VY *= -t.Gamma
		c.Walls++
	}

	return b, WithinDrain(b, d), c
}
