// Package input holds the latest-value acceleration slot fed by sensors and
// read by the simulation once per tick.
package input

import (
	"math"
	"sync/atomic"

	"github.com/zeusync/drain/internal/core/physics"
)

// Accelerometer keeps only the most recent sample. Writers never block
// readers and a read never tears the x/y pair.
type Accelerometer struct {
	value   atomic.Pointer[physics.Vec2]
	version atomic.Uint64
	limit   float64
}

// Option configures an Accelerometer.
type Option func(*Accelerometer)

// WithLimit scales down samples whose magnitude exceeds limit. Zero disables.
func WithLimit(limit float64) Option {
	return func(a *Accelerometer) {
		a.limit = limit
	}
}

// NewAccelerometer creates a slot holding the zero vector.
func NewAccelerometer(opts ...Option) *Accelerometer {
	a := &Accelerometer{}
	for _, opt := range opts {
		opt(a)
	}
	a.value.Store(&physics.Vec2{})
	return a
}

// Set overwrites the current sample.
func (a *Accelerometer) Set(x, y float64) {
	v := physics.Vec2{x, y}
	if a.limit > 0 {
		if mag := v.Len(); mag > a.limit && !math.IsInf(mag, 0) {
			v = v.Mul(a.limit / mag)
		}
	}
	a.value.Store(&v)
	a.version.Add(1)
}

// Acceleration returns the current sample without consuming it.
func (a *Accelerometer) Acceleration() physics.Vec2 {
	return *a.value.Load()
}

// Version returns how many samples have been written.
func (a *Accelerometer) Version() uint64 {
	return a.version.Load()
}

// Reset returns the slot to the zero vector.
func (a *Accelerometer) Reset() {
	a.Set(0, 0)
}

// FromDevice maps raw device accelerometer axes onto screen axes: the device
// x axis points opposite to screen x while y already matches. z is ignored.
func FromDevice(ax, ay, _ float64) (x, y float64) {
	return -ax, ay
}
