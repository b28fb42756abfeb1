// Package physics holds the small amount of 2D vector maths shared by the
// simulation and its renderers.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the vector type used across the simulation.
type Vec2 = mgl64.Vec2

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Project returns the component of v parallel to onto.
// A zero onto yields NaN components, matching plain division.
func Project(v, onto Vec2) Vec2 {
	scalar := v.Dot(onto) / onto.Dot(onto)
	return onto.Mul(scalar)
}

// Within reports whether point lies strictly closer than radius to center.
func Within(center, point Vec2, radius float64) bool {
	return Distance2(center.X(), center.Y(), point.X(), point.Y()) < radius
}

// Finite reports whether every component of v is a real number.
func Finite(v Vec2) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
