package simulation

import "time"

const (
	// DefaultAlpha is the fraction of velocity kept per second of damping.
	DefaultAlpha = 0.5
	// DefaultBeta scales accelerometer readings into arena units per second².
	DefaultBeta = 100.0
	// DefaultGamma is the fraction of velocity kept when bouncing.
	DefaultGamma = 0.7
	// DefaultMaxStep caps the integration step regardless of elapsed wall time.
	DefaultMaxStep = 20 * time.Millisecond

	// SpawnFraction sizes the body and places it below the top edge.
	SpawnFraction = 20.0
	// Separation is how far outside an obstacle a colliding body is placed.
	Separation = 1.0
)

// Tuning holds the physics constants of a simulation.
type Tuning struct {
	Alpha   float64
	Beta    float64
	Gamma   float64
	MaxStep time.Duration
}

func DefaultTuning() Tuning {
	return Tuning{
		Alpha:   DefaultAlpha,
		Beta:    DefaultBeta,
		Gamma:   DefaultGamma,
		MaxStep: DefaultMaxStep,
	}
}

// clampStep converts a raw step in seconds into the one actually integrated.
func (t Tuning) clampStep(dt float64) float64 {
	maxStep := t.MaxStep.Seconds()
	if dt > maxStep {
		return maxStep
	}
	if dt < 0 {
		return 0
	}
	return dt
}
