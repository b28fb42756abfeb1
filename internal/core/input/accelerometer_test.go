package input

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAccelerometer_LatestValueWins(t *testing.T) {
	a := NewAccelerometer()
	assert.Equal(t, 0.0, a.Acceleration().X())
	assert.Equal(t, uint64(0), a.Version())

	a.Set(1, 2)
	a.Set(-3, 4)

	got := a.Acceleration()
	assert.Equal(t, -3.0, got.X())
	assert.Equal(t, 4.0, got.Y())
	assert.Equal(t, uint64(2), a.Version())

	// Reads do not consume.
	assert.Equal(t, got, a.Acceleration())

	a.Reset()
	assert.Equal(t, 0.0, a.Acceleration().Len())
}

func TestAccelerometer_Limit(t *testing.T) {
	a := NewAccelerometer(WithLimit(5))

	a.Set(30, 40)
	got := a.Acceleration()
	assert.InDelta(t, 3.0, got.X(), 1e-9)
	assert.InDelta(t, 4.0, got.Y(), 1e-9)

	a.Set(1, 1)
	assert.Equal(t, 1.0, a.Acceleration().X())

	a.Set(math.Inf(1), 0)
	assert.True(t, math.IsInf(a.Acceleration().X(), 1))
}

func TestAccelerometer_ConcurrentWritersNeverTear(t *testing.T) {
	a := NewAccelerometer()

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 1000; i++ {
				v := float64(i)
				a.Set(v, -v)
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < 4000; i++ {
			s := a.Acceleration()
			if s.X() != -s.Y() {
				return assert.AnError
			}
		}
		return nil
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(4000), a.Version())
}

func TestFromDevice(t *testing.T) {
	x, y := FromDevice(1.5, -2, 9.8)
	assert.Equal(t, -1.5, x)
	assert.Equal(t, -2.0, y)
}
