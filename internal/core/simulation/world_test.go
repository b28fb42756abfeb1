package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drain/internal/core/input"
)

func newPortraitWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld(DefaultTuning(), input.NewAccelerometer())
	require.NoError(t, w.SetArena(0, 0, 300, 600))
	return w
}

func TestWorld_StepBeforeArena(t *testing.T) {
	w := NewWorld(DefaultTuning(), nil)
	assert.False(t, w.Ready())

	ev, err := w.Step(20 * time.Millisecond)
	assert.Nil(t, ev)
	assert.True(t, errors.Is(err, ErrArenaNotSet))
	assert.Equal(t, uint64(0), w.Tick())

	assert.NotPanics(t, w.Respawn)
}

func TestWorld_SetArenaBuildsEntities(t *testing.T) {
	w := newPortraitWorld(t)

	assert.Equal(t, Body{X: 150, Y: 30, Radius: 15}, w.Body())
	assert.Equal(t, Drain{X: 150, Y: 571, Radius: 30}, w.Drain())
	assert.Len(t, w.Plates(), 2)

	err := w.SetArena(0, 0, -10, 600)
	require.ErrorIs(t, err, ErrDegenerateArena)
	assert.Equal(t, Arena{Right: 300, Bottom: 600}, w.Arena(), "invalid bounds keep the previous arena")

	require.NoError(t, w.SetArena(0, 0, 600, 300))
	assert.Equal(t, 15.0, w.Body().Radius)
	assert.Equal(t, Drain{X: 300, Y: 271, Radius: 30}, w.Drain())
}

func TestWorld_AccelerationDrivesBody(t *testing.T) {
	w := newPortraitWorld(t)
	start := w.Body()

	w.SetAcceleration(1, 0)
	_, err := w.Step(20 * time.Millisecond)
	require.NoError(t, err)

	b := w.Body()
	assert.Greater(t, b.X, start.X)
	assert.Equal(t, start.Y, b.Y)
	assert.InDelta(t, 2.0, b.VX, 1e-9)
	assert.Equal(t, start.Radius, b.Radius)
	assert.Equal(t, uint64(1), w.Tick())

	w.Accelerometer().Set(0, 0)
	_, err = w.Step(0)
	require.NoError(t, err)
	assert.Equal(t, b.X, w.Body().X, "a zero step does not move the body")
}

func TestWorld_WinAndRespawn(t *testing.T) {
	w := newPortraitWorld(t)
	d := w.Drain()
	w.body = Body{X: d.X, Y: d.Y, Radius: w.body.Radius}

	ev, err := w.Step(0)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, uint64(1), ev.Tick)
	assert.Equal(t, uint64(1), ev.Wins)
	assert.Equal(t, uint64(1), w.Wins())

	w.Respawn()
	assert.Equal(t, Spawn(w.Arena()), w.Body())

	ev, err = w.Step(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestWorld_Place(t *testing.T) {
	w := newPortraitWorld(t)
	w.SetAcceleration(0, 5)
	_, err := w.Step(20 * time.Millisecond)
	require.NoError(t, err)

	w.Place(40, 500)
	assert.Equal(t, Body{X: 40, Y: 500, Radius: 15}, w.Body())

	unset := NewWorld(DefaultTuning(), nil)
	unset.Place(1, 1)
	assert.Equal(t, Body{}, unset.Body())
}

func TestWorld_RadiusNeverChanges(t *testing.T) {
	w := newPortraitWorld(t)
	radius := w.Body().Radius

	w.SetAcceleration(3, 9.8)
	for i := 0; i < 2000; i++ {
		ev, err := w.Step(35 * time.Millisecond)
		require.NoError(t, err)
		require.Equal(t, radius, w.Body().Radius)
		require.Equal(t, radius*2, w.Drain().Radius)
		if ev != nil {
			w.Respawn()
		}
	}
}

func TestWorld_SnapshotIsACopy(t *testing.T) {
	w := newPortraitWorld(t)

	snap := w.Snapshot()
	snap.Plates[0].EndX = -1

	assert.Equal(t, 200.0, w.Plates()[0].EndX)
	assert.Equal(t, w.Body(), snap.Body)
	assert.Equal(t, w.Arena(), snap.Arena)
}
