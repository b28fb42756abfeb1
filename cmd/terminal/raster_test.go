package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drain/internal/core/simulation"
)

func TestArenaFor(t *testing.T) {
	assert.Equal(t, simulation.Arena{Right: 80, Bottom: 48}, arenaFor(80, 24))
}

func TestRasterize(t *testing.T) {
	const cols, rows = 60, 40
	w := simulation.NewWorld(simulation.DefaultTuning(), nil)
	a := arenaFor(cols, rows)
	require.NoError(t, w.SetArena(a.Top, a.Left, a.Right, a.Bottom))

	snap := w.Snapshot()
	grid := rasterize(snap, cols, rows)
	require.Len(t, grid, rows*2)
	require.Len(t, grid[0], cols)

	b := snap.Body
	assert.Equal(t, colorBody, grid[int(b.Y)][int(b.X)])

	d := snap.Drain
	assert.Equal(t, colorDrain, grid[int(d.Y)][int(d.X)])

	upper := snap.Plates[0]
	assert.Equal(t, colorPlate, grid[int(upper.EndY)][1])
	assert.Equal(t, colorBackground, grid[int(upper.EndY)][cols-1], "the upper plate stops short of the right wall")

	assert.Equal(t, colorBackground, grid[0][0])
}
