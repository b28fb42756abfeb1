package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
)

func TestLocalSource(t *testing.T) {
	src, err := newLocalSource(log.NewNop())
	require.NoError(t, err)

	_, ok := src.snapshot()
	assert.False(t, ok, "nothing to show before the first tick")

	arena := simulation.Arena{Right: 540, Bottom: 960}
	require.NoError(t, src.resize(arena))
	require.NoError(t, src.tilt(9.8, 0))

	now := time.Unix(0, 0)
	src.advance(now)
	src.advance(now.Add(20 * time.Millisecond))

	snap, ok := src.snapshot()
	require.True(t, ok)
	assert.Equal(t, arena, snap.Arena)
	assert.Equal(t, uint64(2), snap.Tick)
	assert.Greater(t, snap.Body.VX, 0.0)

	d := snap.Drain
	src.place(d.X, d.Y)
	src.advance(now.Add(40 * time.Millisecond))

	snap, _ = src.snapshot()
	assert.Equal(t, uint64(1), snap.Wins)
	assert.NoError(t, src.close())
}
