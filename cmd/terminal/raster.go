package main

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/drain/internal/core/simulation"
)

var (
	colorBackground = tcell.ColorBlack
	colorDrain      = tcell.NewRGBColor(30, 60, 140)
	colorPlate      = tcell.ColorSilver
	colorBody       = tcell.NewRGBColor(220, 40, 30)
)

// Each terminal cell shows two vertically stacked pixels, so the arena is
// cols wide and rows*2 tall.
func arenaFor(cols, rows int) simulation.Arena {
	return simulation.Arena{Right: float64(cols), Bottom: float64(rows * 2)}
}

// rasterize paints snap onto a cols x rows*2 pixel grid, indexed [y][x].
func rasterize(snap simulation.Snapshot, cols, rows int) [][]tcell.Color {
	height := rows * 2
	grid := make([][]tcell.Color, height)
	for y := range grid {
		grid[y] = make([]tcell.Color, cols)
		for x := range grid[y] {
			grid[y][x] = pixel(snap, float64(x)+0.5, float64(y)+0.5)
		}
	}
	return grid
}

func pixel(snap simulation.Snapshot, x, y float64) tcell.Color {
	b := snap.Body
	if b.Radius > 0 && math.Hypot(x-b.X, y-b.Y) <= b.Radius {
		return colorBody
	}
	for _, p := range snap.Plates {
		if x >= p.StartX && x <= p.EndX && math.Abs(y-p.EndY) <= 0.5 {
			return colorPlate
		}
	}
	d := snap.Drain
	if d.Radius > 0 && math.Hypot(x-d.X, y-d.Y) <= d.Radius {
		return colorDrain
	}
	return colorBackground
}
