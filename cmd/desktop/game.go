package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
)

const (
	tilt        = 9.8
	bannerShown = 2 * time.Second
)

var (
	colorBackground = color.RGBA{24, 24, 28, 255}
	colorDrain      = color.RGBA{30, 60, 140, 255}
	colorPlate      = color.RGBA{200, 200, 200, 255}
	colorBody       = color.RGBA{220, 40, 30, 255}
)

type Game struct {
	source source
	logger log.Log

	width, height int
	arenaW        int
	arenaH        int
	ax, ay        float64
	wins          uint64
	wonAt         time.Time
}

// Update runs at the tick rate; it reads the keyboard, follows window
// resizes and advances the source.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if g.width > 0 && g.height > 0 && (g.width != g.arenaW || g.height != g.arenaH) {
		a := simulation.Arena{Right: float64(g.width), Bottom: float64(g.height)}
		if err := g.source.resize(a); err != nil {
			return err
		}
		g.arenaW, g.arenaH = g.width, g.height
	}

	ax, ay := keyTilt()
	if ax != g.ax || ay != g.ay {
		if err := g.source.tilt(ax, ay); err != nil {
			return err
		}
		g.ax, g.ay = ax, ay
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.source.place(float64(x), float64(y))
	}

	g.source.advance(time.Now())

	if snap, ok := g.source.snapshot(); ok && snap.Wins > g.wins {
		g.wins = snap.Wins
		g.wonAt = time.Now()
		g.logger.Info("You win!", log.Uint64("wins", snap.Wins))
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	snap, ok := g.source.snapshot()
	if !ok {
		ebitenutil.DebugPrint(screen, "waiting for the world...")
		return
	}

	d := snap.Drain
	vector.DrawFilledCircle(screen, float32(d.X), float32(d.Y), float32(d.Radius), colorDrain, true)

	for _, p := range snap.Plates {
		vector.StrokeLine(screen, float32(p.StartX), float32(p.StartY), float32(p.EndX), float32(p.EndY), 3, colorPlate, true)
	}

	b := snap.Body
	vector.DrawFilledCircle(screen, float32(b.X), float32(b.Y), float32(b.Radius), colorBody, true)

	ebitenutil.DebugPrint(screen, fmt.Sprintf("wins %d  tick %d\narrows/WASD tilt, click drops, q quits", snap.Wins, snap.Tick))

	if !g.wonAt.IsZero() && time.Since(g.wonAt) < bannerShown {
		ebitenutil.DebugPrintAt(screen, "You win!", g.width/2-24, g.height/2)
	}
}

// Layout keeps one arena unit per device-independent pixel. The size is
// applied on the next Update.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func keyTilt() (x, y float64) {
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		x -= tilt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		x += tilt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		y -= tilt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		y += tilt
	}
	return x, y
}
