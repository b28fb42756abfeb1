// Command terminal plays the drain game in a terminal. Arrow keys tilt the
// board, space levels it, a mouse click drops the tomato where you point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
)

const (
	tiltStep    = 1.5
	tiltLimit   = 9.8
	frameRate   = 30
	bannerShown = 2 * time.Second
)

type Game struct {
	screen tcell.Screen
	runner *loop.Runner
	accel  *input.Accelerometer
	chime  *chime
	logger log.Log

	latest atomic.Pointer[simulation.Snapshot]
	wonAt  atomic.Int64
	tiltX  float64
	tiltY  float64
	cols   int
	rows   int
}

func NewGame(logger log.Log, interval time.Duration, mute bool) (*Game, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.HideCursor()

	c, err := newChime(mute)
	if err != nil {
		logger.Warn("Audio unavailable", log.Error(err))
	}

	accel := input.NewAccelerometer()
	world := simulation.NewWorld(simulation.DefaultTuning(), accel)
	eventBus := bus.New()

	g := &Game{
		screen: screen,
		runner: loop.New(world, eventBus, logger, interval),
		accel:  accel,
		chime:  c,
		logger: logger,
	}
	if _, err := eventBus.Subscribe(bus.TypeTick, func(e bus.Event) error {
		snap := e.Data().(simulation.Snapshot)
		g.latest.Store(&snap)
		return nil
	}); err != nil {
		return nil, err
	}
	if _, err := eventBus.Subscribe(bus.TypeWin, func(bus.Event) error {
		g.wonAt.Store(time.Now().UnixNano())
		g.chime.win()
		return nil
	}); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Game) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.resize(ctx); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.runner.Run(ctx)
	})

	events := make(chan tcell.Event, 100)
	go forwardEvents(ctx, g.screen.PollEvent, events)

	eg.Go(func() error {
		defer cancel()

		ticker := time.NewTicker(time.Second / frameRate)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				quit, err := g.handleInput(ctx, ev)
				if err != nil || quit {
					return err
				}
			case <-ticker.C:
				g.draw()
			}
		}
	})

	return eg.Wait()
}

func (g *Game) handleInput(ctx context.Context, ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true, nil
		case tcell.KeyLeft:
			g.tilt(-tiltStep, 0)
		case tcell.KeyRight:
			g.tilt(tiltStep, 0)
		case tcell.KeyUp:
			g.tilt(0, -tiltStep)
		case tcell.KeyDown:
			g.tilt(0, tiltStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true, nil
			case ' ':
				g.tiltX, g.tiltY = 0, 0
				g.accel.Reset()
			}
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			return false, g.runner.Do(ctx, func(w *simulation.World) error {
				w.Place(float64(x)+0.5, float64(y*2)+1)
				return nil
			})
		}

	case *tcell.EventResize:
		g.screen.Sync()
		if err := g.resize(ctx); err != nil {
			g.logger.Warn("Terminal too small", log.Error(err))
		}
	}
	return false, nil
}

func (g *Game) tilt(dx, dy float64) {
	g.tiltX = clamp(g.tiltX+dx, tiltLimit)
	g.tiltY = clamp(g.tiltY+dy, tiltLimit)
	g.accel.Set(g.tiltX, g.tiltY)
}

func (g *Game) resize(ctx context.Context) error {
	g.cols, g.rows = g.screen.Size()
	return g.runner.SetArena(ctx, arenaFor(g.cols, g.rows))
}

func (g *Game) draw() {
	snap := g.latest.Load()
	if snap == nil {
		return
	}

	grid := rasterize(*snap, g.cols, g.rows)
	for row := 0; row < g.rows; row++ {
		for x := 0; x < g.cols; x++ {
			style := tcell.StyleDefault.Foreground(grid[row*2][x]).Background(grid[row*2+1][x])
			g.screen.SetContent(x, row, '▀', nil, style)
		}
	}

	hud := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	g.text(0, 0, fmt.Sprintf(" wins %d  tilt %+.1f,%+.1f  arrows tilt, space level, q quit ", snap.Wins, g.tiltX, g.tiltY), hud)

	if since := time.Since(time.Unix(0, g.wonAt.Load())); since < bannerShown {
		banner := " You win! "
		g.text((g.cols-len(banner))/2, g.rows/2, banner,
			tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true))
	}

	g.screen.Show()
}

func (g *Game) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		if x+i >= g.cols {
			return
		}
		g.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (g *Game) cleanup() {
	g.chime.close()
	g.screen.Fini()
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func main() {
	logPath := flag.String("log", "", "write debug logs to this file")
	interval := flag.Duration("tick", loop.DefaultTickInterval, "simulation tick interval")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	if err := play(*logPath, *interval, *mute); err != nil {
		fmt.Fprintf(os.Stderr, "drain: %v\n", err)
		os.Exit(1)
	}
}

func play(logPath string, interval time.Duration, mute bool) error {
	logger := log.Log(log.NewNop())
	if logPath != "" {
		l, err := log.NewWithConfig(log.Config{Level: log.LevelDebug, Encoding: "console", Output: []string{logPath}})
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer func() { _ = l.Sync() }()
		logger = l
	}

	game, err := NewGame(logger, interval, mute)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer game.cleanup()

	return game.run(context.Background())
}

// forwardEvents copies polled events to out until poll returns nil or ctx
// is done.
func forwardEvents(ctx context.Context, poll func() tcell.Event, out chan<- tcell.Event) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
