// Package loop drives a simulation.World at a fixed cadence and publishes
// what happens on the event bus.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
)

const (
	DefaultTickInterval = 20 * time.Millisecond

	eventSource = "loop"
)

var ErrRunnerAlreadyRunning = errors.New("runner is already running")

type command struct {
	ctx  context.Context
	fn   func(*simulation.World) error
	done chan error
}

// Runner is the only mutator of its World while Run is active. Anything
// else that needs to change the world goes through Do.
type Runner struct {
	world    *simulation.World
	bus      bus.EventBus
	logger   log.Log
	interval time.Duration
	now      func() time.Time

	// mu orders inline commands against Run starting and stopping.
	mu       sync.Mutex
	commands chan command
	stopped  chan struct{}
	running  atomic.Bool
	last     time.Time
	waiting  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func New(world *simulation.World, eventBus bus.EventBus, logger log.Log, interval time.Duration, opts ...Option) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	r := &Runner{
		world:    world,
		bus:      eventBus,
		logger:   logger.With(log.String("component", "runner")),
		interval: interval,
		now:      time.Now,
		commands: make(chan command),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Interval() time.Duration { return r.interval }
func (r *Runner) Running() bool           { return r.running.Load() }

// Run ticks until ctx is cancelled. The next tick is armed only after the
// current one has finished, so ticks never overlap and a slow tick delays
// the schedule instead of queueing up.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if !r.running.CompareAndSwap(false, true) {
		r.mu.Unlock()
		return ErrRunnerAlreadyRunning
	}
	stopped := make(chan struct{})
	r.stopped = stopped
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running.Store(false)
		close(stopped)
		r.mu.Unlock()
	}()

	r.logger.Info("Runner started", log.Duration("interval", r.interval))
	defer func() {
		r.logger.Info("Runner stopped", log.Uint64("ticks", r.world.Tick()))
	}()

	r.last = r.now()
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-r.commands:
			if err := cmd.ctx.Err(); err != nil {
				cmd.done <- err
				continue
			}
			cmd.done <- cmd.fn(r.world)
		case <-timer.C:
			r.Tick(r.now())
			timer.Reset(r.interval)
		}
	}
}

// Tick advances the world by the time elapsed since the previous tick. It
// must not be called concurrently with Run.
func (r *Runner) Tick(now time.Time) {
	dt := r.interval
	if !r.last.IsZero() {
		dt = now.Sub(r.last)
	}
	r.last = now

	win, err := r.world.Step(dt)
	if err != nil {
		if !r.waiting {
			r.logger.Debug("Skipping tick", log.Error(err))
			r.waiting = true
		}
		return
	}
	r.waiting = false

	if c := r.world.LastCollisions(); c.Plates > 0 || c.Walls > 0 {
		r.logger.Debug("Bounced",
			log.Uint64("tick", r.world.Tick()),
			log.Int("plates", c.Plates),
			log.Int("walls", c.Walls))
	}

	if win != nil {
		r.world.Respawn()
		r.logger.Info("You win!",
			log.Uint64("tick", win.Tick),
			log.Uint64("wins", win.Wins))
		r.publish(bus.TypeWin, *win)
	}

	r.publish(bus.TypeTick, r.world.Snapshot())
}

// Do runs fn against the world on the loop goroutine and returns its error.
// When the runner is not running, fn runs on the caller's goroutine and Run
// waits for it before starting. fn is skipped once ctx is done and must not
// call back into the runner.
func (r *Runner) Do(ctx context.Context, fn func(*simulation.World) error) error {
	for {
		r.mu.Lock()
		if !r.running.Load() {
			err := ctx.Err()
			if err == nil {
				err = fn(r.world)
			}
			r.mu.Unlock()
			return err
		}
		stopped := r.stopped
		r.mu.Unlock()

		cmd := command{ctx: ctx, fn: fn, done: make(chan error, 1)}
		select {
		case r.commands <- cmd:
		case <-stopped:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case err := <-cmd.done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetArena rebuilds the world for new bounds. The change is announced from
// inside the command, so an applied arena is always published.
func (r *Runner) SetArena(ctx context.Context, a simulation.Arena) error {
	err := r.Do(ctx, func(w *simulation.World) error {
		if err := w.SetArena(a.Top, a.Left, a.Right, a.Bottom); err != nil {
			return err
		}
		body := w.Body()
		r.logger.Debug("Arena set",
			log.Float64("width", w.Arena().Width()),
			log.Float64("height", w.Arena().Height()),
			log.Float64("body_x", body.X),
			log.Float64("body_y", body.Y),
			log.Float64("body_radius", body.Radius))
		r.publish(bus.TypeArena, w.Arena())
		return nil
	})
	if err != nil {
		r.logger.Warn("Rejected arena",
			log.Float64("top", a.Top),
			log.Float64("left", a.Left),
			log.Float64("right", a.Right),
			log.Float64("bottom", a.Bottom),
			log.Error(err))
	}
	return err
}

// Snapshot reads the world on the loop goroutine.
func (r *Runner) Snapshot(ctx context.Context) (simulation.Snapshot, error) {
	var snap simulation.Snapshot
	err := r.Do(ctx, func(w *simulation.World) error {
		snap = w.Snapshot()
		return nil
	})
	return snap, err
}

func (r *Runner) publish(eventType string, data any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(bus.NewEvent(eventType, eventSource, data)); err != nil {
		r.logger.Warn("Event handler failed",
			log.String("type", eventType),
			log.Error(err))
	}
}
