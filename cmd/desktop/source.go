package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/protocol"
	"github.com/zeusync/drain/internal/core/simulation"
	"github.com/zeusync/drain/sdk/go/client"
)

// source is where the game gets its world from: a local runner ticked by
// Update, or a remote server.
type source interface {
	resize(a simulation.Arena) error
	tilt(x, y float64) error
	place(x, y float64)
	advance(now time.Time)
	snapshot() (simulation.Snapshot, bool)
	close() error
}

type localSource struct {
	runner *loop.Runner
	accel  *input.Accelerometer
	latest atomic.Pointer[simulation.Snapshot]
}

func newLocalSource(logger log.Log) (*localSource, error) {
	accel := input.NewAccelerometer()
	world := simulation.NewWorld(simulation.DefaultTuning(), accel)
	eventBus := bus.New()

	s := &localSource{
		runner: loop.New(world, eventBus, logger, loop.DefaultTickInterval),
		accel:  accel,
	}
	if _, err := eventBus.Subscribe(bus.TypeTick, func(e bus.Event) error {
		snap := e.Data().(simulation.Snapshot)
		s.latest.Store(&snap)
		return nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *localSource) resize(a simulation.Arena) error {
	return s.runner.SetArena(context.Background(), a)
}

func (s *localSource) tilt(x, y float64) error {
	s.accel.Set(x, y)
	return nil
}

func (s *localSource) place(x, y float64) {
	_ = s.runner.Do(context.Background(), func(w *simulation.World) error {
		w.Place(x, y)
		return nil
	})
}

// advance runs one tick. Update is called at the tick rate so the runner
// never needs its own goroutine.
func (s *localSource) advance(now time.Time) {
	s.runner.Tick(now)
}

func (s *localSource) snapshot() (simulation.Snapshot, bool) {
	if snap := s.latest.Load(); snap != nil {
		return *snap, true
	}
	return simulation.Snapshot{}, false
}

func (s *localSource) close() error { return nil }

// remoteSource shows the world of a drain server and steers it.
type remoteSource struct {
	client *client.Client
	latest atomic.Pointer[simulation.Snapshot]
}

func newRemoteSource(ctx context.Context, url string, logger log.Log) (*remoteSource, error) {
	cfg := client.DefaultClientConfig()
	cfg.Name = "desktop"
	cfg.Role = protocol.RoleViewer
	cfg.Logger = logger

	c, err := client.Dial(ctx, url, cfg)
	if err != nil {
		return nil, err
	}

	s := &remoteSource{client: c}
	c.OnState(func(st protocol.State) {
		s.latest.Store(&simulation.Snapshot{
			Tick:   st.Tick,
			Wins:   st.Wins,
			Arena:  st.Arena,
			Body:   st.Body,
			Drain:  st.Drain,
			Plates: st.Plates,
		})
	})
	c.OnError(func(err error) {
		logger.Warn("Server rejected a message", log.Error(err))
	})
	return s, nil
}

func (s *remoteSource) resize(a simulation.Arena) error { return s.client.SendArena(a) }
func (s *remoteSource) tilt(x, y float64) error         { return s.client.SendAccel(x, y) }
func (s *remoteSource) place(float64, float64)          {}
func (s *remoteSource) advance(time.Time)               {}

func (s *remoteSource) snapshot() (simulation.Snapshot, bool) {
	select {
	case <-s.client.Done():
		return simulation.Snapshot{}, false
	default:
	}
	if snap := s.latest.Load(); snap != nil {
		return *snap, true
	}
	return simulation.Snapshot{}, false
}

func (s *remoteSource) close() error { return s.client.Close() }
