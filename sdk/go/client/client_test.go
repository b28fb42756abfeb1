package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/physics"
	"github.com/zeusync/drain/internal/core/protocol"
	"github.com/zeusync/drain/internal/core/simulation"
	"github.com/zeusync/drain/internal/server"
)

type harness struct {
	srv    *server.Server
	runner *loop.Runner
	accel  *input.Accelerometer
	url    string
}

func serve(t *testing.T) *harness {
	t.Helper()

	accel := input.NewAccelerometer()
	world := simulation.NewWorld(simulation.DefaultTuning(), accel)
	eventBus := bus.New()
	runner := loop.New(world, eventBus, log.NewNop(), 5*time.Millisecond)
	require.NoError(t, runner.SetArena(context.Background(), simulation.Arena{Right: 300, Bottom: 600}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = runner.Run(ctx)
	}()
	require.Eventually(t, runner.Running, time.Second, time.Millisecond)

	cfg := server.DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.BroadcastEvery = 1
	srv := server.New(cfg, runner, accel, eventBus, log.NewNop())
	require.NoError(t, srv.Start(ctx))

	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		_ = srv.Stop(stopCtx)
		cancel()
		<-stopped
	})

	return &harness{srv: srv, runner: runner, accel: accel, url: "ws://" + srv.Addr() + "/ws"}
}

func dial(t *testing.T, h *harness, role protocol.Role) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.Name = t.Name()
	cfg.Role = role

	c, err := Dial(context.Background(), h.url, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDial_Welcome(t *testing.T) {
	h := serve(t)
	c := dial(t, h, protocol.RoleSensor)

	assert.Equal(t, protocol.RoleSensor, c.Welcome().Role)
	assert.Equal(t, 200, c.Welcome().TickHz)
	assert.NotEmpty(t, c.Welcome().SessionID)
}

func TestDial_Rejected(t *testing.T) {
	h := serve(t)

	cfg := DefaultClientConfig()
	cfg.Role = "admin"
	_, err := Dial(context.Background(), h.url, cfg)
	require.ErrorIs(t, err, ErrHandshake)
	assert.Contains(t, err.Error(), "invalid role")

	_, err = Dial(context.Background(), "ws://"+h.srv.Addr()+"/nowhere", DefaultClientConfig())
	assert.Error(t, err)
}

func TestClient_SensorStreams(t *testing.T) {
	h := serve(t)
	c := dial(t, h, protocol.RoleSensor)

	require.NoError(t, c.SendSensor(2, 9.8, 0.1))
	require.Eventually(t, func() bool {
		return h.accel.Acceleration() == physics.Vec2{-2, 9.8}
	}, time.Second, time.Millisecond)

	require.NoError(t, c.SendAccel(0.5, 0.25))
	require.Eventually(t, func() bool {
		return h.accel.Acceleration() == physics.Vec2{0.5, 0.25}
	}, time.Second, time.Millisecond)

	errs := make(chan error, 1)
	c.OnError(func(err error) { errs <- err })
	require.NoError(t, c.SendArena(simulation.Arena{Right: 10, Bottom: 10}))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrServer)
		assert.Contains(t, err.Error(), "not allowed")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a server error")
	}
}

func TestClient_ViewerReceivesStateAndWin(t *testing.T) {
	h := serve(t)
	c := dial(t, h, protocol.RoleViewer)

	states := make(chan protocol.State, 256)
	wins := make(chan protocol.Win, 4)
	c.OnState(func(st protocol.State) {
		select {
		case states <- st:
		default:
		}
	})
	c.OnWin(func(w protocol.Win) { wins <- w })

	wide := simulation.Arena{Right: 800, Bottom: 400}
	require.NoError(t, c.SendArena(wide))

	deadline := time.After(2 * time.Second)
	for found := false; !found; {
		select {
		case st := <-states:
			found = st.Arena == wide
		case <-deadline:
			t.Fatal("no state for the new arena")
		}
	}

	require.NoError(t, h.runner.Do(context.Background(), func(w *simulation.World) error {
		d := w.Drain()
		w.Place(d.X, d.Y)
		return nil
	}))

	select {
	case w := <-wins:
		assert.Equal(t, uint64(1), w.Wins)
	case <-time.After(2 * time.Second):
		t.Fatal("no win")
	}
}

func TestClient_Close(t *testing.T) {
	h := serve(t)
	c := dial(t, h, protocol.RoleSensor)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.ErrorIs(t, c.SendAccel(1, 1), ErrClientClosed)

	select {
	case <-c.Done():
	default:
		t.Fatal("read loop still running")
	}
}

func TestClient_ServerGoesAway(t *testing.T) {
	h := serve(t)
	c := dial(t, h, protocol.RoleViewer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.srv.Stop(ctx))

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the server stopping")
	}
	assert.Error(t, c.Err())
	assert.ErrorIs(t, c.SendAccel(1, 1), ErrNotConnected)
}
