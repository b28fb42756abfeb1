package injector

import (
	"github.com/google/wire"
	"github.com/pkg/errors"

	"github.com/zeusync/drain/internal/config"
	"github.com/zeusync/drain/internal/core/events/bus"
	"github.com/zeusync/drain/internal/core/input"
	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
	"github.com/zeusync/drain/internal/server"
)

// App is the assembled headless server.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Runner *loop.Runner
	Server *server.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideAccelerometer,
	ProvideWorld,
	ProvideBus,
	ProvideRunner,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	logger, err := log.NewWithConfig(cfg.Logger())
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

func ProvideAccelerometer(cfg *config.Config) *input.Accelerometer {
	return input.NewAccelerometer(input.WithLimit(cfg.Simulation.AccelLimit))
}

// ProvideWorld builds the world on the configured default arena.
func ProvideWorld(cfg *config.Config, accel *input.Accelerometer) (*simulation.World, error) {
	world := simulation.NewWorld(cfg.Tuning(), accel)
	a := cfg.Arena
	if err := world.SetArena(a.Top, a.Left, a.Right, a.Bottom); err != nil {
		return nil, errors.Wrap(err, "default arena")
	}
	return world, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideRunner(cfg *config.Config, world *simulation.World, eventBus bus.EventBus, logger log.Log) *loop.Runner {
	return loop.New(world, eventBus, logger, cfg.Simulation.TickInterval)
}

func ProvideServer(cfg *config.Config, runner *loop.Runner, accel *input.Accelerometer, eventBus bus.EventBus, logger log.Log) *server.Server {
	return server.New(cfg.Server, runner, accel, eventBus, logger)
}
