package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/drain/internal/config"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "drain:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Runner.Run(gctx)
	})
	g.Go(func() error {
		if err := app.Server.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return app.Server.Stop(shutdownCtx)
	})

	app.Logger.Info("Drain server running",
		log.String("addr", cfg.Server.ListenAddr),
		log.Duration("tick_interval", cfg.Simulation.TickInterval))

	return g.Wait()
}
