// Command desktop plays the drain game in a window, either locally or as a
// viewer of a drain server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
)

func main() {
	connect := flag.String("connect", "", "websocket URL of a drain server, e.g. ws://127.0.0.1:8080/ws")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := run(*connect, *level); err != nil {
		fmt.Fprintln(os.Stderr, "drain:", err)
		os.Exit(1)
	}
}

func run(connect, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger, err := log.NewWithConfig(log.Config{Level: lvl, Encoding: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var src source
	if connect != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if src, err = newRemoteSource(ctx, connect, logger); err != nil {
			return err
		}
	} else if src, err = newLocalSource(logger); err != nil {
		return err
	}
	defer func() { _ = src.close() }()

	ebiten.SetWindowSize(540, 960)
	ebiten.SetWindowTitle("Drain")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(int(time.Second / loop.DefaultTickInterval))

	return ebiten.RunGame(&Game{source: src, logger: logger})
}
