/*
Bouncing ball demo: the testbed scene driven by the engine package
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rebound/engine"
	"github.com/spaghettifunk/rebound/engine/config"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("failed to load config: %s", err)
	}

	tb := testbed.NewTestGame()

	e, err := engine.New(tb.Game, cfg)
	if err != nil {
		core.LogFatal("failed to create engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("failed to initialize engine: %s", err)
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop owns the window and the device, so the signal only asks it to stop
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	if runErr != nil {
		core.LogError("engine stopped: %s", runErr)
		os.Exit(1)
	}
}
