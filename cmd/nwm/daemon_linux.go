//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/1broseidon/nwm/internal/bindings"
	"github.com/1broseidon/nwm/internal/config"
	"github.com/1broseidon/nwm/internal/control"
	"github.com/1broseidon/nwm/internal/daemon"
	"github.com/1broseidon/nwm/internal/ipc"
	"github.com/1broseidon/nwm/internal/layout"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/spawn"
	"github.com/1broseidon/nwm/internal/wm"
)

func runDaemon(parent context.Context, cfg *config.Config, socket string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	opts, err := managerOptions(cfg)
	if err != nil {
		return err
	}

	spawner := spawn.New(cfg.Terminal, cfg.TerminalArgs, logger)
	backend, err := platform.NewLinuxBackend(platform.LinuxOptions{
		Logger:        logger,
		SpawnEmbedded: spawner.SpawnWith,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Stop()

	loop := wm.NewLoop(logger)
	opts.Logger = logger
	opts.Scheduler = wm.LoopScheduler{Loop: loop}
	mgr := wm.New(backend, opts)
	lever := layout.Register(mgr, leverConfig(cfg))

	handler := bindings.NewHandler(mgr, cfg, bindings.Deps{
		Spawn: spawner.Spawn,
		Quit:  quit,
	})
	if err := handler.Register(backend, cfg); err != nil {
		logger.Warn("some key bindings were not registered", "error", err)
	}
	if err := mgr.Start(); err != nil {
		return err
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	if err := backend.Start(wm.Serialize(loop, mgr)); err != nil {
		quit()
		<-loop.Done()
		return fmt.Errorf("failed to start backend: %w", err)
	}
	go backend.Run()

	server := ipc.NewServer(socket, control.New(mgr, loop), func(ctx context.Context, action string) error {
		return loop.Call(ctx, func() error { return handler.Run(action) })
	}, logger)
	if err := server.Start(); err != nil {
		logger.Warn("IPC server not started", "error", err)
		server = nil
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: reconcileInterval(cfg),
		Logger:   logger,
	}, mgr, loop, backend)
	go reconciler.Run(ctx)

	logger.Info("nwm daemon started", "socket", socket)
	<-ctx.Done()
	logger.Info("shutting down")

	var result *multierror.Error
	if server != nil {
		server.Stop()
	}
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		result = multierror.Append(result, fmt.Errorf("event loop: %w", err))
	}
	// The loop has stopped, so the lever layout can be detached directly.
	lever.Close()
	if err := mgr.CheckInvariants(); err != nil {
		logger.Warn("model inconsistent at shutdown", "error", err)
	}
	return result.ErrorOrNil()
}
