// Package app provides the top-level lifecycle for the scanner daemon. It
// wires dependencies, starts the daemon, and tears everything down on
// context cancellation so normal exit and termination signals share one
// cleanup path.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"wxarb/internal/config"
)

// App is the root application object for daemon mode.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, starts the scanner daemon, and blocks until the
// context is cancelled. The daemon's Stop runs before Run returns, so the
// final status and marker cleanup happen on both clean exit and signals.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting scanner",
		slog.Bool("dry_run", a.cfg.Scanner.DryRun),
		slog.Int("locations", len(a.cfg.Locations)),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if err := deps.Daemon.Start(ctx); err != nil {
		return fmt.Errorf("app: start daemon: %w", err)
	}

	<-ctx.Done()

	deps.Daemon.Stop()
	return ctx.Err()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
