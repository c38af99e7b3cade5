// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kielbrand/blinkcopy/internal/blink"
	"github.com/kielbrand/blinkcopy/internal/flatstate"
	"github.com/kielbrand/blinkcopy/internal/library"
	"github.com/kielbrand/blinkcopy/internal/match"
	"github.com/kielbrand/blinkcopy/internal/picker"
)

// Run executes one copy pass with the given options. Directory
// validation failures are the only fatal errors; missing masters and
// per-file copy failures end up in the summary with a zero exit.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.selector == nil {
		app.selector = picker.TUISelector{}
	}

	cfg := app.config

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("library_dir", cfg.LibraryDir),
		slog.String("blink_dir", cfg.BlinkDir),
		slog.String("flat_state", cfg.Flats.StatePath),
		slog.Bool("dry_run", cfg.Run.DryRun))

	if err := requireDir(cfg.LibraryDir); err != nil {
		return fmt.Errorf("library dir: %w", err)
	}
	if err := requireDir(cfg.BlinkDir); err != nil {
		return fmt.Errorf("blink dir: %w", err)
	}

	lib, err := library.Scan(cfg.LibraryDir, logger)
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}

	// The run always works on an in-memory state. For a dry run that is
	// a throwaway clone of the on-disk map; it never merges back.
	var runState *flatstate.State
	if cfg.Flats.StatePath != "" {
		runState = flatstate.Load(cfg.Flats.StatePath, logger)
		if cfg.Run.DryRun {
			runState = runState.Clone()
		}
	}

	runner := &blink.Runner{
		Lib:         lib,
		Engine:      match.NewEngine(lib),
		State:       runState,
		Selector:    app.selector,
		Logger:      logger,
		DryRun:      cfg.Run.DryRun,
		Quiet:       cfg.Run.Quiet,
		AllowBias:   cfg.Run.AllowBias,
		PickerLimit: cfg.Flats.PickerLimit,
	}

	summary, err := runner.Run(cfg.BlinkDir)
	if err != nil {
		return err
	}

	if runState != nil && !cfg.Run.DryRun {
		if err := runState.Save(cfg.Flats.StatePath); err != nil {
			logger.Error("failed to save flat state", slog.String("error", err.Error()))
		}
	}

	summary.Render(os.Stdout)
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	return nil
}
