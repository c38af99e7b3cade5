package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kielbrand/blinkcopy/internal"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected two arguments: library_dir blink_dir")
	}

	cfg := internal.NewDefaultConfig()
	if err := internal.LoadConfig(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LibraryDir = cmd.Args().Get(0)
	cfg.BlinkDir = cmd.Args().Get(1)

	if cmd.Bool("dryrun") {
		cfg.Run.DryRun = true
	}
	if cmd.Bool("quiet") {
		cfg.Run.Quiet = true
	}
	if cmd.Bool("allow-bias") {
		cfg.Run.AllowBias = true
	}
	if s := cmd.String("flat-state"); s != "" {
		cfg.Flats.StatePath = s
	}
	if cmd.IsSet("picker-limit") {
		cfg.Flats.PickerLimit = int(cmd.Int("picker-limit"))
	}

	// Flag log levels beat the config file; quiet still prints the
	// summary and missing-master warnings.
	if cmd.Bool("debug") {
		cfg.App.LogLevel = slog.LevelDebug
	} else if cfg.Run.Quiet {
		cfg.App.LogLevel = slog.LevelWarn
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "blinkcopy",
		Usage:     "Copy master calibration frames (bias, dark, flat) into blink directories",
		ArgsUsage: "library_dir blink_dir",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "blinkcopy.yaml",
				Value:       "blinkcopy.yaml",
				Sources:     cli.EnvVars("BLINKCOPY_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "dryrun",
				Usage: "Report copy decisions without writing anything",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress per-file progress lines and interactive flat selection",
			},
			&cli.BoolFlag{
				Name:  "allow-bias",
				Usage: "Accept a shorter-exposure dark when a matching bias exists",
			},
			&cli.StringFlag{
				Name:    "flat-state",
				Usage:   "Path to the flat cutoff state file (enables flexible flat matching)",
				Sources: cli.EnvVars("BLINKCOPY_FLAT_STATE"),
			},
			&cli.IntFlag{
				Name:  "picker-limit",
				Usage: "Maximum flat dates shown per direction in the picker",
				Value: 5,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
