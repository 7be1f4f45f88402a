package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/island/config"
	"github.com/pthm-cable/island/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	duration := flag.Duration("duration", 0, "Run length, 0 = until interrupted (default from config)")
	interval := flag.Duration("interval", 0, "Period of the growth, behavior and report tasks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logFormat := flag.String("log-format", "", "Log format: json or text (empty = use config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")

	flag.Parse()

	// Only an explicit -duration overrides the config, since 0 is meaningful.
	var durationOverride *time.Duration
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "duration" {
			durationOverride = duration
		}
	})

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if err := applyOverrides(cfg, durationOverride, *interval, *logFormat, *logLevel); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		slog.Error("invalid log config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	sim, err := game.NewSimulation(cfg, game.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	if err := sim.Populate(); err != nil {
		sim.Close()
		slog.Error("failed to populate", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := sim.Run(ctx)
	stop()

	if err := sim.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		slog.Error("simulation failed", "error", runErr)
		os.Exit(1)
	}
}

// applyOverrides layers CLI flags over the loaded config and re-finalizes it.
// A nil duration leaves the configured run length alone.
func applyOverrides(cfg *config.Config, duration *time.Duration, interval time.Duration, logFormat, logLevel string) error {
	if duration != nil {
		cfg.Schedule.Duration = *duration
	}
	if interval > 0 {
		cfg.Schedule.Interval = interval
		// Keep the deadline inside the new period.
		if cfg.Schedule.BehaviorTimeout >= interval {
			cfg.Schedule.BehaviorTimeout = interval / 2
		}
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg.Finalize()
}

// newLogger builds the process logger from the log config.
func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch lc.Format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
}
