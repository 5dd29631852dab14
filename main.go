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

	"github.com/pthm-cable/metaballs/audio"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/tui"
	"github.com/pthm-cable/metaballs/ui"
)

type flags struct {
	configPath  string
	mode        string
	seed        int64
	maxFrames   int
	outputDir   string
	snapshotDir string
	logStats    bool
	logFile     string
	statsWindow float64
	noAudio     bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&f.mode, "mode", "window", "Host: window, terminal or headless")
	flag.Int64Var(&f.seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.IntVar(&f.maxFrames, "max-frames", 0, "Stop after N frames (0 = unlimited)")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.StringVar(&f.snapshotDir, "snapshot-dir", "", "Directory for headless snapshot files")
	flag.BoolVar(&f.logStats, "log-stats", false, "Output stats via slog")
	flag.StringVar(&f.logFile, "log-file", "", "Write logs to this file (terminal mode logs nowhere by default)")
	flag.Float64Var(&f.statsWindow, "stats-window", 0, "Stats window size in seconds (0 = use config)")
	flag.BoolVar(&f.noAudio, "no-audio", false, "Disable sound effects")
	flag.Parse()

	if err := run(f); err != nil {
		slog.Error("fatal", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(f flags) error {
	// Initialize config before anything else
	if err := config.Init(f.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	closeLog, err := setupLogging(f)
	if err != nil {
		return err
	}
	defer closeLog()

	// Set up seed
	rngSeed := f.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	host, runOpts, err := newHost(cfg, f, rngSeed)
	if err != nil {
		return err
	}
	defer host.Close()
	runOpts.MaxFrames = f.maxFrames

	opts := game.Options{
		Seed:        rngSeed,
		LogStats:    f.logStats,
		StatsWindow: time.Duration(f.statsWindow * float64(time.Second)),
		OutputDir:   f.outputDir,
	}
	if cfg.Audio.Enabled && !f.noAudio && f.mode != "headless" {
		player, err := audio.NewPlayer(cfg)
		if err != nil {
			// Non-fatal, the simulation runs silent
			slog.Warn("audio unavailable", "error", err)
		} else {
			defer player.Close()
			opts.Sounds = player
		}
	}

	g, err := game.New(cfg, host.Device(), host.Viewport(), opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"mode", f.mode,
		"seed", rngSeed,
		"max_frames", f.maxFrames,
		"fixed_step", runOpts.FixedStep,
	)
	return game.Run(ctx, g, host, runOpts)
}

func newHost(cfg *config.Config, f flags, seed int64) (game.Host, game.RunOptions, error) {
	switch f.mode {
	case "window":
		w, err := ui.NewWindow(cfg)
		return w, game.RunOptions{}, err
	case "terminal":
		t, err := tui.NewTerminal(cfg)
		return t, game.RunOptions{}, err
	case "headless":
		h := game.NewHeadless(cfg, seed, f.snapshotDir)
		return h, game.RunOptions{FixedStep: cfg.Derived.HeadlessDT}, nil
	}
	return nil, game.RunOptions{}, fmt.Errorf("unknown mode %q", f.mode)
}

// setupLogging installs a JSON slog handler. The terminal host owns
// stdout, so it logs to -log-file or nowhere.
func setupLogging(f flags) (func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = file
		closeFn = func() { file.Close() }
	case f.mode == "terminal":
		out = io.Discard
	}

	logger := slog.New(slog.NewJSONHandler(out, nil))
	slog.SetDefault(logger)
	return closeFn, nil
}
