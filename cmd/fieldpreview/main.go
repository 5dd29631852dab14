// Field preview tool - a frozen population with the field panel open, for
// tuning the shading constants without the particles moving.
//
// Usage: go run ./cmd/fieldpreview [-config config.yaml] [-seed 1] [-count 12]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 1, "RNG seed for the frozen population")
	count := flag.Int("count", 0, "Particle count (0 = population.initial)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *count > 0 {
		cfg.Population.Initial = *count
	}
	cfg.Screen.Title = "Metaball Field Preview"

	w, err := ui.NewWindow(cfg)
	if err != nil {
		slog.Error("failed to open window", "error", err)
		os.Exit(1)
	}
	defer w.Close()
	w.ShowPanel()

	g, err := game.New(cfg, w.Device(), w.Viewport(), game.Options{Seed: *seed})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	// Freeze the population; the camera and colour phase still animate
	if _, err := g.Frame(game.Input{Pause: true}, 0); err != nil {
		slog.Error("first frame failed", "error", err)
		os.Exit(1)
	}

	if err := game.Run(context.Background(), g, w, game.RunOptions{}); err != nil {
		slog.Error("preview stopped", "error", err)
		os.Exit(1)
	}
}
