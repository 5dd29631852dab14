// Shader debug tool - renders one frame through the metaball shader and the
// CPU rasteriser and writes both to PNG for side by side inspection.
//
// Usage: go run ./cmd/shaderdebug -seed 7 -out debug
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/renderer"
	"github.com/pthm-cable/metaballs/renderer/gl"
	"github.com/pthm-cable/metaballs/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outDir := flag.String("out", "debug", "Output directory for the PNGs")
	seed := flag.Int64("seed", 1, "RNG seed for the population")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	depth := flag.Float64("depth", 0, "Camera depth")
	flag.Parse()

	if err := run(*configPath, *outDir, *seed, *width, *height, float32(*depth)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, outDir string, seed int64, width, height int, depth float32) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	vp := components.Viewport{Width: float64(width), Height: float64(height)}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(width), int32(height), "Shader Debug")
	defer rl.CloseWindow()

	gpu, err := gl.NewDevice()
	if err != nil {
		return err
	}
	defer gpu.Unload()

	// Capture inside the frame, before the buffers swap
	var captured image.Image
	gpu.SetOverlay(func() {
		if captured != nil {
			return
		}
		img := rl.LoadImageFromScreen()
		captured = img.ToImage()
		rl.UnloadImage(img)
	})

	cpu := renderer.NewSoftwareDevice(width, height, cfg.Render.RasterWorkers)
	defer cpu.Close()

	// Same seed, same population on both devices
	for _, dev := range []renderer.Device{gpu, cpu} {
		g, err := game.New(cfg, dev, vp, game.Options{Seed: seed})
		if err != nil {
			return err
		}
		g.Camera().Z = depth
		_, err = g.Frame(game.Input{}, 0)
		g.Unload()
		if err != nil {
			return err
		}
	}
	if captured == nil {
		return fmt.Errorf("shader frame was not captured")
	}

	shaderPath := filepath.Join(outDir, "shader.png")
	if err := telemetry.WritePNG(shaderPath, captured); err != nil {
		return err
	}
	softwarePath := filepath.Join(outDir, "software.png")
	if err := telemetry.WritePNG(softwarePath, cpu.Image()); err != nil {
		return err
	}

	fmt.Printf("Shader rendered to: %s (%dx%d)\n", shaderPath, width, height)
	fmt.Printf("Software rendered to: %s\n", softwarePath)
	fmt.Printf("Mean channel difference: %.4f\n", meanDiff(captured, cpu.Image()))
	return nil
}

// meanDiff is the mean absolute RGB difference in [0, 1] over the shared area.
func meanDiff(a, b image.Image) float64 {
	r := a.Bounds().Intersect(b.Bounds())
	if r.Empty() {
		return 0
	}
	var total float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ar, ag, ab, _ := a.At(x, y).RGBA()
			br, bg, bb, _ := b.At(x, y).RGBA()
			total += absDiff(ar, br) + absDiff(ag, bg) + absDiff(ab, bb)
		}
	}
	return total / float64(3*0xffff*r.Dx()*r.Dy())
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
