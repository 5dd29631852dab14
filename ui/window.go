package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/renderer"
	"github.com/pthm-cable/metaballs/renderer/gl"
)

const controls = "Click: explode | Up/Down: camera | Space: pause | R: reset | Tab: field panel | F11: fullscreen"

// Window hosts the game in a raylib window with the shader device.
type Window struct {
	device *gl.Device
	title  string

	hud   *HUD
	perf  *PerfPanel
	panel *FieldPanel

	// Set by Present, read by the overlay during the next frame's draw.
	game   *game.Game
	report game.FrameReport
}

// NewWindow opens the window and compiles the metaball shader.
func NewWindow(cfg *config.Config) (*Window, error) {
	flags := uint32(rl.FlagWindowResizable)
	if cfg.Screen.HighDPI {
		flags |= rl.FlagWindowHighdpi
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	device, err := gl.NewDevice()
	if err != nil {
		rl.CloseWindow()
		return nil, fmt.Errorf("creating shader device: %w", err)
	}

	w := &Window{
		device: device,
		title:  cfg.Screen.Title,
		hud:    NewHUD(),
		perf:   NewPerfPanel(10, 140),
		panel:  NewFieldPanel(),
	}
	device.SetOverlay(w.drawOverlay)
	return w, nil
}

// ShowPanel opens the field panel.
func (w *Window) ShowPanel() {
	if !w.panel.Visible() {
		w.panel.Toggle()
	}
}

// Device implements game.Host.
func (w *Window) Device() renderer.Device { return w.device }

// Viewport implements game.Host. The simulation runs in render pixels so
// the field stays sharp on high-DPI displays.
func (w *Window) Viewport() components.Viewport {
	return components.Viewport{
		Width:  float64(rl.GetRenderWidth()),
		Height: float64(rl.GetRenderHeight()),
	}
}

// Poll implements game.Host.
func (w *Window) Poll() (game.Input, bool) {
	if rl.WindowShouldClose() {
		return game.Input{}, false
	}

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		w.panel.Toggle()
	}

	vp := w.Viewport()
	in := game.Input{
		Resize:   &vp,
		Scale:    rl.GetWindowScaleDPI().X,
		Forward:  rl.IsKeyDown(rl.KeyUp),
		Backward: rl.IsKeyDown(rl.KeyDown),
		Pause:    rl.IsKeyPressed(rl.KeySpace),
		Reset:    rl.IsKeyPressed(rl.KeyR),
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		mouse := rl.GetMousePosition()
		if !w.panel.Contains(int32(rl.GetScreenWidth()), mouse) {
			in.Picks = append(in.Picks, components.Position{X: float64(mouse.X), Y: float64(mouse.Y)})
		}
	}
	return in, true
}

// Present implements game.Presenter. The frame itself was already shown
// by the device; the game is kept for the next overlay.
func (w *Window) Present(g *game.Game, report game.FrameReport) error {
	w.game = g
	w.report = report
	return nil
}

func (w *Window) drawOverlay() {
	if w.game == nil {
		return
	}
	g := w.game
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	bottom := w.hud.Draw(HUDData{
		Title:        w.title,
		Particles:    g.Store().Len(),
		TotalMass:    g.Store().TotalMass(),
		SimTime:      g.Now(),
		Frame:        w.report.Frame,
		FPS:          rl.GetFPS(),
		CameraDepth:  g.Camera().Z,
		Paused:       g.Paused(),
		ScreenHeight: screenHeight,
	})
	w.perf.SetPosition(10, bottom+10)
	w.perf.Draw(g.Perf())
	w.hud.DrawControls(screenHeight, controls)

	if field, changed := w.panel.Draw(screenWidth, g.Field()); changed {
		g.SetField(field)
	}
}

// Close implements game.Host.
func (w *Window) Close() error {
	w.device.Unload()
	rl.CloseWindow()
	return nil
}
