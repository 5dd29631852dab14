package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/metaballs/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Particles    int
	TotalMass    float64
	SimTime      time.Duration
	Frame        int
	FPS          int32
	CameraDepth  float32
	Paused       bool
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD and returns the Y position below it.
func (h *HUD) Draw(data HUDData) int32 {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	r := h.renderer
	y := int32(38)
	y = r.DrawLabelValue(10, y, "Particles", fmt.Sprintf("%d", data.Particles))
	y = r.DrawLabelValue(10, y, "Mass", fmt.Sprintf("%.0f", data.TotalMass))
	y = r.DrawLabelValue(10, y, "Time", fmt.Sprintf("%.1fs", data.SimTime.Seconds()))
	y = r.DrawLabelValue(10, y, "Frame", fmt.Sprintf("%d (%d fps)", data.Frame, data.FPS))
	y = r.DrawBar(10, y, "Camera depth", data.CameraDepth, 260)

	if data.Paused {
		rl.DrawText("PAUSED", 10, y, 16, rl.Yellow)
		y += 20
	}
	return y
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase frame timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition moves the panel, typically under the HUD.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s",
		stats.AvgFrame.Round(time.Microsecond),
		stats.MaxFrame.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
