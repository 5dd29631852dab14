package ui

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/renderer"
)

const (
	panelWidth  = 300
	panelHeight = 420
)

// slider describes one tunable shading constant.
type slider struct {
	label    string
	min, max float32
	format   string
	value    func(p *renderer.FieldParams) *float32
}

var fieldSliders = []slider{
	{"Threshold", 1, 20, "%.2f", func(p *renderer.FieldParams) *float32 { return &p.Threshold }},
	{"Cutoff", 0, 1, "%.3f", func(p *renderer.FieldParams) *float32 { return &p.Cutoff }},
	{"Scale", 0.05, 1, "%.3f", func(p *renderer.FieldParams) *float32 { return &p.Scale }},
	{"Intensity scale", 0.1, 2, "%.2f", func(p *renderer.FieldParams) *float32 { return &p.IntensityScale }},
	{"Max intensity", 0.5, 6, "%.2f", func(p *renderer.FieldParams) *float32 { return &p.MaxIntensity }},
	{"Depth scale", 0, 400, "%.0f", func(p *renderer.FieldParams) *float32 { return &p.DepthScale }},
}

// FieldPanel is a raygui panel for tuning the shading constants live.
type FieldPanel struct {
	renderer *Renderer
	visible  bool
}

// NewFieldPanel creates a hidden field panel.
func NewFieldPanel() *FieldPanel {
	return &FieldPanel{renderer: NewRenderer()}
}

// Toggle shows or hides the panel.
func (p *FieldPanel) Toggle() { p.visible = !p.visible }

// Visible reports whether the panel is drawn.
func (p *FieldPanel) Visible() bool { return p.visible }

// Bounds returns the panel rectangle for a screen of the given width.
func (p *FieldPanel) Bounds(screenWidth int32) rl.Rectangle {
	return rl.Rectangle{
		X:      float32(screenWidth - panelWidth - 10),
		Y:      10,
		Width:  panelWidth,
		Height: panelHeight,
	}
}

// Contains reports whether a screen point falls on the visible panel.
func (p *FieldPanel) Contains(screenWidth int32, point rl.Vector2) bool {
	return p.visible && rl.CheckCollisionPointRec(point, p.Bounds(screenWidth))
}

// Draw renders the panel and returns the edited params and whether any
// value changed.
func (p *FieldPanel) Draw(screenWidth int32, params renderer.FieldParams) (renderer.FieldParams, bool) {
	if !p.visible {
		return params, false
	}

	bounds := p.Bounds(screenWidth)
	p.renderer.DrawPanel(int32(bounds.X), int32(bounds.Y), int32(bounds.Width), int32(bounds.Height))

	x := bounds.X + 10
	y := bounds.Y + 10
	y = float32(p.renderer.DrawSectionHeader(int32(x), int32(y), "Field"))
	y += 6

	changed := false
	for _, s := range fieldSliders {
		v := s.value(&params)

		rl.DrawText(s.label, int32(x), int32(y), 12, rl.LightGray)
		y += 16
		next := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: panelWidth - 90, Height: 16},
			"", "",
			*v, s.min, s.max,
		)
		rl.DrawText(fmt.Sprintf(s.format, *v), int32(x+panelWidth-80), int32(y+2), 12, rl.LightGray)
		if next != *v {
			*v = next
			changed = true
		}
		y += 26
	}

	toroidal := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Toroidal", params.Toroidal)
	if toroidal != params.Toroidal {
		params.Toroidal = toroidal
		changed = true
	}
	y += 26

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 130, Height: 24}, "Colour: "+params.ColorMode.String()) {
		params.ColorMode = nextColorMode(params.ColorMode)
		changed = true
	}
	y += 34

	rl.DrawText("Press C to copy YAML to clipboard", int32(x), int32(y), 12, rl.Gray)

	if rl.IsKeyPressed(rl.KeyC) {
		text, err := FieldYAML(params)
		if err != nil {
			slog.Error("failed to encode field config", "error", err)
		} else {
			rl.SetClipboardText(text)
		}
	}

	return params, changed
}

func nextColorMode(m renderer.ColorMode) renderer.ColorMode {
	if m == renderer.ColorModeAnimated {
		return renderer.ColorModeParticle
	}
	return renderer.ColorModeAnimated
}

// FieldYAML renders params as a field section ready to paste into a config file.
func FieldYAML(params renderer.FieldParams) (string, error) {
	doc := struct {
		Field config.FieldConfig `yaml:"field"`
	}{Field: game.FieldConfig(params)}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
