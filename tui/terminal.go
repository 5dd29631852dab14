// Package tui hosts the simulation in a terminal. The field is rasterised
// on the CPU at two pixels per cell and drawn with upper half blocks.
package tui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/game"
	"github.com/pthm-cable/metaballs/renderer"
)

const halfBlock = '▀'

// Terminal is a game.Host drawing to a tcell screen.
type Terminal struct {
	screen tcell.Screen
	device *renderer.SoftwareDevice

	cellW, cellH int
	cols, rows   int // field area, excluding the status line

	held     time.Duration
	interval time.Duration
	now      func() time.Time

	events chan tcell.Event
	quit   chan struct{}

	// Terminals report key presses but not releases, so an arrow counts
	// as held until held has passed since its last repeat.
	forwardUntil  time.Time
	backwardUntil time.Time
	buttons       tcell.ButtonMask
	lastPresent   time.Time
}

// NewTerminal takes over the controlling terminal.
func NewTerminal(cfg *config.Config) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising screen: %w", err)
	}
	return newTerminal(screen, cfg), nil
}

// newTerminal wraps an initialised screen.
func newTerminal(screen tcell.Screen, cfg *config.Config) *Terminal {
	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		device: renderer.NewSoftwareDevice(1, 1, cfg.Render.RasterWorkers),
		cellW:  cfg.Terminal.CellWidth,
		cellH:  cfg.Terminal.CellHeight,
		held:   cfg.Derived.HeldWindow,
		now:    time.Now,
		events: make(chan tcell.Event, 100),
		quit:   make(chan struct{}),
	}
	if cfg.Terminal.FrameRate > 0 {
		t.interval = time.Second / time.Duration(cfg.Terminal.FrameRate)
	}
	t.resize()

	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case t.events <- ev:
			case <-t.quit:
				return
			}
		}
	}()
	return t
}

// Device implements game.Host.
func (t *Terminal) Device() renderer.Device { return t.device }

// Viewport implements game.Host. Each cell covers cellW x cellH virtual
// pixels so particle sizes match the window host.
func (t *Terminal) Viewport() components.Viewport {
	return components.Viewport{
		Width:  float64(t.cols * t.cellW),
		Height: float64(t.rows * t.cellH),
	}
}

func (t *Terminal) resize() {
	cols, rows := t.screen.Size()
	t.cols = max(cols, 1)
	t.rows = max(rows-1, 1)
	t.device.Resize(t.cols, t.rows*2)
}

// Poll implements game.Host. It drains queued events without blocking.
func (t *Terminal) Poll() (game.Input, bool) {
	var in game.Input
	now := t.now()

drain:
	for {
		select {
		case ev := <-t.events:
			if !t.handle(ev, now, &in) {
				return in, false
			}
		default:
			break drain
		}
	}

	vp := t.Viewport()
	in.Resize = &vp
	in.Scale = 1
	in.Forward = now.Before(t.forwardUntil)
	in.Backward = now.Before(t.backwardUntil)
	return in, true
}

// handle applies one event to in. It returns false on quit.
func (t *Terminal) handle(ev tcell.Event, now time.Time, in *game.Input) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			t.forwardUntil = now.Add(t.held)
			t.backwardUntil = time.Time{}
		case tcell.KeyDown:
			t.backwardUntil = now.Add(t.held)
			t.forwardUntil = time.Time{}
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case ' ':
				in.Pause = !in.Pause
			case 'r', 'R':
				in.Reset = true
			}
		}

	case *tcell.EventMouse:
		buttons := ev.Buttons()
		pressed := buttons&tcell.Button1 != 0 && t.buttons&tcell.Button1 == 0
		t.buttons = buttons
		if pressed {
			col, row := ev.Position()
			if row < t.rows {
				in.Picks = append(in.Picks, t.cellCenter(col, row))
			}
		}

	case *tcell.EventResize:
		t.screen.Sync()
		t.resize()
	}
	return true
}

// cellCenter maps a terminal cell to viewport pixels.
func (t *Terminal) cellCenter(col, row int) components.Position {
	return components.Position{
		X: (float64(col) + 0.5) * float64(t.cellW),
		Y: (float64(row) + 0.5) * float64(t.cellH),
	}
}

// Present implements game.Presenter. It copies the raster to the screen,
// draws the status line and sleeps out the rest of the frame interval.
func (t *Terminal) Present(g *game.Game, report game.FrameReport) error {
	img := t.device.Image()
	b := img.Bounds()

	for row := 0; row < t.rows && 2*row < b.Dy(); row++ {
		for col := 0; col < t.cols && col < b.Dx(); col++ {
			top := img.RGBAAt(col, 2*row)
			bottom := top
			if 2*row+1 < b.Dy() {
				bottom = img.RGBAAt(col, 2*row+1)
			}
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
			t.screen.SetContent(col, row, halfBlock, nil, style)
		}
	}

	t.drawStatus(g, report)
	t.screen.Show()

	if t.interval > 0 && !t.lastPresent.IsZero() {
		if wait := t.interval - time.Since(t.lastPresent); wait > 0 {
			time.Sleep(wait)
		}
	}
	t.lastPresent = time.Now()
	return nil
}

func (t *Terminal) drawStatus(g *game.Game, report game.FrameReport) {
	status := fmt.Sprintf(" particles %d | t %.1fs | depth %.2f | click: explode  up/down: camera  space: pause  r: reset  q: quit",
		report.Particles, report.Now.Seconds(), g.Camera().Z)
	if report.Paused {
		status = " PAUSED |" + status
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	x := 0
	for _, r := range status {
		if x >= t.cols {
			break
		}
		t.screen.SetContent(x, t.rows, r, nil, style)
		x++
	}
	for ; x < t.cols; x++ {
		t.screen.SetContent(x, t.rows, ' ', nil, style)
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Close implements game.Host and restores the terminal.
func (t *Terminal) Close() error {
	close(t.quit)
	t.screen.Fini()
	t.device.Close()
	return nil
}
