package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunOptions controls the frame loop.
type RunOptions struct {
	// FixedStep replaces the measured wall-clock delta when positive.
	FixedStep time.Duration

	// MaxFrames stops the loop after this many frames, 0 = unlimited.
	MaxFrames int
}

// Run drives g from host until the user quits, ctx is cancelled or
// MaxFrames is reached. Cancellation is checked between frames only.
func Run(ctx context.Context, g *Game, host Host, opts RunOptions) error {
	presenter, _ := host.(Presenter)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping", "reason", context.Cause(ctx), "frames", g.Frames())
			return nil
		default:
		}

		in, ok := host.Poll()
		if !ok {
			slog.Info("host closed", "frames", g.Frames())
			return nil
		}

		now := time.Now()
		dt := now.Sub(last)
		last = now
		if opts.FixedStep > 0 {
			dt = opts.FixedStep
		}

		report, err := g.Frame(in, dt)
		if err != nil {
			return fmt.Errorf("frame %d: %w", g.Frames()+1, err)
		}
		if presenter != nil {
			if err := presenter.Present(g, report); err != nil {
				return fmt.Errorf("presenting frame %d: %w", report.Frame, err)
			}
		}

		if opts.MaxFrames > 0 && report.Frame >= opts.MaxFrames {
			slog.Info("max frames reached", "frames", report.Frame)
			return nil
		}
	}
}
