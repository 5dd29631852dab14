package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPerf(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc, clock := newTestPerf(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseKinematics)
		clock.advance(100 * time.Microsecond)
		pc.StartPhase(PhaseCollision)
		clock.advance(300 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrame != 400*time.Microsecond {
		t.Errorf("expected 400us average frame, got %v", stats.AvgFrame)
	}
	if stats.PhaseAvg[PhaseKinematics] != 100*time.Microsecond {
		t.Errorf("expected 100us kinematics, got %v", stats.PhaseAvg[PhaseKinematics])
	}
	if pct := stats.PhasePct[PhaseCollision]; pct != 75 {
		t.Errorf("expected collision at 75%%, got %v", pct)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc, clock := newTestPerf(5)

	// Five slow frames followed by five fast ones; only the fast remain
	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseDraw)
		if i < 5 {
			clock.advance(time.Millisecond)
		} else {
			clock.advance(100 * time.Microsecond)
		}
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.MaxFrame != 100*time.Microsecond {
		t.Errorf("expected old samples to be evicted, max frame %v", stats.MaxFrame)
	}
	if stats.MinFrame != 100*time.Microsecond {
		t.Errorf("expected min frame 100us, got %v", stats.MinFrame)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgFrame != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
	if stats.FPS != 0 {
		t.Errorf("expected no FPS before two frames, got %v", stats.FPS)
	}
}

func TestPerfCollector_FPS(t *testing.T) {
	pc, clock := newTestPerf(10)

	pc.StartFrame()
	pc.EndFrame()
	clock.advance(20 * time.Millisecond)
	pc.StartFrame()
	pc.EndFrame()

	if fps := pc.Stats().FPS; fps != 50 {
		t.Errorf("expected 50 fps from 20ms spacing, got %v", fps)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgFrame: 2 * time.Millisecond,
		PhasePct: map[string]float64{PhaseBuffers: 12.5, PhaseDraw: 60},
	}

	row := stats.ToCSV(3.5)
	if row.WindowEnd != 3.5 || row.AvgFrameUS != 2000 {
		t.Errorf("unexpected row header fields: %+v", row)
	}
	if row.BuffersPct != 12.5 || row.DrawPct != 60 || row.CollisionPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}
