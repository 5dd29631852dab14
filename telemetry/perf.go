package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame, in execution order.
const (
	PhaseInput         = "input"
	PhaseFragmentation = "fragmentation"
	PhaseKinematics    = "kinematics"
	PhaseCollision     = "collision"
	PhaseBuffers       = "buffers"
	PhaseDraw          = "draw"
	PhaseTelemetry     = "telemetry"
)

// Phases lists every phase in execution order.
var Phases = []string{
	PhaseInput, PhaseFragmentation, PhaseKinematics, PhaseCollision,
	PhaseBuffers, PhaseDraw, PhaseTelemetry,
}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks per-phase wall-clock timings over a rolling window of frames.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall-clock spacing between EndFrame calls
	lastEnd  time.Time
	interval time.Duration

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 120 for 2 seconds at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = p.now()
	p.currentPhases = make(map[string]time.Duration, len(Phases))
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and begins timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}

	if !p.lastEnd.IsZero() {
		p.interval = now.Sub(p.lastEnd)
	}
	p.lastEnd = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Work time per frame
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of average frame work
	PhasePct map[string]float64

	// Presentation rate from the spacing of the last two frames
	FPS float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.interval > 0 {
		stats.FPS = float64(time.Second) / float64(p.interval)
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration
		if i == 0 || s.FrameDuration < stats.MinFrame {
			stats.MinFrame = s.FrameDuration
		}
		stats.MaxFrame = max(stats.MaxFrame, s.FrameDuration)
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	stats.AvgFrame = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if stats.AvgFrame > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgFrame) * 100
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"min_frame_us", s.MinFrame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd        float64 `csv:"window_end"`
	AvgFrameUS       int64   `csv:"avg_frame_us"`
	MinFrameUS       int64   `csv:"min_frame_us"`
	MaxFrameUS       int64   `csv:"max_frame_us"`
	FPS              float64 `csv:"fps"`
	InputPct         float64 `csv:"input_pct"`
	FragmentationPct float64 `csv:"fragmentation_pct"`
	KinematicsPct    float64 `csv:"kinematics_pct"`
	CollisionPct     float64 `csv:"collision_pct"`
	BuffersPct       float64 `csv:"buffers_pct"`
	DrawPct          float64 `csv:"draw_pct"`
	TelemetryPct     float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
// windowEnd is the simulation time in seconds.
func (s PerfStats) ToCSV(windowEnd float64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:        windowEnd,
		AvgFrameUS:       s.AvgFrame.Microseconds(),
		MinFrameUS:       s.MinFrame.Microseconds(),
		MaxFrameUS:       s.MaxFrame.Microseconds(),
		FPS:              s.FPS,
		InputPct:         s.PhasePct[PhaseInput],
		FragmentationPct: s.PhasePct[PhaseFragmentation],
		KinematicsPct:    s.PhasePct[PhaseKinematics],
		CollisionPct:     s.PhasePct[PhaseCollision],
		BuffersPct:       s.PhasePct[PhaseBuffers],
		DrawPct:          s.PhasePct[PhaseDraw],
		TelemetryPct:     s.PhasePct[PhaseTelemetry],
	}
}
