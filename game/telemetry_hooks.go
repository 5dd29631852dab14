package game

import (
	"log/slog"
)

// flushTelemetry closes the stats window once it has elapsed in simulation time.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.now) {
		return
	}

	stats := g.collector.Flush(g.now, g.store.All())
	perfStats := g.perfCollector.Stats()

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndSec); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
