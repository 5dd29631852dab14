package telemetry

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/metaballs/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is a diagnostic dump of the population at one frame.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Frame      int     `json:"frame"`
	SimTimeSec float64 `json:"sim_time"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle.
type ParticleState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VelX   float64 `json:"vel_x"`
	VelY   float64 `json:"vel_y"`
	Radius float64 `json:"radius"`
	R      float64 `json:"r"`
	G      float64 `json:"g"`
	B      float64 `json:"b"`

	// Remaining merge cooldown relative to the snapshot time
	CooldownSec float64 `json:"cooldown,omitempty"`
}

// NewSnapshot captures particles at simulation time now.
func NewSnapshot(seed int64, vp components.Viewport, frame int, now time.Duration, particles []components.Particle) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		RNGSeed:    seed,
		Width:      vp.Width,
		Height:     vp.Height,
		Frame:      frame,
		SimTimeSec: now.Seconds(),
		Particles:  make([]ParticleState, len(particles)),
	}
	for i, p := range particles {
		state := ParticleState{
			X: p.Pos.X, Y: p.Pos.Y,
			VelX: p.Vel.X, VelY: p.Vel.Y,
			Radius: p.Radius,
			R:      p.Color.R, G: p.Color.G, B: p.Color.B,
		}
		if !p.CanMerge(now) {
			state.CooldownSec = (p.MergeCooldownUntil - now).Seconds()
		}
		s.Particles[i] = state
	}
	return s
}

// Viewport returns the extents the snapshot was taken in.
func (s *Snapshot) Viewport() components.Viewport {
	return components.Viewport{Width: s.Width, Height: s.Height}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%06d.json", snapshot.Frame))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk for inspection.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}

// SaveImage encodes a rendered frame next to its state snapshot.
func SaveImage(img image.Image, dir string, frame int) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%06d.png", frame))
	if err := WritePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG encodes img to path, creating the parent directory.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	return nil
}
