package game

import (
	"fmt"
	"strconv"

	"github.com/pthm-cable/metaballs/config"
	"github.com/pthm-cable/metaballs/renderer"
	"github.com/pthm-cable/metaballs/systems"
)

// spawnParams maps the population section onto the spawner.
func spawnParams(cfg *config.Config) systems.SpawnParams {
	p := cfg.Population
	return systems.SpawnParams{
		Count:        p.Initial,
		MinRadius:    p.MinRadius,
		MaxRadius:    p.MaxRadius,
		MaxVelocity:  p.MaxVelocity,
		Attempts:     p.SpawnAttempts,
		Clearance:    p.Clearance,
		SaturatedMin: p.SaturatedMin,
	}
}

// collisionParams maps the collision and physics sections onto the merge stage.
func collisionParams(cfg *config.Config) (systems.CollisionParams, error) {
	broad, err := systems.ParseBroadPhase(cfg.Collision.BroadPhase)
	if err != nil {
		return systems.CollisionParams{}, err
	}
	return systems.CollisionParams{
		MergeFactor:  cfg.Collision.MergeFactor,
		ColorJitter:  cfg.Collision.ColorJitter,
		MinVelocity:  cfg.Physics.MinVelocity,
		BroadPhase:   broad,
		GridCellSize: cfg.Collision.GridCellSize,
	}, nil
}

func fragmentationParams(cfg *config.Config) systems.FragmentationParams {
	f := cfg.Fragmentation
	return systems.FragmentationParams{
		MinFragments:  f.MinFragments,
		MaxFragments:  f.MaxFragments,
		MinSpeed:      f.MinSpeed,
		MaxSpeed:      f.MaxSpeed,
		ColorJitter:   f.ColorJitter,
		MergeCooldown: cfg.Derived.MergeCooldown,
	}
}

// FieldParams maps the field section onto the shading uniform.
func FieldParams(cfg *config.Config) (renderer.FieldParams, error) {
	f := cfg.Field
	mode, err := renderer.ParseColorMode(f.ColorMode)
	if err != nil {
		return renderer.FieldParams{}, fmt.Errorf("field: %w", err)
	}
	return renderer.FieldParams{
		Threshold:      float32(f.Threshold),
		Cutoff:         float32(f.Cutoff),
		Scale:          float32(f.Scale),
		IntensityScale: float32(f.IntensityScale),
		MaxIntensity:   float32(f.MaxIntensity),
		Epsilon:        float32(f.Epsilon),
		DepthScale:     float32(f.DepthScale),
		Toroidal:       f.Toroidal,
		ColorMode:      mode,
		Base: [4]float32{
			float32(f.BaseColor[0]),
			float32(f.BaseColor[1]),
			float32(f.BaseColor[2]),
			float32(f.BaseColor[3]),
		},
	}, nil
}

// FieldConfig is the inverse of FieldParams, used to export tuned shading
// constants back to YAML.
func FieldConfig(p renderer.FieldParams) config.FieldConfig {
	return config.FieldConfig{
		Threshold:      widen(p.Threshold),
		Cutoff:         widen(p.Cutoff),
		Scale:          widen(p.Scale),
		IntensityScale: widen(p.IntensityScale),
		MaxIntensity:   widen(p.MaxIntensity),
		Epsilon:        widen(p.Epsilon),
		DepthScale:     widen(p.DepthScale),
		Toroidal:       p.Toroidal,
		ColorMode:      p.ColorMode.String(),
		BaseColor: [4]float64{
			widen(p.Base[0]),
			widen(p.Base[1]),
			widen(p.Base[2]),
			widen(p.Base[3]),
		},
	}
}

// widen converts via the shortest decimal form so 0.1 stays 0.1.
func widen(v float32) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	return f
}
