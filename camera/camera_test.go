package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(0.5, 0.2)

	if cam.Z != 0.5 {
		t.Errorf("expected depth 0.5, got %f", cam.Z)
	}
	if cam.Scale != 1 {
		t.Errorf("expected scale 1, got %f", cam.Scale)
	}

	// Out of range start is clamped
	if cam := New(3, 0.2); cam.Z != 1 {
		t.Errorf("expected clamped depth 1, got %f", cam.Z)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name              string
		start             float32
		forward, backward bool
		dt                float32
		want              float32
	}{
		{"forward", 0.5, true, false, 1, 0.7},
		{"backward", 0.5, false, true, 0.5, 0.4},
		{"both cancel", 0.5, true, true, 1, 0.5},
		{"idle", 0.5, false, false, 1, 0.5},
		{"clamped at zero", 0.1, false, true, 2, 0},
		{"clamped at one", 0.95, true, false, 2, 1},
		{"negative dt ignored", 0.5, true, false, -1, 0.5},
		{"nan dt ignored", 0.5, true, false, float32(math.NaN()), 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := New(tc.start, 0.2)
			cam.Advance(tc.forward, tc.backward, tc.dt)
			if math.Abs(float64(cam.Z-tc.want)) > 1e-6 {
				t.Errorf("expected depth %f, got %f", tc.want, cam.Z)
			}
		})
	}
}

func TestDepthStaysInRange(t *testing.T) {
	cam := New(0, 0.2)
	for i := 0; i < 1000; i++ {
		cam.Advance(i%300 < 150, i%300 >= 150, 1.0/60)
		if cam.Z < 0 || cam.Z > 1 {
			t.Fatalf("frame %d: depth %f out of range", i, cam.Z)
		}
	}
}

func TestPointToDevice(t *testing.T) {
	cam := New(0, 0.2)
	cam.SetScale(2)

	x, y := cam.PointToDevice(10, 20)
	if x != 20 || y != 40 {
		t.Errorf("expected (20, 40), got (%f, %f)", x, y)
	}

	cam.SetScale(0)
	if cam.Scale != 1 {
		t.Errorf("expected scale reset to 1, got %f", cam.Scale)
	}
}

func TestReset(t *testing.T) {
	cam := New(0.25, 0.2)
	cam.Advance(true, false, 2)
	cam.Reset()
	if cam.Z != 0.25 {
		t.Errorf("expected depth 0.25 after reset, got %f", cam.Z)
	}
}
