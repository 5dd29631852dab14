package renderer

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/metaballs/components"
	"github.com/pthm-cable/metaballs/systems"
)

var testViewport = components.Viewport{Width: 800, Height: 600}

func testUniforms() Uniforms {
	return Uniforms{
		Elapsed:  1.5,
		Delta:    1.0 / 60,
		Viewport: testViewport,
		Field:    DefaultFieldParams(),
	}
}

// spread returns n small particles far enough apart not to merge.
func spread(n int) []components.Particle {
	ps := make([]components.Particle, n)
	for i := range ps {
		ps[i] = components.Particle{
			Pos:    components.Position{X: float64(40 + 70*i), Y: 300},
			Vel:    components.Velocity{X: 60},
			Radius: 10,
			Color:  components.Color{R: 1},
		}
	}
	return ps
}

func TestSyncReallocatesOnceOnRemoval(t *testing.T) {
	dev := NewSoftwareDevice(80, 60, 1)
	defer dev.Close()
	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	store := systems.NewStore(16)
	store.Append(spread(10)...)

	_, err = b.Sync(store, testUniforms())
	require.NoError(t, err)
	require.NoError(t, b.Draw())
	before := b.Reallocations()

	// Merge the first two particles: 10 -> 9
	store.At(1).Pos = store.At(0).Pos
	report := systems.NewCollisionSystem(systems.DefaultCollisionParams(), rand.New(rand.NewSource(1))).
		Update(store, testViewport, 0)
	require.Equal(t, 1, report.Removed)

	sync, err := b.Sync(store, testUniforms())
	require.NoError(t, err)
	assert.True(t, sync.Reallocated)
	assert.Equal(t, before+1, b.Reallocations())
	assert.Equal(t, 9, sync.Count)
	assert.Equal(t, uint64(9*ParticleStride), dev.BufferSize(b.ParticleBuffer()))

	require.NoError(t, b.Draw())
	assert.Len(t, dev.Field().Particles, 9)

	// Steady state: no further reallocation
	sync, err = b.Sync(store, testUniforms())
	require.NoError(t, err)
	assert.False(t, sync.Reallocated)
	assert.Equal(t, before+1, b.Reallocations())
}

func TestSyncWritesRecordsInStoreOrder(t *testing.T) {
	dev := NewSoftwareDevice(8, 6, 1)
	defer dev.Close()
	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	store := systems.NewStore(4)
	store.Append(spread(3)...)
	_, err = b.Sync(store, testUniforms())
	require.NoError(t, err)
	require.NoError(t, b.Draw())

	records := dev.Field().Particles
	require.Len(t, records, 3)
	for i, p := range store.All() {
		assert.InDelta(t, p.Pos.X, records[i].X, 1e-4)
		assert.InDelta(t, p.Radius, records[i].Radius, 1e-6)
		assert.InDelta(t, p.Vel.X, records[i].VX, 1e-4)
		assert.InDelta(t, p.Color.R, records[i].R, 1e-6)
	}
}

func TestSyncEmptyStoreKeepsOneZeroRecord(t *testing.T) {
	dev := NewSoftwareDevice(8, 6, 1)
	defer dev.Close()
	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	store := systems.NewStore(0)
	sync, err := b.Sync(store, testUniforms())
	require.NoError(t, err)
	assert.Equal(t, 0, sync.Count)
	assert.Equal(t, uint64(ParticleStride), dev.BufferSize(b.ParticleBuffer()))

	require.NoError(t, b.Draw())
	records := dev.Field().Particles
	require.Len(t, records, 1)
	assert.Zero(t, records[0].Radius)

	// Nothing above the cutoff: every pixel is the base colour
	img := dev.Image()
	assert.Equal(t, uint8(0), img.RGBAAt(4, 3).R)
	assert.Equal(t, uint8(255), img.RGBAAt(4, 3).A)
}

func TestNoStaleBindingAcrossMergesAndExplosions(t *testing.T) {
	dev := NewSoftwareDevice(40, 30, 2)
	defer dev.Close()
	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	store := systems.NewStore(0)
	store.Append(systems.NewSpawner(systems.DefaultSpawnParams(), rng).Populate(testViewport)...)

	kin := systems.NewKinematicsSystem(systems.DefaultMinVelocity)
	col := systems.NewCollisionSystem(systems.DefaultCollisionParams(), rng)
	frag := systems.NewFragmentationSystem(systems.DefaultFragmentationParams(), rng)

	var now time.Duration
	dt := time.Second / 30
	for frame := range 120 {
		if frame%15 == 0 && store.Len() > 0 {
			p := store.At(rng.Intn(store.Len())).Pos
			frag.Explode(store, testViewport, p, now)
		}
		kin.Update(store, testViewport, dt.Seconds())
		col.Update(store, testViewport, now)

		_, err := b.Sync(store, testUniforms())
		require.NoError(t, err, "frame %d", frame)
		require.NoError(t, b.Draw(), "frame %d", frame)
		require.Len(t, dev.Field().Particles, max(store.Len(), 1), "frame %d", frame)

		now += dt
	}

	// Only the live bind group and its buffers remain
	assert.Equal(t, 1, dev.LiveBindGroups())
	assert.Equal(t, len(uniformSpecs)+1, dev.LiveBuffers())

	b.Release()
	assert.Zero(t, dev.LiveBindGroups())
	assert.Zero(t, dev.LiveBuffers())
}

func TestSyncWritesUniforms(t *testing.T) {
	dev := NewSoftwareDevice(8, 6, 1)
	defer dev.Close()
	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	u := testUniforms()
	u.CameraDepth = 0.25
	u.Field.Toroidal = true
	u.Field.ColorMode = ColorModeParticle

	store := systems.NewStore(1)
	store.Append(spread(1)...)
	_, err = b.Sync(store, u)
	require.NoError(t, err)
	require.NoError(t, b.Draw())

	f := dev.Field()
	assert.Equal(t, float32(800), f.Width)
	assert.Equal(t, float32(600), f.Height)
	assert.Equal(t, float32(0.25), f.CameraDepth)
	assert.Equal(t, ColorPhase(1.5), f.Phase)
	assert.Equal(t, u.Field, f.Params)
}

// failingDevice refuses to create buffers after a budget is spent.
type failingDevice struct {
	*SoftwareDevice
	budget int
}

func (d *failingDevice) CreateBuffer(desc BufferDescriptor) (BufferID, error) {
	if d.budget == 0 {
		return InvalidID, assert.AnError
	}
	d.budget--
	return d.SoftwareDevice.CreateBuffer(desc)
}

func TestReallocationFailureKeepsOldBinding(t *testing.T) {
	soft := NewSoftwareDevice(8, 6, 1)
	defer soft.Close()
	dev := &failingDevice{SoftwareDevice: soft, budget: len(uniformSpecs) + 2}

	b, err := NewBufferBuilder(dev)
	require.NoError(t, err)

	store := systems.NewStore(4)
	store.Append(spread(2)...)
	_, err = b.Sync(store, testUniforms())
	require.NoError(t, err)

	store.Append(spread(1)...)
	_, err = b.Sync(store, testUniforms())
	require.True(t, errors.Is(err, assert.AnError), "got %v", err)

	// The previous bind group is still intact and drawable
	require.NoError(t, b.Draw())
}

func TestNewBufferBuilderReleasesOnFailure(t *testing.T) {
	soft := NewSoftwareDevice(8, 6, 1)
	defer soft.Close()
	dev := &failingDevice{SoftwareDevice: soft, budget: 2}

	_, err := NewBufferBuilder(dev)
	require.Error(t, err)
	assert.Zero(t, soft.LiveBuffers())
}
