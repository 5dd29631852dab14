package renderer

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/pthm-cable/metaballs/components"
)

// ParticleSource is the read side of the particle store.
type ParticleSource interface {
	All() []components.Particle
	Generation() uint64
}

// uniformSpec describes one fixed-size uniform buffer.
type uniformSpec struct {
	binding uint32
	label   string
	size    uint64
}

var uniformSpecs = []uniformSpec{
	{BindingColorPhase, "color_phase", ColorPhaseSize},
	{BindingDelta, "delta_time", DeltaSize},
	{BindingCameraDepth, "camera_depth", CameraDepthSize},
	{BindingViewport, "viewport", ViewportSize},
	{BindingField, "field_params", FieldParamsSize},
}

// SyncReport describes what one Sync call did.
type SyncReport struct {
	Reallocated bool
	Count       int    // particle records written
	Bytes       uint64 // size of the particle buffer
}

// BufferBuilder owns the device buffers and the bind group that the field
// shader reads. The particle buffer is sized to the current store and is
// reallocated whenever the store generation moves; uniform buffers are
// created once and overwritten every frame.
type BufferBuilder struct {
	device Device

	uniforms  map[uint32]BufferID
	particles BufferID
	capacity  int // records the particle buffer holds
	group     BindGroupID

	generation uint64
	synced     bool

	reallocations int
	scratch       []byte
}

// NewBufferBuilder creates the uniform buffers and an initial one-record
// particle buffer, bound together.
func NewBufferBuilder(device Device) (*BufferBuilder, error) {
	b := &BufferBuilder{
		device:   device,
		uniforms: make(map[uint32]BufferID, len(uniformSpecs)),
	}

	for _, spec := range uniformSpecs {
		id, err := device.CreateBuffer(BufferDescriptor{
			Label: spec.label,
			Size:  spec.size,
			Usage: uniformUsage,
		})
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("creating %s buffer: %w", spec.label, err)
		}
		b.uniforms[spec.binding] = id
	}

	particles, group, err := b.allocate(0)
	if err != nil {
		b.Release()
		return nil, err
	}
	b.particles = particles
	b.group = group
	b.capacity = 0

	return b, nil
}

// Sync brings the device buffers in line with src and u: reallocate when
// the particle count changed, then write every buffer.
func (b *BufferBuilder) Sync(src ParticleSource, u Uniforms) (SyncReport, error) {
	particles := src.All()
	count := len(particles)

	var report SyncReport
	if !b.synced || src.Generation() != b.generation || count != b.capacity {
		if err := b.reallocate(count); err != nil {
			return report, err
		}
		report.Reallocated = true
	}
	b.generation = src.Generation()
	b.synced = true

	// Particle records; an empty store keeps one zeroed record
	b.scratch = AppendParticles(b.scratch[:0], particles)
	if count == 0 {
		b.scratch = append(b.scratch, make([]byte, ParticleStride)...)
	}
	if err := b.device.WriteBuffer(b.particles, 0, b.scratch); err != nil {
		return report, fmt.Errorf("writing particles: %w", err)
	}
	report.Count = count
	report.Bytes = uint64(len(b.scratch))

	if err := b.writeUniforms(u); err != nil {
		return report, err
	}
	return report, nil
}

// Draw submits one draw against the current bind group.
func (b *BufferBuilder) Draw() error {
	return b.device.Draw(b.group)
}

// Reallocations returns how many times the particle buffer was replaced.
func (b *BufferBuilder) Reallocations() int {
	return b.reallocations
}

// ParticleBuffer returns the current particle buffer handle.
func (b *BufferBuilder) ParticleBuffer() BufferID {
	return b.particles
}

// BindGroup returns the current bind group handle.
func (b *BufferBuilder) BindGroup() BindGroupID {
	return b.group
}

// Release destroys every device resource the builder owns.
func (b *BufferBuilder) Release() {
	if b.group != InvalidID {
		b.device.DestroyBindGroup(b.group)
		b.group = InvalidID
	}
	if b.particles != InvalidID {
		b.device.DestroyBuffer(b.particles)
		b.particles = InvalidID
	}
	for binding, id := range b.uniforms {
		b.device.DestroyBuffer(id)
		delete(b.uniforms, binding)
	}
	b.synced = false
}

// reallocate swaps in a particle buffer sized for count records. The new
// buffer and bind group exist before the old ones are destroyed, so the
// current binding never points at freed memory.
func (b *BufferBuilder) reallocate(count int) error {
	particles, group, err := b.allocate(count)
	if err != nil {
		return err
	}

	oldGroup, oldParticles := b.group, b.particles
	b.group, b.particles, b.capacity = group, particles, count

	if oldGroup != InvalidID {
		b.device.DestroyBindGroup(oldGroup)
	}
	if oldParticles != InvalidID {
		b.device.DestroyBuffer(oldParticles)
	}

	b.reallocations++
	slog.Debug("particle buffer reallocated",
		"count", count,
		"bytes", particleBytes(count),
		"reallocations", b.reallocations,
	)
	return nil
}

// allocate creates a particle buffer for count records and a bind group
// over it and the uniform buffers.
func (b *BufferBuilder) allocate(count int) (BufferID, BindGroupID, error) {
	particles, err := b.device.CreateBuffer(BufferDescriptor{
		Label: "particles",
		Size:  particleBytes(count),
		Usage: storageUsage,
	})
	if err != nil {
		return InvalidID, InvalidID, fmt.Errorf("creating particle buffer: %w", err)
	}

	entries := make([]BindGroupEntry, 0, len(uniformSpecs)+1)
	for _, spec := range uniformSpecs {
		entries = append(entries, BindGroupEntry{
			Binding: spec.binding,
			Buffer:  b.uniforms[spec.binding],
			Type:    gputypes.BufferBindingTypeUniform,
		})
	}
	entries = append(entries, BindGroupEntry{
		Binding: BindingParticles,
		Buffer:  particles,
		Type:    gputypes.BufferBindingTypeReadOnlyStorage,
	})

	group, err := b.device.CreateBindGroup(entries)
	if err != nil {
		b.device.DestroyBuffer(particles)
		return InvalidID, InvalidID, fmt.Errorf("creating bind group: %w", err)
	}
	return particles, group, nil
}

func (b *BufferBuilder) writeUniforms(u Uniforms) error {
	writes := []struct {
		binding uint32
		data    []byte
	}{
		{BindingColorPhase, AppendColorPhase(nil, u.Elapsed)},
		{BindingDelta, appendFloat32s(nil, u.Delta)},
		{BindingCameraDepth, appendFloat32s(nil, u.CameraDepth)},
		{BindingViewport, AppendViewport(nil, u.Viewport)},
		{BindingField, AppendFieldParams(nil, u.Field)},
	}
	for _, w := range writes {
		if err := b.device.WriteBuffer(b.uniforms[w.binding], 0, w.data); err != nil {
			return fmt.Errorf("writing binding %d: %w", w.binding, err)
		}
	}
	return nil
}

// particleBytes is the buffer size for count records, never below one record.
func particleBytes(count int) uint64 {
	return uint64(max(count, 1)) * ParticleStride
}
