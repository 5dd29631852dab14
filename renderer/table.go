package renderer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

type hostBuffer struct {
	desc BufferDescriptor
	data []byte
}

// ResourceTable keeps host-memory copies of device buffers and the bind
// groups over them. Devices embed it and upload from it at draw time.
type ResourceTable struct {
	buffers map[BufferID]*hostBuffer
	groups  map[BindGroupID][]BindGroupEntry
	nextID  uint64
}

// NewResourceTable returns an empty table.
func NewResourceTable() ResourceTable {
	return ResourceTable{
		buffers: make(map[BufferID]*hostBuffer),
		groups:  make(map[BindGroupID][]BindGroupEntry),
	}
}

func (t *ResourceTable) id() uint64 {
	t.nextID++
	return t.nextID
}

// CreateBuffer implements Device.
func (t *ResourceTable) CreateBuffer(desc BufferDescriptor) (BufferID, error) {
	if desc.Size == 0 {
		return InvalidID, fmt.Errorf("buffer %q: zero size", desc.Label)
	}
	id := BufferID(t.id())
	t.buffers[id] = &hostBuffer{desc: desc, data: make([]byte, desc.Size)}
	return id, nil
}

// DestroyBuffer implements Device.
func (t *ResourceTable) DestroyBuffer(id BufferID) {
	delete(t.buffers, id)
}

// WriteBuffer implements Device.
func (t *ResourceTable) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	b, ok := t.buffers[id]
	if !ok {
		return fmt.Errorf("write to buffer %d: %w", id, ErrUnknownBuffer)
	}
	if offset+uint64(len(data)) > b.desc.Size {
		return fmt.Errorf("write %d bytes at %d to %q (%d bytes): %w",
			len(data), offset, b.desc.Label, b.desc.Size, ErrBufferOverflow)
	}
	copy(b.data[offset:], data)
	return nil
}

// CreateBindGroup implements Device.
func (t *ResourceTable) CreateBindGroup(entries []BindGroupEntry) (BindGroupID, error) {
	for _, e := range entries {
		b, ok := t.buffers[e.Buffer]
		if !ok {
			return InvalidID, fmt.Errorf("binding %d: %w", e.Binding, ErrUnknownBuffer)
		}
		need := gputypes.BufferUsageStorage
		if e.Type == gputypes.BufferBindingTypeUniform {
			need = gputypes.BufferUsageUniform
		}
		if b.desc.Usage&need == 0 {
			return InvalidID, fmt.Errorf("binding %d: buffer %q lacks required usage", e.Binding, b.desc.Label)
		}
	}
	id := BindGroupID(t.id())
	t.groups[id] = append([]BindGroupEntry(nil), entries...)
	return id, nil
}

// DestroyBindGroup implements Device.
func (t *ResourceTable) DestroyBindGroup(id BindGroupID) {
	delete(t.groups, id)
}

// Resolve returns the contents bound to each binding of group.
func (t *ResourceTable) Resolve(group BindGroupID) (map[uint32][]byte, error) {
	entries, ok := t.groups[group]
	if !ok {
		return nil, fmt.Errorf("draw with bind group %d: %w", group, ErrUnknownBindGroup)
	}
	bound := make(map[uint32][]byte, len(entries))
	for _, e := range entries {
		b, ok := t.buffers[e.Buffer]
		if !ok {
			return nil, fmt.Errorf("binding %d buffer %d: %w", e.Binding, e.Buffer, ErrStaleBinding)
		}
		bound[e.Binding] = b.data
	}
	return bound, nil
}

// BoundBuffer returns the buffer group binds at binding.
func (t *ResourceTable) BoundBuffer(group BindGroupID, binding uint32) (BufferID, error) {
	entries, ok := t.groups[group]
	if !ok {
		return InvalidID, fmt.Errorf("bind group %d: %w", group, ErrUnknownBindGroup)
	}
	for _, e := range entries {
		if e.Binding == binding {
			return e.Buffer, nil
		}
	}
	return InvalidID, fmt.Errorf("bind group %d has no binding %d", group, binding)
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (t *ResourceTable) LiveBuffers() int {
	return len(t.buffers)
}

// LiveBindGroups returns the number of bind groups not yet destroyed.
func (t *ResourceTable) LiveBindGroups() int {
	return len(t.groups)
}

// BufferSize returns the size of a live buffer, or 0.
func (t *ResourceTable) BufferSize(id BufferID) uint64 {
	if b, ok := t.buffers[id]; ok {
		return b.desc.Size
	}
	return 0
}

// Frame is the decoded content of a resolved bind group.
type Frame struct {
	Particles   []ParticleRecord
	Phase       [4]float32
	Delta       float32
	CameraDepth float32
	Width       float32 // zero when the viewport buffer was never written
	Height      float32
	Params      FieldParams
}

// DecodeFrame decodes the buffers returned by ResourceTable.Resolve.
func DecodeFrame(bound map[uint32][]byte) (Frame, error) {
	params, err := DecodeFieldParams(bound[BindingField])
	if err != nil {
		return Frame{}, err
	}
	vp := padTo(bound[BindingViewport], ViewportSize)

	var f Frame
	copy(f.Phase[:], readFloats(padTo(bound[BindingColorPhase], ColorPhaseSize), 4))
	f.Particles = DecodeParticles(bound[BindingParticles])
	f.Delta = readFloat(bound[BindingDelta])
	f.CameraDepth = readFloat(bound[BindingCameraDepth])
	f.Width = readFloat(vp[8:])
	f.Height = readFloat(vp[12:])
	f.Params = params
	return f, nil
}

func padTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
