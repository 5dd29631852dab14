// Package renderer turns particle state into the packed buffers read by the
// metaball field shader and submits one draw per frame.
package renderer

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// Opaque handles owned by a Device. Zero is never a valid handle.

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// BindGroupID is an opaque handle to a set of buffer bindings.
type BindGroupID uint64

// InvalidID is the zero value, representing no resource.
const InvalidID = 0

// Sentinel errors reported by devices.
var (
	// ErrStaleBinding is returned when a bind group references a buffer that
	// has been destroyed.
	ErrStaleBinding = errors.New("bind group references a destroyed buffer")

	// ErrUnknownBuffer is returned for operations on a handle the device
	// never created or already destroyed.
	ErrUnknownBuffer = errors.New("unknown buffer")

	// ErrBufferOverflow is returned when a write does not fit the buffer.
	ErrBufferOverflow = errors.New("write exceeds buffer size")

	// ErrUnknownBindGroup is returned when drawing with a destroyed or
	// unknown bind group.
	ErrUnknownBindGroup = errors.New("unknown bind group")
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage combines gputypes.BufferUsage flags.
	Usage gputypes.BufferUsage
}

// BindGroupEntry binds one buffer to a shader binding index.
type BindGroupEntry struct {
	Binding uint32
	Buffer  BufferID
	Type    gputypes.BufferBindingType
}

// Device is the narrow GPU surface the pipeline needs.
// Implementations must keep every buffer referenced by a live bind group
// valid until that bind group is destroyed.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (BufferID, error)
	DestroyBuffer(id BufferID)
	WriteBuffer(id BufferID, offset uint64, data []byte) error
	CreateBindGroup(entries []BindGroupEntry) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)
	Draw(group BindGroupID) error
}

// Buffer usages for the two buffer kinds the pipeline allocates.
const (
	uniformUsage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	storageUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
)

// Binding indices shared with gl/shaders/metaballs.fs.
const (
	BindingColorPhase  uint32 = 0
	BindingParticles   uint32 = 1
	BindingDelta       uint32 = 3
	BindingCameraDepth uint32 = 4
	BindingViewport    uint32 = 5
	BindingField       uint32 = 6
)
