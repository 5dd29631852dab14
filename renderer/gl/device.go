// Package gl draws the metaball field with a GLSL fragment shader through
// raylib. It is split from renderer so the CPU pipeline builds without cgo.
package gl

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gogpu/gputypes"

	"github.com/pthm-cable/metaballs/renderer"
)

//go:embed shaders/metaballs.fs
var metaballsShader string

// ErrUnavailable is returned when the metaball shader cannot be used.
var ErrUnavailable = errors.New("metaball shader unavailable")

// recordTexture is the RGBA32F texture mirroring one particle buffer.
type recordTexture struct {
	tex           rl.Texture2D
	width, height int
}

// Device is a renderer.Device backed by the metaball shader. Uniform
// buffers live in host memory and are uploaded on draw. Every particle
// buffer gets its own data texture, created and destroyed with the buffer,
// so reallocating the buffer swaps the texture the shader samples.
// It must be created after the raylib window is open.
type Device struct {
	renderer.ResourceTable

	shader           rl.Shader
	colorPhaseLoc    int32
	particlesLoc     int32
	particleCountLoc int32
	deltaLoc         int32
	cameraDepthLoc   int32
	viewportLoc      int32
	fieldParamsLoc   int32

	textures map[renderer.BufferID]recordTexture
	texels   []byte

	overlay func()
}

// NewDevice compiles the metaball shader.
func NewDevice() (*Device, error) {
	source := strings.Replace(metaballsShader,
		"#define RECORDS_PER_ROW 512",
		fmt.Sprintf("#define RECORDS_PER_ROW %d", renderer.RecordsPerRow), 1)

	d := &Device{
		ResourceTable: renderer.NewResourceTable(),
		textures:      make(map[renderer.BufferID]recordTexture),
	}

	// Load shader
	d.shader = rl.LoadShaderFromMemory("", source)

	// Get uniform locations
	d.colorPhaseLoc = rl.GetShaderLocation(d.shader, "colorPhase")
	d.particlesLoc = rl.GetShaderLocation(d.shader, "particles")
	d.particleCountLoc = rl.GetShaderLocation(d.shader, "particleCount")
	d.deltaLoc = rl.GetShaderLocation(d.shader, "deltaTime")
	d.cameraDepthLoc = rl.GetShaderLocation(d.shader, "cameraDepth")
	d.viewportLoc = rl.GetShaderLocation(d.shader, "viewport")
	d.fieldParamsLoc = rl.GetShaderLocation(d.shader, "fieldParams")

	// A failed compile falls back to the default shader, which has none of these
	required := map[string]int32{
		"colorPhase":    d.colorPhaseLoc,
		"particles":     d.particlesLoc,
		"particleCount": d.particleCountLoc,
		"cameraDepth":   d.cameraDepthLoc,
		"viewport":      d.viewportLoc,
		"fieldParams":   d.fieldParamsLoc,
	}
	for name, loc := range required {
		if loc < 0 {
			rl.UnloadShader(d.shader)
			return nil, fmt.Errorf("uniform %q: %w", name, ErrUnavailable)
		}
	}

	return d, nil
}

// SetOverlay registers a function drawn after the field, inside the frame.
func (d *Device) SetOverlay(fn func()) {
	d.overlay = fn
}

// CreateBuffer implements renderer.Device. Storage buffers also get a
// record texture sized for the records they hold.
func (d *Device) CreateBuffer(desc renderer.BufferDescriptor) (renderer.BufferID, error) {
	id, err := d.ResourceTable.CreateBuffer(desc)
	if err != nil {
		return id, err
	}
	if desc.Usage&gputypes.BufferUsageStorage == 0 {
		return id, nil
	}

	records := int(desc.Size / renderer.ParticleStride)
	width, height := renderer.RecordTextureSize(records)
	img := rl.NewImage(make([]byte, width*height*renderer.TexelSize),
		int32(width), int32(height), 1, rl.UncompressedR32g32b32a32)
	tex := rl.LoadTextureFromImage(img)
	if !rl.IsTextureValid(tex) {
		d.ResourceTable.DestroyBuffer(id)
		return renderer.InvalidID, fmt.Errorf("record texture %dx%d for %q: %w",
			width, height, desc.Label, ErrUnavailable)
	}
	rl.SetTextureFilter(tex, rl.FilterPoint)

	d.textures[id] = recordTexture{tex: tex, width: width, height: height}
	return id, nil
}

// DestroyBuffer implements renderer.Device.
func (d *Device) DestroyBuffer(id renderer.BufferID) {
	if rt, ok := d.textures[id]; ok {
		rl.UnloadTexture(rt.tex)
		delete(d.textures, id)
	}
	d.ResourceTable.DestroyBuffer(id)
}

// Draw implements renderer.Device. It uploads the particle records to the
// bound buffer's texture and the rest as uniforms, then shades a
// full-screen quad and presents the frame.
func (d *Device) Draw(group renderer.BindGroupID) error {
	bound, err := d.Resolve(group)
	if err != nil {
		return err
	}
	frame, err := renderer.DecodeFrame(bound)
	if err != nil {
		return err
	}
	id, err := d.BoundBuffer(group, renderer.BindingParticles)
	if err != nil {
		return err
	}
	rt, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("particle buffer %d has no record texture: %w", id, renderer.ErrStaleBinding)
	}

	d.texels = renderer.AppendRecordTexels(d.texels[:0], bound[renderer.BindingParticles])
	if len(d.texels) != rt.width*rt.height*renderer.TexelSize {
		return fmt.Errorf("particle buffer %d: %d texel bytes for a %dx%d texture",
			id, len(d.texels), rt.width, rt.height)
	}
	rl.UpdateTexture(rt.tex, texelPixels(d.texels))

	// Set shader uniforms
	rl.SetShaderValueTexture(d.shader, d.particlesLoc, rt.tex)
	rl.SetShaderValue(d.shader, d.particleCountLoc, []float32{float32(len(frame.Particles))}, rl.ShaderUniformFloat)
	rl.SetShaderValue(d.shader, d.colorPhaseLoc, frame.Phase[:], rl.ShaderUniformVec4)
	if d.deltaLoc >= 0 {
		rl.SetShaderValue(d.shader, d.deltaLoc, []float32{frame.Delta}, rl.ShaderUniformFloat)
	}
	rl.SetShaderValue(d.shader, d.cameraDepthLoc, []float32{frame.CameraDepth}, rl.ShaderUniformFloat)

	width, height := frame.Width, frame.Height
	if width <= 0 || height <= 0 {
		width, height = float32(rl.GetRenderWidth()), float32(rl.GetRenderHeight())
	}
	rl.SetShaderValue(d.shader, d.viewportLoc, []float32{0, 0, width, height}, rl.ShaderUniformVec4)
	rl.SetShaderValueV(d.shader, d.fieldParamsLoc, fieldFloats(frame.Params), rl.ShaderUniformVec4, 4)

	base := frame.Params.Base
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(unit(base[0]), unit(base[1]), unit(base[2]), 255))

	rl.BeginShaderMode(d.shader)
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), rl.White)
	rl.EndShaderMode()

	if d.overlay != nil {
		d.overlay()
	}
	rl.EndDrawing()
	return nil
}

// Unload frees the shader and every record texture.
func (d *Device) Unload() {
	for id, rt := range d.textures {
		rl.UnloadTexture(rt.tex)
		delete(d.textures, id)
	}
	rl.UnloadShader(d.shader)
}

// texelPixels views float texel bytes as the pixel slice UpdateTexture
// takes. raylib copies by the texture's own format, so only the pointer matters.
func texelPixels(texels []byte) []color.RGBA {
	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&texels[0])), len(texels)/4)
}

func fieldFloats(p renderer.FieldParams) []float32 {
	var toroidal float32
	if p.Toroidal {
		toroidal = 1
	}
	return []float32{
		p.Threshold, p.Cutoff, p.Scale, p.IntensityScale,
		p.MaxIntensity, p.Epsilon, p.DepthScale, toroidal,
		float32(p.ColorMode), 0, 0, 0,
		p.Base[0], p.Base[1], p.Base[2], p.Base[3],
	}
}

func unit(v float32) uint8 {
	return uint8(min(max(v, 0), 1) * 255)
}
