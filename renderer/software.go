package renderer

import (
	"image"
)

// SoftwareDevice is a Device that rasterises the metaball field on the CPU
// into an RGBA image. It validates every binding on draw, so a bind group
// that outlives one of its buffers fails with ErrStaleBinding.
type SoftwareDevice struct {
	ResourceTable

	img   *image.RGBA
	pool  *rasterPool
	field Field

	draws int
}

// NewSoftwareDevice creates a device rendering into a width x height image.
// workers <= 0 uses GOMAXPROCS raster workers.
func NewSoftwareDevice(width, height, workers int) *SoftwareDevice {
	return &SoftwareDevice{
		ResourceTable: NewResourceTable(),
		img:           image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
		pool:          newRasterPool(workers),
	}
}

// Resize changes the raster resolution. The viewport mapping is unaffected.
func (d *SoftwareDevice) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if b := d.img.Bounds(); b.Dx() == width && b.Dy() == height {
		return
	}
	d.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Image returns the most recently rendered frame.
func (d *SoftwareDevice) Image() *image.RGBA {
	return d.img
}

// Field returns the field state decoded by the last draw.
func (d *SoftwareDevice) Field() *Field {
	return &d.field
}

// Draws returns the number of successful draws.
func (d *SoftwareDevice) Draws() int {
	return d.draws
}

// Close stops the raster workers.
func (d *SoftwareDevice) Close() {
	d.pool.stop()
}

// Draw implements Device. It decodes the bound buffers and shades the image.
func (d *SoftwareDevice) Draw(group BindGroupID) error {
	bound, err := d.Resolve(group)
	if err != nil {
		return err
	}
	fs, err := DecodeFrame(bound)
	if err != nil {
		return err
	}

	width, height := fs.Width, fs.Height
	if width <= 0 || height <= 0 {
		bounds := d.img.Bounds()
		width, height = float32(bounds.Dx()), float32(bounds.Dy())
	}

	d.field = Field{
		Particles:   fs.Particles,
		Width:       width,
		Height:      height,
		CameraDepth: fs.CameraDepth,
		Phase:       fs.Phase,
		Params:      fs.Params,
	}
	d.field.Render(d.img, d.pool)
	d.draws++
	return nil
}
