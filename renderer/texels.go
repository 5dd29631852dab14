package renderer

// Particle records are uploaded to the shader as an RGBA32F data texture.
// One record is two texels, (x, y, radius, vx) then (vy, r, g, b), so the
// packed record bytes are already texel data. Records fill rows of
// RecordsPerRow; record i starts at texel ((i % RecordsPerRow) * 2, i / RecordsPerRow).
const (
	TexelsPerRecord = ParticleStride / TexelSize
	TexelSize       = 16
	RecordsPerRow   = 512
)

// RecordTextureSize returns the texture size in texels for count records.
// It never returns an empty texture.
func RecordTextureSize(count int) (width, height int) {
	n := max(count, 1)
	width = TexelsPerRecord * min(n, RecordsPerRow)
	height = (n + RecordsPerRow - 1) / RecordsPerRow
	return width, height
}

// AppendRecordTexels appends the packed records in data to dst, zero-padded
// to fill the texture returned by RecordTextureSize.
func AppendRecordTexels(dst, data []byte) []byte {
	count := len(data) / ParticleStride
	width, height := RecordTextureSize(count)
	dst = append(dst, data[:count*ParticleStride]...)
	pad := width*height*TexelSize - count*ParticleStride
	for range pad {
		dst = append(dst, 0)
	}
	return dst
}

// RecordTexel returns the texel coordinate of the first half of record i.
func RecordTexel(i int) (x, y int) {
	return (i % RecordsPerRow) * TexelsPerRecord, i / RecordsPerRow
}
