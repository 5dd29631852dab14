package renderer

// Coverage summarises how much of the viewport the field lights up.
type Coverage struct {
	Lit       float64 // fraction of samples at or above the cutoff
	Saturated float64 // fraction of lit samples shaded at full target colour
	MeanSum   float64 // mean field sum over lit samples
}

// Coverage samples the field on a cols x rows grid of cell centres.
func (f *Field) Coverage(cols, rows int) Coverage {
	if cols <= 0 || rows <= 0 {
		return Coverage{}
	}
	p := &f.Params
	sx := f.Width / float32(cols)
	sy := f.Height / float32(rows)

	var lit, saturated int
	var sum float64
	for j := 0; j < rows; j++ {
		y := (float32(j) + 0.5) * sy
		for i := 0; i < cols; i++ {
			s := f.At((float32(i)+0.5)*sx, y)
			if s.Sum < p.Cutoff {
				continue
			}
			lit++
			sum += float64(s.Sum)
			if min(s.Sum/p.Threshold, p.MaxIntensity)*p.IntensityScale >= 1 {
				saturated++
			}
		}
	}

	var c Coverage
	c.Lit = float64(lit) / float64(cols*rows)
	if lit > 0 {
		c.Saturated = float64(saturated) / float64(lit)
		c.MeanSum = sum / float64(lit)
	}
	return c
}
