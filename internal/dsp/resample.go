package dsp

// linearResampler converts a stream from one rate to another by linear
// interpolation, driven by the reduced rate ratio. Linear interpolation
// is plenty for narrow-band voice audio and avoids carrying a polyphase
// filter bank per window.
type linearResampler struct {
	ratio    float64 // outRate / inRate
	pos      float64
	lastIn   float64
	haveLast bool
}

func newLinearResampler(inRate, outRate float64) *linearResampler {
	return &linearResampler{ratio: outRate / inRate}
}

// Push feeds one input-rate sample and appends zero or more output-rate
// samples to dst, returning the extended slice.
func (r *linearResampler) Push(x float64, dst []float64) []float64 {
	if !r.haveLast {
		r.lastIn = x
		r.haveLast = true
		return dst
	}

	step := 1.0 / r.ratio
	for r.pos < 1.0 {
		frac := r.pos
		dst = append(dst, r.lastIn*(1-frac)+x*frac)
		r.pos += step
	}
	r.pos -= 1.0
	r.lastIn = x
	return dst
}
