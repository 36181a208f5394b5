package dsp

import "math"

// windowedSincLowpass designs a Hamming-windowed-sinc low-pass FIR with
// the given normalized cutoff (cutoffHz / sampleRate) and approximate
// transition width (transitionHz / sampleRate).
func windowedSincLowpass(cutoff, transition float64) []float64 {
	if transition <= 0 {
		transition = 0.01
	}
	n := int(math.Ceil(4 / transition))
	if n%2 == 0 {
		n++
	}
	if n < 3 {
		n = 3
	}

	taps := make([]float64, n)
	mid := float64(n-1) / 2
	sum := 0.0
	for i := 0; i < n; i++ {
		x := float64(i) - mid
		var sinc float64
		if x == 0 {
			sinc = 2 * cutoff
		} else {
			sinc = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		taps[i] = sinc * w
		sum += taps[i]
	}
	if sum != 0 {
		for i := range taps {
			taps[i] /= sum
		}
	}
	return taps
}

// bandpassTaps builds a band-pass filter by modulating a low-pass
// prototype of half the passband width up to the passband center.
func bandpassTaps(lowHz, highHz, transitionHz, sampleRate float64) []float64 {
	center := (lowHz + highHz) / 2
	halfWidth := (highHz - lowHz) / 2

	proto := windowedSincLowpass(halfWidth/sampleRate, transitionHz/sampleRate)
	taps := make([]float64, len(proto))
	mid := float64(len(proto)-1) / 2
	for i, t := range proto {
		phase := 2 * math.Pi * center / sampleRate * (float64(i) - mid)
		taps[i] = 2 * t * math.Cos(phase)
	}
	return taps
}

// FIR is a direct-form real FIR filter with an internal history buffer,
// applied sample by sample.
type FIR struct {
	taps []float64
	hist []float64
	pos  int
}

func NewFIR(taps []float64) *FIR {
	return &FIR{taps: taps, hist: make([]float64, len(taps))}
}

func (f *FIR) Process(x float64) float64 {
	f.hist[f.pos] = x
	var acc float64
	idx := f.pos
	for _, tap := range f.taps {
		acc += tap * f.hist[idx]
		idx--
		if idx < 0 {
			idx = len(f.hist) - 1
		}
	}
	f.pos++
	if f.pos >= len(f.hist) {
		f.pos = 0
	}
	return acc
}

// ComplexFIR is the complex-valued equivalent used by the frequency-
// translating frontend.
type ComplexFIR struct {
	taps []float64
	hist []complex128
	pos  int
}

func NewComplexFIR(taps []float64) *ComplexFIR {
	return &ComplexFIR{taps: taps, hist: make([]complex128, len(taps))}
}

func (f *ComplexFIR) Process(x complex128) complex128 {
	f.hist[f.pos] = x
	var acc complex128
	idx := f.pos
	for _, tap := range f.taps {
		acc += complex(tap, 0) * f.hist[idx]
		idx--
		if idx < 0 {
			idx = len(f.hist) - 1
		}
	}
	f.pos++
	if f.pos >= len(f.hist) {
		f.pos = 0
	}
	return acc
}

// OnePole is a one-pole IIR lowpass, y += a*(x-y), the building block
// for the squelch power estimator, envelope followers and the noise
// floor tracker.
type OnePole struct {
	a     float64
	value float64
	init  bool
}

// NewOnePoleFromTC derives the filter coefficient from a time constant
// in seconds at the given sample rate: a = 1 - exp(-1/(tc*rate)).
func NewOnePoleFromTC(tcSeconds, sampleRate float64) *OnePole {
	a := 1 - math.Exp(-1/(tcSeconds*sampleRate))
	return &OnePole{a: a}
}

func NewOnePoleFromAlpha(a float64) *OnePole {
	return &OnePole{a: a}
}

func (p *OnePole) Process(x float64) float64 {
	if !p.init {
		p.value = x
		p.init = true
		return p.value
	}
	p.value += p.a * (x - p.value)
	return p.value
}

func (p *OnePole) Value() float64 { return p.value }
