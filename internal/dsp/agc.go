package dsp

import "math"

// feedForwardAGC normalises a magnitude stream against a windowed peak
// estimate. The AM tail uses a 200ms window with a 0.5 reference.
type feedForwardAGC struct {
	windowLen int
	buf       []float64
	pos       int
	filled    bool
	reference float64
}

func newFeedForwardAGC(windowSeconds, reference, sampleRate float64) *feedForwardAGC {
	n := int(windowSeconds * sampleRate)
	if n < 1 {
		n = 1
	}
	return &feedForwardAGC{
		windowLen: n,
		buf:       make([]float64, n),
		reference: reference,
	}
}

func (a *feedForwardAGC) Process(x float64) float64 {
	a.buf[a.pos] = math.Abs(x)
	a.pos++
	if a.pos >= a.windowLen {
		a.pos = 0
		a.filled = true
	}

	peak := 0.0
	n := a.windowLen
	if !a.filled {
		n = a.pos
		if n == 0 {
			n = 1
		}
	}
	for i := 0; i < n; i++ {
		if a.buf[i] > peak {
			peak = a.buf[i]
		}
	}
	if peak < 1e-9 {
		return x
	}
	return x * (a.reference / peak)
}

// feedbackAGC is an attack/decay gain-feedback AGC. The SSB tails run
// it at attack 0.1, decay 1e-4, reference 0.05, max gain 3.0.
type feedbackAGC struct {
	attack, decay, reference, maxGain float64
	gain                              float64
}

func newFeedbackAGC(attack, decay, reference, maxGain float64) *feedbackAGC {
	return &feedbackAGC{attack: attack, decay: decay, reference: reference, maxGain: maxGain, gain: 1}
}

func (a *feedbackAGC) Process(x float64) float64 {
	y := x * a.gain
	mag := math.Abs(y)

	if mag > a.reference {
		a.gain -= a.attack * (mag - a.reference)
	} else {
		a.gain += a.decay * (a.reference - mag)
	}
	if a.gain > a.maxGain {
		a.gain = a.maxGain
	}
	if a.gain < 0 {
		a.gain = 0
	}
	return y
}
