package dsp

import (
	"math"
	"math/cmplx"
)

// fmTail is a quadrature discriminator: the phase of the product of the
// current sample with the conjugate of the last one is the
// instantaneous frequency, scaled to +/-1 at the mode's max deviation.
type fmTail struct {
	lastPhasor complex128
	maxDevHz   float64
	rate       float64
	hasLast    bool
}

func newFMTail(maxDeviationHz, intermediateRate float64) *fmTail {
	return &fmTail{maxDevHz: maxDeviationHz, rate: intermediateRate}
}

func (f *fmTail) Process(sample complex128) float64 {
	if !f.hasLast {
		f.lastPhasor = sample
		f.hasLast = true
		return 0
	}
	phaseDiff := cmplx.Phase(sample * cmplx.Conj(f.lastPhasor))
	f.lastPhasor = sample

	// Instantaneous frequency in Hz, normalised to +/-1 at maxDevHz.
	freqHz := phaseDiff * f.rate / (2 * math.Pi)
	audio := freqHz / f.maxDevHz
	if audio > 1 {
		audio = 1
	} else if audio < -1 {
		audio = -1
	}
	return audio
}
