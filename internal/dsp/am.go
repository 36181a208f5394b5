package dsp

import "math"

// amTail: feed-forward AGC (200ms window, 0.5 reference) -> magnitude
// -> 200-3500Hz band-pass. The fixed x3 post-gain matches AM loudness
// to the FM tails.
type amTail struct {
	agc      *feedForwardAGC
	bandpass *FIR
}

func newAMTail(intermediateRate float64) *amTail {
	return &amTail{
		agc:      newFeedForwardAGC(0.2, 0.5, intermediateRate),
		bandpass: NewFIR(bandpassTaps(200, 3500, 100, intermediateRate)),
	}
}

func (a *amTail) Process(sample complex128) float64 {
	mag := math.Hypot(real(sample), imag(sample))
	agcOut := a.agc.Process(mag)
	filtered := a.bandpass.Process(agcOut)
	return filtered * 3
}
