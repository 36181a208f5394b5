package dsp

import "math"

// ssbTail is the USB/LSB chain: a complex band-pass positioned on the
// chosen sideband of an intermediate IF, a feedback AGC, complex->real,
// mix with a cosine at ifFreq, low-pass to audio. The fixed x50 gain
// matches SSB loudness to the other modes.
type ssbTail struct {
	bandpass *ComplexFIR
	agc      *feedbackAGC
	lowpass  *FIR
	ifFreq   float64
	rate     float64
	phase    float64
	usb      bool
}

const ssbIFFreq = 1700.0

func newSSBTail(usb bool, intermediateRate float64) *ssbTail {
	lowHz, highHz := ssbIFFreq-1500, ssbIFFreq
	if usb {
		lowHz, highHz = ssbIFFreq, ssbIFFreq+1500
	}
	return &ssbTail{
		bandpass: NewComplexFIR(bandpassTaps(lowHz, highHz, 100, intermediateRate)),
		agc:      newFeedbackAGC(0.1, 1e-4, 0.05, 3.0),
		lowpass:  NewFIR(windowedSincLowpass(2700/intermediateRate, 200/intermediateRate)),
		ifFreq:   ssbIFFreq,
		rate:     intermediateRate,
		usb:      usb,
	}
}

func (s *ssbTail) Process(sample complex128) float64 {
	filtered := s.bandpass.Process(sample)
	agcOut := s.agc.Process(real(filtered))

	s.phase += 2 * math.Pi * s.ifFreq / s.rate
	if s.phase > 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
	mixed := agcOut * math.Cos(s.phase)

	return s.lowpass.Process(mixed) * 50
}
