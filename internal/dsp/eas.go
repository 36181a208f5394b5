package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Alert-tone analysis parameters: a 1024-point FFT evaluated 30 times
// a second over a sliding window of the demodulated audio.
const (
	easFrameSize   = 1024
	easFrameRateHz = 30.0
	easRefLowHz    = 1100.0
	easRefHighHz   = 1200.0
	easToneMarginDB = 20.0
	easConsecutiveFramesToOpen = 3
)

// easTail is the NOAA-EAS / BFM-EAS chain: an FM demod whose audio is
// muted until a tone detector sees the configured alert tones for three
// consecutive analysis frames, then stays open for the dwell interval
// past the last positive frame.
type easTail struct {
	fm   *fmTail
	fft  *fourier.FFT
	rate float64

	window      [easFrameSize]float64
	windowPos   int
	filled      int
	stepSamples int
	sinceLast   int

	toneBinHz []float64

	consecutivePositive int
	gateOpen            bool
	dwellSeconds         float64
	samplesSinceLastHit  int64
	dwellSamples         int64
}

func newEASTail(toneBinsHz []float64, intermediateRate, dwellSeconds float64) *easTail {
	step := int(math.Round(intermediateRate / easFrameRateHz))
	if step < 1 {
		step = 1
	}
	return &easTail{
		fm:           newFMTail(5000, intermediateRate),
		fft:          fourier.NewFFT(easFrameSize),
		rate:         intermediateRate,
		stepSamples:  step,
		toneBinHz:    toneBinsHz,
		dwellSeconds: dwellSeconds,
		dwellSamples: int64(dwellSeconds * intermediateRate),
	}
}

// Process returns the gated audio sample and whether the gate is
// currently open.
func (e *easTail) Process(sample complex128) (audio float64, gateOpen bool) {
	demod := e.fm.Process(sample)

	e.window[e.windowPos] = demod
	e.windowPos = (e.windowPos + 1) % easFrameSize
	if e.filled < easFrameSize {
		e.filled++
	}

	e.sinceLast++
	if e.sinceLast >= e.stepSamples && e.filled >= easFrameSize {
		e.sinceLast = 0
		positive := e.evaluateFrame()
		if positive {
			e.consecutivePositive++
		} else {
			e.consecutivePositive = 0
		}
		if e.consecutivePositive >= easConsecutiveFramesToOpen {
			e.gateOpen = true
			e.samplesSinceLastHit = 0
		}
	}

	if e.gateOpen {
		e.samplesSinceLastHit++
		if e.samplesSinceLastHit > e.dwellSamples {
			e.gateOpen = false
		}
	}

	if !e.gateOpen {
		return 0, false
	}
	return demod, true
}

// evaluateFrame runs the log-power FFT over the current window and
// checks each configured tone bin against the 1100-1200Hz reference
// band: the tone must exceed it by >= 20dB and be a local peak.
func (e *easTail) evaluateFrame() bool {
	ordered := make([]float64, easFrameSize)
	for i := 0; i < easFrameSize; i++ {
		ordered[i] = e.window[(e.windowPos+i)%easFrameSize]
	}

	coeffs := e.fft.Coefficients(nil, ordered)
	power := make([]float64, len(coeffs))
	for i, c := range coeffs {
		power[i] = powerToDBFS(real(c)*real(c) + imag(c)*imag(c))
	}

	refPower := e.averagePowerInRange(power, easRefLowHz, easRefHighHz)

	for _, toneHz := range e.toneBinHz {
		bin := e.binForHz(toneHz, len(power))
		if bin <= 0 || bin >= len(power)-1 {
			continue
		}
		if power[bin] < power[bin-1] || power[bin] < power[bin+1] {
			continue // not a local peak
		}
		if power[bin]-refPower >= easToneMarginDB {
			return true
		}
	}
	return false
}

func (e *easTail) binForHz(hz float64, nbins int) int {
	return int(math.Round(hz * float64(easFrameSize) / e.rate))
}

func (e *easTail) averagePowerInRange(power []float64, lowHz, highHz float64) float64 {
	lowBin := e.binForHz(lowHz, len(power))
	highBin := e.binForHz(highHz, len(power))
	if lowBin < 0 {
		lowBin = 0
	}
	if highBin >= len(power) {
		highBin = len(power) - 1
	}
	if highBin < lowBin {
		return -240
	}

	sum := 0.0
	n := 0
	for b := lowBin; b <= highBin; b++ {
		sum += power[b]
		n++
	}
	if n == 0 {
		return -240
	}
	return sum / float64(n)
}
