package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toneIQ synthesizes a complex baseband stream whose instantaneous
// frequency is a tone of toneHz at the given deviation, so an FM demod
// of it carries that tone in its audio output.
func toneIQ(n int, toneHz, devHz, sampleRate float64) []complex128 {
	out := make([]complex128, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		instFreq := devHz * math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate)
		phase += 2 * math.Pi * instFreq / sampleRate
		out[i] = complex(math.Cos(phase), math.Sin(phase))
	}
	return out
}

func silenceIQ(n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(1, 0)
	}
	return out
}

// The gate stays closed on isolated positive frames, opens once three
// consecutive frames are positive, and closes again after the dwell
// interval elapses with no further hits.
func TestEASGateOpensAfterThreeFrames(t *testing.T) {
	// 16kHz matches the per-channel audio rate these tails actually run
	// at, and puts the 1050Hz tone bins well clear of the 1100-1200Hz
	// reference band.
	const rate = 16000.0
	const dwellSeconds = 0.2

	tail := newEASTail([]float64{1050}, rate, dwellSeconds)

	opened := false

	feed := func(samples []complex128) {
		for _, s := range samples {
			_, open := tail.Process(s)
			if open {
				opened = true
			}
		}
	}

	// Feed two frames' worth of tone: should not yet open (needs 3).
	twoFrames := tail.stepSamples*2 + easFrameSize
	feed(toneIQ(twoFrames, 1050, 3000, rate))
	require.False(t, opened, "gate must not open before three consecutive positive frames")

	// A third frame's worth should cross the threshold.
	oneMoreFrame := tail.stepSamples
	feed(toneIQ(oneMoreFrame, 1050, 3000, rate))
	assert.True(t, opened, "gate should open on the third consecutive positive frame")
	assert.True(t, tail.gateOpen)

	// Now silence for longer than the dwell interval: gate must close.
	silenceSamples := int(dwellSeconds*rate) + tail.stepSamples*2
	feed(silenceIQ(silenceSamples))
	assert.False(t, tail.gateOpen, "gate should close once dwell elapses with no further hits")
}

func TestEASTail_NoFalseTriggerOnSilence(t *testing.T) {
	const rate = 16000.0
	tail := newEASTail([]float64{1050}, rate, 0.2)

	n := tail.stepSamples*6 + easFrameSize
	for _, s := range silenceIQ(n) {
		_, open := tail.Process(s)
		assert.False(t, open)
	}
}
