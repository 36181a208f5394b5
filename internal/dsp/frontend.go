package dsp

import "math"

// frontend is the frequency-translating, decimating filter common to
// every mode: shift the channel's offset to DC and decimate from
// rfSampleRate down to intermediateRate. When the total decimation
// factor is >= 8 and factors cleanly as xlat*inter with inter > 1, the
// work is split into a translating stage (xlat) and a plain low-pass
// decimator (inter) to spread the per-sample cost; otherwise a single
// translating stage does it all.
type frontend struct {
	offsetHz   float64
	rate       float64
	phase      float64
	xlatDecim  int
	interDecim int

	xlatFilter  *ComplexFIR
	interFilter *ComplexFIR

	xlatCounter  int
	interCounter int
}

func newFrontend(offsetHz, rfSampleRate, intermediateRate float64) *frontend {
	total := int(math.Round(rfSampleRate / intermediateRate))
	if total < 1 {
		total = 1
	}

	xlat, inter := total, 1
	if total >= 8 {
		if x, i, ok := splitFactor(total); ok {
			xlat, inter = x, i
		}
	}

	xlatCutoff := (rfSampleRate / float64(xlat)) / 2 / rfSampleRate
	xlatTaps := windowedSincLowpass(xlatCutoff, xlatCutoff*0.2)

	fe := &frontend{
		offsetHz:   offsetHz,
		rate:       rfSampleRate,
		xlatDecim:  xlat,
		interDecim: inter,
		xlatFilter: NewComplexFIR(xlatTaps),
	}

	if inter > 1 {
		midRate := rfSampleRate / float64(xlat)
		interCutoff := (midRate / float64(inter)) / 2 / midRate
		interTaps := windowedSincLowpass(interCutoff, interCutoff*0.2)
		fe.interFilter = NewComplexFIR(interTaps)
	}

	return fe
}

// splitFactor finds a two-stage decimation xlat*inter = total with
// inter > 1, preferring a balanced split; returns ok=false if total has
// no factor pair beyond the trivial one.
func splitFactor(total int) (xlat, inter int, ok bool) {
	best := 1
	for d := 2; d*d <= total; d++ {
		if total%d == 0 {
			best = d
		}
	}
	if best == 1 {
		return total, 1, false
	}
	return total / best, best, true
}

// Process consumes one RF-rate complex sample and, when a decimated
// output sample is ready, returns it with ok=true.
func (f *frontend) Process(sample complex128) (out complex128, ok bool) {
	// Translate offsetHz to DC by mixing with a rotating local
	// oscillator.
	f.phase += -2 * math.Pi * f.offsetHz / f.rate
	lo := complex(math.Cos(f.phase), math.Sin(f.phase))
	mixed := sample * lo

	filtered := f.xlatFilter.Process(mixed)
	f.xlatCounter++
	if f.xlatCounter < f.xlatDecim {
		return 0, false
	}
	f.xlatCounter = 0

	if f.interFilter == nil {
		return filtered, true
	}

	stage2 := f.interFilter.Process(filtered)
	f.interCounter++
	if f.interCounter < f.interDecim {
		return 0, false
	}
	f.interCounter = 0

	return stage2, true
}
