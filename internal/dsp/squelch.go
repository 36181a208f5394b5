package dsp

import "math"

// powerSquelch gates on mean power over a one-pole IIR: the gate opens
// when the smoothed power crosses the channel's threshold.
type powerSquelch struct {
	power    *OnePole
	thresholdLinear float64
	open     bool
}

func newPowerSquelch(thresholdDBFS, sampleRate float64) *powerSquelch {
	return &powerSquelch{
		power:           NewOnePoleFromTC(SquelchTC, sampleRate),
		thresholdLinear: math.Pow(10, thresholdDBFS/10),
	}
}

// Update feeds one translated complex sample and returns the current
// gate state along with the instantaneous power estimate (linear),
// also used by the RSSI branch.
func (s *powerSquelch) Update(sample complex128) (open bool, power float64) {
	mag := real(sample)*real(sample) + imag(sample)*imag(sample)
	power = s.power.Process(mag)
	s.open = power >= s.thresholdLinear
	return s.open, power
}

func (s *powerSquelch) SetThresholdDBFS(dbfs float64) {
	s.thresholdLinear = math.Pow(10, dbfs/10)
}
