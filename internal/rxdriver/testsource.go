package rxdriver

import (
	"context"
	"math"
	"sync"
	"time"
)

// TestSource is a deterministic in-memory Source used by tests to drive
// the DSP graph without hardware: it synthesizes a sum of configurable
// FM-modulated carriers plus white noise, delivered at the tuned sample
// rate so downstream pacing behaves as it would with a real device.
// With no tones configured the stream is noise alone, quiet enough that
// any reasonable squelch threshold stays closed.
type TestSource struct {
	mu sync.Mutex

	rates      []float64
	centerFreq float64
	sampleRate float64

	// Tones are offsets from the tuned center frequency, each
	// contributing an FM-modulated carrier. A zero Amplitude means
	// full scale.
	Tones  []TestTone
	phases []float64
	t      float64

	noiseAmplitude float64
	rngState       uint64
}

// TestTone is one synthetic signal the TestSource injects.
type TestTone struct {
	OffsetHz     float64
	DeviationHz  float64
	ModulationHz float64
	Amplitude    float64
}

// NewTestSource builds a source advertising the given rates (typically
// a receiver's real advertised set, so window rate selection under test
// sees realistic choices).
func NewTestSource(rates []float64) *TestSource {
	return &TestSource{rates: rates, noiseAmplitude: 0.01, rngState: 0x2545F4914F6CDD1D}
}

func (s *TestSource) AdvertisedSampleRates() []float64 {
	return s.rates
}

func (s *TestSource) Tune(ctx context.Context, centerFreqHz, sampleRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centerFreq = centerFreqHz
	s.sampleRate = sampleRate
	s.phases = make([]float64, len(s.Tones))
	s.t = 0
	return nil
}

func (s *TestSource) ReadInto(ctx context.Context, buf []complex128) (int, error) {
	s.mu.Lock()
	if s.sampleRate <= 0 {
		s.mu.Unlock()
		return 0, &DeviceError{Reason: "read before tune"}
	}
	if len(s.phases) < len(s.Tones) {
		s.phases = make([]float64, len(s.Tones))
	}

	for i := range buf {
		var re, im float64
		for ti, tone := range s.Tones {
			inst := tone.OffsetHz + tone.DeviationHz*math.Sin(2*math.Pi*tone.ModulationHz*s.t)
			s.phases[ti] += 2 * math.Pi * inst / s.sampleRate
			amp := tone.Amplitude
			if amp == 0 {
				amp = 1
			}
			re += amp * math.Cos(s.phases[ti])
			im += amp * math.Sin(s.phases[ti])
		}
		re += s.noise()
		im += s.noise()
		buf[i] = complex(re, im)
		s.t += 1 / s.sampleRate
	}
	elapsed := time.Duration(float64(len(buf)) / s.sampleRate * float64(time.Second))
	s.mu.Unlock()

	// Pace delivery at the tuned rate, the way hardware would.
	select {
	case <-time.After(elapsed):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return len(buf), nil
}

func (s *TestSource) Close() error { return nil }

// noise is a tiny deterministic xorshift generator; this only needs to
// be cheap and reproducible for tests.
func (s *TestSource) noise() float64 {
	s.rngState ^= s.rngState << 13
	s.rngState ^= s.rngState >> 7
	s.rngState ^= s.rngState << 17
	normalized := float64(s.rngState%1000)/1000 - 0.5
	return normalized * s.noiseAmplitude
}
