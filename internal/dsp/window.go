package dsp

import (
	"math"
	"time"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/events"
	"github.com/kb9vy/sdrscan/internal/planner"
)

// ScanWindow is the realised, running form of a planner.Window: channel
// graphs wired to a summing junction and, when the chosen per-window
// audio rate differs from the global rate, a resampler up to it.
type ScanWindow struct {
	ID           string
	HardwareFreq float64
	RFSampleRate float64
	AudioRate    float64

	channels   []*Channel
	resampler  *linearResampler
	lastStatus map[string]events.Status

	minimumScanTime time.Duration
}

// NewScanWindow builds a runtime window from a planner window and the
// owning receiver's advertised sample rates: the smallest advertised
// rate >= the window's required bandwidth, then an audio rate that is
// either AudioSampleRate directly or the largest divisor of the chosen
// RF rate no greater than AudioSampleRate.
func NewScanWindow(w *planner.Window, advertisedRates []float64) (*ScanWindow, error) {
	rfRate, err := smallestRateAtLeast(advertisedRates, w.Bandwidth)
	if err != nil {
		return nil, err
	}

	audioRate, err := chooseAudioRate(rfRate, config.AudioSampleRate)
	if err != nil {
		return nil, err
	}

	sw := &ScanWindow{
		ID:           w.ID,
		HardwareFreq: w.HardwareFreq,
		RFSampleRate: rfRate,
		AudioRate:    audioRate,
		lastStatus:   make(map[string]events.Status),
	}

	if audioRate != config.AudioSampleRate {
		sw.resampler = newLinearResampler(audioRate, config.AudioSampleRate)
	}

	var minScan time.Duration
	for _, c := range w.Channels {
		ch := NewChannel(c, w.HardwareFreq, rfRate, audioRate)
		sw.channels = append(sw.channels, ch)
		if d := ch.GetMinimumScanTime(); d > minScan {
			minScan = d
		}
	}
	sw.minimumScanTime = minScan

	return sw, nil
}

// smallestRateAtLeast picks the smallest advertised rate >= required.
// Returns a *RateError when none qualifies.
func smallestRateAtLeast(rates []float64, required float64) (float64, error) {
	best := math.Inf(1)
	found := false
	for _, r := range rates {
		if r >= required && r < best {
			best = r
			found = true
		}
	}
	if !found {
		return 0, &RateError{RequiredBandwidth: required, Reason: "no advertised sample rate covers the required bandwidth"}
	}
	return best, nil
}

// chooseAudioRate prefers the global rate when it divides the RF rate
// evenly, and otherwise the largest divisor not exceeding it.
func chooseAudioRate(rfRate, globalAudioRate float64) (float64, error) {
	rf := int64(math.Round(rfRate))
	global := int64(math.Round(globalAudioRate))

	if rf%global == 0 {
		return globalAudioRate, nil
	}

	best := int64(0)
	for d := int64(1); d <= global; d++ {
		if rf%d == 0 {
			best = d
		}
	}
	if best == 0 {
		return 0, &RateError{RequiredBandwidth: rfRate, Reason: "no clean audio divisor exists for the chosen RF rate"}
	}
	return float64(best), nil
}

// ProcessSample feeds one RF-rate complex sample to every channel and
// returns the window's summed, resampled audio output for this input
// sample (zero or more global-rate samples, since the resampler may
// produce none or several per call).
func (w *ScanWindow) ProcessSample(rfSample complex128, now time.Time, dst []float64) []float64 {
	sum := 0.0
	any := false
	for _, ch := range w.channels {
		if a, ok := ch.ProcessSample(rfSample, now); ok {
			sum += a
			any = true
		}
	}
	if !any {
		return dst
	}

	if w.resampler == nil {
		return append(dst, sum)
	}
	return w.resampler.Push(sum, dst)
}

// IsActive polls every channel's status, publishing a ChannelStatus
// event on any change, and reports whether any channel is non-Idle.
func (w *ScanWindow) IsActive(bus *events.Bus, now time.Time) bool {
	anyActive := false
	for _, ch := range w.channels {
		status := ch.GetStatus(now)
		if status != events.StatusIdle {
			anyActive = true
		}

		if prev, ok := w.lastStatus[ch.ID()]; !ok || prev != status {
			w.lastStatus[ch.ID()] = status
			rssi, noiseFloor, volume := ch.Measurements()
			bus.Publish(events.Event{
				Type:         events.ChannelStatus,
				ChannelID:    ch.ID(),
				Status:       status,
				RSSIdBFS:     &rssi,
				NoiseFloorDB: &noiseFloor,
				VolumeDBFS:   &volume,
			})
		}
	}
	return anyActive
}

// GetMinimumScanTime is the max over contained channels.
func (w *ScanWindow) GetMinimumScanTime() time.Duration { return w.minimumScanTime }

// Channels exposes the realised channel graphs, e.g. for command
// dispatch by id from the receiver worker.
func (w *ScanWindow) Channels() []*Channel { return w.channels }
