// Package planner partitions the enabled channel list into a minimal
// set of receiver tuning windows. The sweep is greedy and ascending:
// anchor a window at the lowest unassigned frequency, place the
// hardware tuning so that frequency sits just inside the lower edge
// margin, and take every channel that fits.
package planner

import (
	"sort"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/idgen"
)

// EdgeMargin keeps every channel out of the DC-spike region at the
// tuner center and away from the filter roll-off at the band edges.
const EdgeMargin = 200_000.0

// MaxRFSampleRate bounds which advertised receiver rates count toward
// the shared bandwidth figure. RTL dongles get flaky above 2.048 MS/s.
const MaxRFSampleRate = 2_048_000.0

// DefaultMaxChannelsPerWindow is used when the config does not set one.
const DefaultMaxChannelsPerWindow = 16

// Window is the planner's output: a group of channels sharing one
// hardware tuning frequency.
type Window struct {
	ID            string
	HardwareFreq  float64
	Bandwidth     float64
	Channels      []*config.Channel
}

// Plan partitions channels into windows, respecting maxChannelsPerWindow
// and EdgeMargin. receivers supplies the advertised sample-rate sets the
// shared bandwidth is derived from; if maxChannelsPerWindow is <= 0,
// DefaultMaxChannelsPerWindow is used. Callers pass only the channels
// that should be scanned.
func Plan(channels []*config.Channel, receivers []*config.Receiver, maxChannelsPerWindow int) []*Window {
	if maxChannelsPerWindow <= 0 {
		maxChannelsPerWindow = DefaultMaxChannelsPerWindow
	}

	bandwidth := sharedBandwidth(receivers)

	var remaining []float64
	for _, c := range channels {
		remaining = append(remaining, c.Freq)
	}

	var windows []*Window
	for len(remaining) > 0 {
		sort.Float64s(remaining)
		lowFreq := remaining[0]

		hardwareFreq := lowFreq + bandwidth/2 - EdgeMargin
		highFreq := 2*hardwareFreq - lowFreq

		var inWindow []*config.Channel
		for _, c := range channels {
			if c.Freq >= lowFreq && c.Freq <= highFreq {
				inWindow = append(inWindow, c)
			}
		}

		sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].Freq < inWindow[j].Freq })
		if len(inWindow) > maxChannelsPerWindow {
			inWindow = inWindow[:maxChannelsPerWindow]
		}

		taken := make(map[float64]bool, len(inWindow))
		for _, c := range inWindow {
			taken[c.Freq] = true
		}

		kept := remaining[:0:0]
		for _, f := range remaining {
			if !taken[f] {
				kept = append(kept, f)
			}
		}
		remaining = kept

		windows = append(windows, &Window{
			ID:           idgen.New(),
			HardwareFreq: hardwareFreq,
			Bandwidth:    bandwidth,
			Channels:     inWindow,
		})
	}

	return windows
}

// sharedBandwidth is the min over receivers of the max advertised rate
// not exceeding MaxRFSampleRate, so any receiver can run any window.
func sharedBandwidth(receivers []*config.Receiver) float64 {
	best := 0.0
	first := true
	for _, r := range receivers {
		maxRate := 0.0
		for _, rate := range r.GetSampleRates() {
			if rate <= MaxRFSampleRate && rate > maxRate {
				maxRate = rate
			}
		}
		if first || maxRate < best {
			best = maxRate
			first = false
		}
	}
	return best
}
