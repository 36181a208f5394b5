package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kb9vy/sdrscan/internal/config"
)

func chanAt(freq float64) *config.Channel {
	return &config.Channel{Freq: freq, Flags: config.Flags{Enabled: true}}
}

// Five NOAA-band channels over a 2.048MHz bandwidth split into two
// windows: four fit under the first tuning, the outlier gets its own.
func TestPlanSplitsAcrossTwoWindows(t *testing.T) {
	freqs := []float64{162_400_000, 162_425_000, 162_550_000, 163_000_000, 165_000_000}
	var chans []*config.Channel
	for _, f := range freqs {
		chans = append(chans, chanAt(f))
	}
	receivers := []*config.Receiver{{Kind: config.ReceiverRTLSDR}}

	windows := Plan(chans, receivers, 16)
	require.Len(t, windows, 2)

	assert.InDelta(t, 163_224_000.0, windows[0].HardwareFreq, 1e-6)
	require.Len(t, windows[0].Channels, 4)
	gotFreqs := make([]float64, len(windows[0].Channels))
	for i, c := range windows[0].Channels {
		gotFreqs[i] = c.Freq
	}
	assert.ElementsMatch(t, []float64{162_400_000, 162_425_000, 162_550_000, 163_000_000}, gotFreqs)

	require.Len(t, windows[1].Channels, 1)
	assert.Equal(t, 165_000_000.0, windows[1].Channels[0].Freq)
}

// Every channel lands in exactly one window.
func TestPlanCoversEachChannelOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		seen := make(map[float64]bool)
		var chans []*config.Channel
		for i := 0; i < n; i++ {
			f := rapid.Float64Range(100_000_000, 200_000_000).Draw(rt, "freq")
			if seen[f] {
				continue
			}
			seen[f] = true
			chans = append(chans, chanAt(f))
		}
		receivers := []*config.Receiver{{Kind: config.ReceiverRTLSDR}}

		windows := Plan(chans, receivers, 16)

		counts := make(map[float64]int)
		for _, w := range windows {
			for _, c := range w.Channels {
				counts[c.Freq]++
			}
		}
		require.Equal(t, len(chans), len(counts))
		for f, n := range counts {
			require.Equal(t, 1, n, "channel %v covered %d times", f, n)
		}
	})
}

// No channel may sit closer to the window edge than EdgeMargin.
func TestPlanRespectsEdgeMargin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		var chans []*config.Channel
		for i := 0; i < n; i++ {
			f := rapid.Float64Range(100_000_000, 200_000_000).Draw(rt, "freq")
			chans = append(chans, chanAt(f))
		}
		receivers := []*config.Receiver{{Kind: config.ReceiverRTLSDR}}

		windows := Plan(chans, receivers, 16)
		for _, w := range windows {
			for _, c := range w.Channels {
				diff := c.Freq - w.HardwareFreq
				if diff < 0 {
					diff = -diff
				}
				require.LessOrEqual(t, diff, w.Bandwidth/2-EdgeMargin+1e-6)
			}
		}
	})
}

func TestPlanHonorsMaxChannelsPerWindow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(rt, "n")
		maxPerWindow := rapid.IntRange(1, 10).Draw(rt, "maxPerWindow")
		var chans []*config.Channel
		for i := 0; i < n; i++ {
			f := rapid.Float64Range(100_000_000, 200_000_000).Draw(rt, "freq")
			chans = append(chans, chanAt(f))
		}
		receivers := []*config.Receiver{{Kind: config.ReceiverRTLSDR}}

		windows := Plan(chans, receivers, maxPerWindow)
		for _, w := range windows {
			require.LessOrEqual(t, len(w.Channels), maxPerWindow)
		}
	})
}
