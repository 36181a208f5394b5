package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/planner"
)

func TestSmallestRateAtLeast(t *testing.T) {
	rates := []float64{1_024_000, 1_536_000, 2_048_000}

	got, err := smallestRateAtLeast(rates, 1_100_000)
	require.NoError(t, err)
	assert.Equal(t, 1_536_000.0, got)

	got, err = smallestRateAtLeast(rates, 1_024_000)
	require.NoError(t, err)
	assert.Equal(t, 1_024_000.0, got)

	_, err = smallestRateAtLeast(rates, 3_000_000)
	require.Error(t, err)
	var rateErr *RateError
	require.ErrorAs(t, err, &rateErr)
}

func TestChooseAudioRate(t *testing.T) {
	// Clean divisor: the global rate itself.
	got, err := chooseAudioRate(1_024_000, 16_000)
	require.NoError(t, err)
	assert.Equal(t, 16_000.0, got)

	// 1_536_000 = 16_000 * 96, also clean.
	got, err = chooseAudioRate(1_536_000, 16_000)
	require.NoError(t, err)
	assert.Equal(t, 16_000.0, got)

	// No clean division: fall back to the largest divisor <= global.
	got, err = chooseAudioRate(1_000_000, 16_000)
	require.NoError(t, err)
	assert.Equal(t, 15_625.0, got)
	assert.LessOrEqual(t, got, 16_000.0)
	assert.Zero(t, int64(1_000_000)%int64(got))
}

func TestScanWindowMinimumScanTimeIsMaxOverChannels(t *testing.T) {
	fm := &config.Channel{ID: "a", Freq: 162_400_000, Mode: config.ModeFM, Flags: config.Flags{Enabled: true}}
	eas := &config.Channel{ID: "b", Freq: 162_425_000, Mode: config.ModeNOAAEAS, DwellSeconds: 1, Flags: config.Flags{Enabled: true}}

	pw := &planner.Window{
		ID:           "w",
		HardwareFreq: 163_224_000,
		Bandwidth:    2_048_000,
		Channels:     []*config.Channel{fm, eas},
	}

	sw, err := NewScanWindow(pw, []float64{2_048_000})
	require.NoError(t, err)

	// EAS needs 200ms; the FM channel alone would only need 100ms.
	assert.Equal(t, sw.GetMinimumScanTime().Seconds(), 0.2)
}
