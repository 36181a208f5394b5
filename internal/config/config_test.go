package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MinimalValid(t *testing.T) {
	path := writeTempConfig(t, `
receivers:
  - type: rtl_sdr
channels:
  - freq: 162.4
    label: "NOAA"
    mode: NOAA
  - freq: 462.675
    mode: FM
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Receivers, 1)
	assert.Equal(t, ReceiverRTLSDR, cfg.Receivers[0].Kind)
	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, ModeNOAAEAS, cfg.Channels[0].Mode)
	assert.Equal(t, 162_400_000.0, cfg.Channels[0].Freq)
	assert.Equal(t, ModeFM, cfg.Channels[1].Mode)
	assert.True(t, cfg.Channels[1].Flags.Enabled)
	assert.Len(t, cfg.Outputs, 1)
	assert.Equal(t, OutputLocal, cfg.Outputs[0].Kind)
}

func TestLoad_ChannelDefaultsMerge(t *testing.T) {
	path := writeTempConfig(t, `
receivers:
  - type: rtl_sdr
channel_defaults:
  mode: NFM
  squelchThreshold: -50
channels:
  - freq: 462.675
  - freq: 467.925
    squelchThreshold: -40
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, ModeNFM, cfg.Channels[0].Mode)
	assert.Equal(t, -50.0, cfg.Channels[0].SquelchThreshold)
	assert.Equal(t, -40.0, cfg.Channels[1].SquelchThreshold)
}

func TestLoad_UnknownReceiverType(t *testing.T) {
	path := writeTempConfig(t, `
receivers:
  - type: bogus
channels:
  - freq: 100.0
`)

	_, err := Load(path)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
}

func TestLoad_SoapyMissingDriver(t *testing.T) {
	path := writeTempConfig(t, `
receivers:
  - type: soapy
channels:
  - freq: 100.0
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_NoReceivers(t *testing.T) {
	path := writeTempConfig(t, `
channels:
  - freq: 100.0
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestChannel_EffectivelyEnabled(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := &Channel{Flags: Flags{Enabled: true}}
	assert.True(t, c.EffectivelyEnabled(now))

	c.Flags.Enabled = false
	assert.False(t, c.EffectivelyEnabled(now))

	c.Flags.Enabled = true
	future := now.Add(time.Hour)
	c.DisabledUntil = &future
	assert.False(t, c.EffectivelyEnabled(now))
	assert.True(t, c.EffectivelyEnabled(future))
	assert.True(t, c.EffectivelyEnabled(future.Add(time.Second)))
}

func TestReceiver_GetSampleRates(t *testing.T) {
	r := &Receiver{Kind: ReceiverRTLSDR}
	rates := r.GetSampleRates()
	assert.Equal(t, rtlSDRSampleRates, rates)

	r2 := &Receiver{Kind: ReceiverSoapy, SampleRates: []float64{2_400_000}}
	assert.Equal(t, []float64{2_400_000}, r2.GetSampleRates())
}
