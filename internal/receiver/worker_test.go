package receiver

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/ring"
	"github.com/kb9vy/sdrscan/internal/rxdriver"
)

func TestPreferredSampleRates(t *testing.T) {
	// 1_024_000 = 2^13 * 5^3: plenty of prime factors and an exact
	// multiple of 16000, so it qualifies; 1_100_000 is not a multiple
	// of 16000 and is filtered out.
	rates := []float64{1_024_000, 1_100_000}
	got := preferredSampleRates(rates, 16000)
	require.Equal(t, []float64{1_024_000}, got)

	// When nothing qualifies the full set is advertised unchanged.
	none := []float64{1_100_000, 999_999}
	require.Equal(t, none, preferredSampleRates(none, 16000))
}

func TestWorker_HandshakeConfigScanWindowDone(t *testing.T) {
	rSupToRx, wSupToRx := io.Pipe()
	rRxToSup, wRxToSup := io.Pipe()
	defer wSupToRx.Close()
	defer wRxToSup.Close()

	workerCodec := NewCodec(wRxToSup, rSupToRx)
	supervisorCodec := NewCodec(wSupToRx, rRxToSup)

	source := rxdriver.NewTestSource([]float64{16000})
	ringBuf := ring.New(4096)
	log := logging.New("receiver-test")

	worker := NewWorker(source, workerCodec, ringBuf, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	hs, err := supervisorCodec.RecvFromReceiver()
	require.NoError(t, err)
	require.Equal(t, MsgSampleRates, hs.Type)

	chCfg := &config.Channel{
		ID:               "c1",
		Freq:             100_000_000,
		Mode:             config.ModeFM,
		SquelchThreshold: -10, // high threshold: the silent TestSource never opens it
		DwellSeconds:     0.05,
		Flags:            config.Flags{Enabled: true},
	}

	spec := WindowSpec{ID: "w1", HardwareFreq: 100_000_000, Bandwidth: 16000, Channels: []*config.Channel{chCfg}}
	require.NoError(t, supervisorCodec.SendToReceiver(ToReceiver{Type: MsgConfig, Windows: []WindowSpec{spec}}))
	require.NoError(t, supervisorCodec.SendToReceiver(ToReceiver{Type: MsgScanWindow, WindowID: "w1"}))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for window_done")
		default:
		}

		ev, err := supervisorCodec.RecvFromReceiver()
		require.NoError(t, err)
		if ev.Type == MsgWindowDone {
			require.Equal(t, "w1", ev.WindowID)
			return
		}
	}
}
