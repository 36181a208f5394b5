package receiver

import (
	"context"
	"time"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/dsp"
	"github.com/kb9vy/sdrscan/internal/events"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/planner"
	"github.com/kb9vy/sdrscan/internal/ring"
	"github.com/kb9vy/sdrscan/internal/rxdriver"
)

// State is the receiver worker's scan state machine.
type State int

const (
	StateIdle State = iota
	StateRunningWindow
	StateWindowComplete
	StateFailed
)

// controlTick is the worker control loop's poll interval.
const controlTick = time.Millisecond

// sampleChunk is how many RF samples the pump reads from the hardware
// source per ReadInto call.
const sampleChunk = 2048

// Worker runs in its own process, owns exactly one hardware source, and
// scans whichever window the supervisor assigns it.
type Worker struct {
	source rxdriver.Source
	codec  *Codec
	log    *logging.Logger

	state    State
	windows  map[string]WindowSpec
	current  *dsp.ScanWindow
	ringBuf  *ring.Buffer
	deadline time.Time

	bus *events.Bus

	cmds     chan ToReceiver
	stopPump chan struct{}
	pumpDone chan struct{}
}

// NewWorker wires a worker around an already-opened hardware source, a
// control codec, and the ring buffer it should write demodulated audio
// into.
func NewWorker(source rxdriver.Source, codec *Codec, ringBuf *ring.Buffer, log *logging.Logger) *Worker {
	return &Worker{
		source:  source,
		codec:   codec,
		log:     log,
		windows: make(map[string]WindowSpec),
		ringBuf: ringBuf,
		bus:     events.NewBus(),
		cmds:    make(chan ToReceiver, 64),
	}
}

// Run drives the startup handshake and the control loop until ctx is
// canceled or a MsgKill is received.
func (w *Worker) Run(ctx context.Context) error {
	go w.readCommands()

	preferred := preferredSampleRates(w.source.AdvertisedSampleRates(), config.AudioSampleRate)
	_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgSampleRates, Rates: preferred})

	statusCh, subID := w.bus.Subscribe(256)
	defer w.bus.Unsubscribe(subID)

	ticker := time.NewTicker(controlTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.teardownCurrent()
			return nil
		case cmd, ok := <-w.cmds:
			if !ok {
				w.teardownCurrent()
				return nil
			}
			if cmd.Type == MsgKill {
				w.teardownCurrent()
				return nil
			}
			w.applyCommand(cmd)
		case ev := <-statusCh:
			_ = w.codec.SendFromReceiver(FromReceiver{
				Type:         MsgChannelStatus,
				ChannelID:    ev.ChannelID,
				Status:       ev.Status,
				RSSIdBFS:     ev.RSSIdBFS,
				NoiseFloorDB: ev.NoiseFloorDB,
				VolumeDBFS:   ev.VolumeDBFS,
			})
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Worker) readCommands() {
	for {
		cmd, err := w.codec.RecvToReceiver()
		if err != nil {
			close(w.cmds)
			return
		}
		w.cmds <- cmd
	}
}

func (w *Worker) applyCommand(cmd ToReceiver) {
	switch cmd.Type {
	case MsgConfig:
		w.windows = make(map[string]WindowSpec, len(cmd.Windows))
		for _, spec := range cmd.Windows {
			w.windows[spec.ID] = spec
		}
	case MsgScanWindow:
		if w.state != StateIdle {
			_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgProtocolError, ErrText: "scan_window received while not Idle"})
			return
		}
		w.startWindow(cmd.WindowID)
	case MsgChannelMute, MsgChannelSolo, MsgChannelHold, MsgChannelForceActive:
		w.applyChannelCommand(cmd)
	}
}

func (w *Worker) applyChannelCommand(cmd ToReceiver) {
	if w.current == nil {
		return // channel lives in a window this receiver isn't running
	}
	for _, ch := range w.current.Channels() {
		if ch.ID() != cmd.ChannelID {
			continue
		}
		switch cmd.Type {
		case MsgChannelMute:
			ch.SetMute(cmd.Mute)
		case MsgChannelSolo:
			if cmd.Solo != nil {
				ch.SetSolo(*cmd.Solo)
			} else {
				ch.SetSolo(config.SoloInactive)
			}
		case MsgChannelHold:
			ch.SetHold(cmd.Hold)
		case MsgChannelForceActive:
			ch.SetForceActive(cmd.ForceActive)
		}
		return
	}
}

func (w *Worker) startWindow(windowID string) {
	spec, ok := w.windows[windowID]
	if !ok {
		_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgProtocolError, ErrText: "unknown window id " + windowID})
		return
	}

	pw := &planner.Window{ID: spec.ID, HardwareFreq: spec.HardwareFreq, Bandwidth: spec.Bandwidth, Channels: spec.Channels}
	sw, err := dsp.NewScanWindow(pw, w.source.AdvertisedSampleRates())
	if err != nil {
		w.log.Error("window build failed", "window", windowID, "err", err)
		_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgProtocolError, ErrText: err.Error()})
		return
	}

	if err := w.source.Tune(context.Background(), spec.HardwareFreq, sw.RFSampleRate); err != nil {
		w.log.Error("tune failed", "window", windowID, "err", err)
		_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgProtocolError, ErrText: err.Error()})
		return
	}

	w.log.Info("scanning window", "window", windowID, "hardwareFreq", spec.HardwareFreq, "channels", len(spec.Channels))
	w.current = sw
	w.deadline = time.Now().Add(sw.GetMinimumScanTime())
	w.state = StateRunningWindow

	w.stopPump = make(chan struct{})
	w.pumpDone = make(chan struct{})
	go w.pump(sw, w.stopPump, w.pumpDone)
}

// pump continuously reads RF samples and writes the window's mixed
// audio into the ring buffer, independent of the 1ms control tick. A
// full ring back-pressures through the blocking write.
func (w *Worker) pump(sw *dsp.ScanWindow, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	rfBuf := make([]complex128, sampleChunk)
	audioBuf := make([]float32, 0, sampleChunk)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := w.source.ReadInto(context.Background(), rfBuf)
		if err != nil || n == 0 {
			continue
		}

		now := time.Now()
		var scratch []float64
		for i := 0; i < n; i++ {
			scratch = sw.ProcessSample(rfBuf[i], now, scratch[:0])
			for _, s := range scratch {
				audioBuf = append(audioBuf, float32(clamp(s, -1, 1)))
			}
		}

		// Drain into the ring without using the buffer's own blocking
		// mode, so a stop request is never lost behind a full ring.
		rem := audioBuf
		for len(rem) > 0 {
			select {
			case <-stop:
				return
			default:
			}
			n := w.ringBuf.Write(rem, false)
			rem = rem[n:]
			if n == 0 {
				time.Sleep(time.Millisecond)
			}
		}
		audioBuf = audioBuf[:0]
	}
}

// tick runs the control loop's per-window bookkeeping: publish status
// deltas, and end the window once it's inactive past its deadline.
func (w *Worker) tick() {
	if w.state != StateRunningWindow || w.current == nil {
		return
	}

	now := time.Now()
	active := w.current.IsActive(w.bus, now)

	if !active && now.After(w.deadline) {
		w.completeWindow()
	}
}

func (w *Worker) completeWindow() {
	close(w.stopPump)
	<-w.pumpDone

	id := w.current.ID
	w.current = nil
	w.state = StateIdle

	_ = w.codec.SendFromReceiver(FromReceiver{Type: MsgWindowDone, WindowID: id})
}

func (w *Worker) teardownCurrent() {
	if w.current != nil && w.stopPump != nil {
		close(w.stopPump)
		<-w.pumpDone
	}
	_ = w.source.Close()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// preferredSampleRates filters the advertised set down to rates with
// >= 4 prime factors that are an exact multiple of the audio rate
// (these decimate cleanly in multiple stages), falling back to the
// full set if none qualify.
func preferredSampleRates(rates []float64, audioRate float64) []float64 {
	var preferred []float64
	for _, r := range rates {
		n := int64(r)
		if n%int64(audioRate) != 0 {
			continue
		}
		if countPrimeFactorsWithMultiplicity(n) >= 4 {
			preferred = append(preferred, r)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	return rates
}

func countPrimeFactorsWithMultiplicity(n int64) int {
	count := 0
	for p := int64(2); p*p <= n; p++ {
		for n%p == 0 {
			n /= p
			count++
		}
	}
	if n > 1 {
		count++
	}
	return count
}
