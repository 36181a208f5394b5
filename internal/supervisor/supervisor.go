// Package supervisor is the scheduling process: it owns the channel and
// receiver configuration, the window partition and its scan ledger, the
// worker and mixer child processes, and the outward event bus.
package supervisor

import (
	"context"
	"time"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/events"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/planner"
	"github.com/kb9vy/sdrscan/internal/receiver"
	"github.com/kb9vy/sdrscan/internal/ring"
)

const supervisorTick = time.Millisecond

// maintenanceInterval bounds the disabled_until re-enable sweep.
const maintenanceInterval = time.Second

// ringCapacity is the sample count each shared-memory ring holds, about
// a quarter second of audio at the fixed 16kHz output rate.
const ringCapacity = 4000

// Supervisor drives the whole system: spawning and supervising worker
// processes, assigning windows, relaying events, and applying
// operator commands.
type Supervisor struct {
	cfg *config.Config
	log *logging.Logger

	windows      []*planner.Window
	channelsByID map[string]*config.Channel

	receivers []*receiverProc
	mixer     *mixerProc

	ledger *Ledger
	bus    *events.Bus

	Commands chan events.Command

	// Reloads accepts a freshly parsed configuration; the next tick
	// swaps the channel set in and replans windows. Receiver and output
	// lists are fixed at startup and ignored on reload.
	Reloads chan *config.Config

	configDirty     bool
	lastMaintenance time.Time
	stopped         bool
}

// New builds a supervisor for cfg, computes the initial window
// partition, and spawns every receiver and the mixer as re-exec'd
// child processes of exePath.
func New(ctx context.Context, cfg *config.Config, exePath string, log *logging.Logger) (*Supervisor, error) {
	s := &Supervisor{
		cfg:          cfg,
		log:          log,
		ledger:       NewLedger(),
		bus:          events.NewBus(),
		Commands:     make(chan events.Command, 256),
		Reloads:      make(chan *config.Config, 1),
		channelsByID: make(map[string]*config.Channel),
	}
	for _, c := range cfg.Channels {
		s.channelsByID[c.ID] = c
	}

	s.rebuildWindows()
	if len(s.windows) == 0 {
		log.Warn("no effectively enabled channels at startup")
	}

	var segs []*ring.Segment
	for _, rc := range cfg.Receivers {
		rp, err := spawnReceiver(ctx, exePath, rc, ringCapacity)
		if err != nil {
			s.teardown()
			return nil, err
		}
		segs = append(segs, rp.seg)
		s.receivers = append(s.receivers, rp)
	}

	mp, err := spawnMixer(ctx, exePath, cfg, segs, ringCapacity)
	if err != nil {
		s.teardown()
		return nil, err
	}
	s.mixer = mp

	return s, nil
}

// Events exposes the supervisor's outward event bus for a control
// websocket bridge, or any other consumer, to subscribe to.
func (s *Supervisor) Events() *events.Bus { return s.bus }

func (s *Supervisor) rebuildWindows() {
	maxPerWindow := s.cfg.MaxChannelsPerWindow
	enabled := make([]*config.Channel, 0, len(s.cfg.Channels))
	now := time.Now()
	for _, c := range s.cfg.Channels {
		if c.EffectivelyEnabled(now) {
			enabled = append(enabled, c)
		}
	}

	s.windows = planner.Plan(enabled, s.cfg.Receivers, maxPerWindow)
	s.configDirty = false
	s.bus.Publish(events.Event{Type: events.ScanWindowConfigsChanged})
}

// Run drives the main loop until ctx is canceled or the mixer process
// dies.
func (s *Supervisor) Run(ctx context.Context) error {
	s.lastMaintenance = time.Now()
	ticker := time.NewTicker(supervisorTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case <-ticker.C:
			if s.tick() {
				s.teardown()
				return nil
			}
		}
	}
}

// tick runs one supervisor main-loop iteration and reports whether the
// system should stop.
func (s *Supervisor) tick() bool {
	select {
	case fresh := <-s.Reloads:
		s.applyReload(fresh)
	default:
	}

	s.drainCommands()

	now := time.Now()
	if now.Sub(s.lastMaintenance) >= maintenanceInterval {
		s.runMaintenance(now)
		s.lastMaintenance = now
	}

	if s.configDirty {
		s.rebuildWindows()
	}

	s.assignIdleReceivers()
	s.drainReceiverEvents()

	for _, rp := range s.receivers {
		if !rp.alive() {
			s.log.Error("receiver process died, stopping", "receiver", rp.cfg.ID)
			return true
		}
	}

	if s.mixer != nil && !s.mixer.alive() {
		s.log.Error("mixer process died, stopping")
		return true
	}
	return false
}

// applyReload swaps in the channel list from a re-read config file.
// Running windows finish naturally; the new partition takes effect as
// receivers go idle.
func (s *Supervisor) applyReload(fresh *config.Config) {
	s.cfg.Channels = fresh.Channels
	s.cfg.MaxChannelsPerWindow = fresh.MaxChannelsPerWindow
	s.channelsByID = make(map[string]*config.Channel, len(fresh.Channels))
	for _, c := range fresh.Channels {
		s.channelsByID[c.ID] = c
	}
	s.configDirty = true
	s.log.Info("configuration reloaded", "channels", len(fresh.Channels))
}

func (s *Supervisor) drainCommands() {
	for {
		select {
		case cmd := <-s.Commands:
			s.applyCommand(cmd)
		default:
			return
		}
	}
}

func (s *Supervisor) applyCommand(cmd events.Command) {
	c, ok := s.channelsByID[cmd.ChannelID]
	if !ok {
		return
	}

	switch cmd.Type {
	case events.ChannelEnable:
		if c.Flags.Enabled != cmd.Enabled {
			c.Flags.Enabled = cmd.Enabled
			s.configDirty = true
		}
	case events.ChannelDisableUntil:
		if cmd.DisableUntilUnix == 0 {
			c.DisabledUntil = nil
		} else {
			t := time.Unix(cmd.DisableUntilUnix, 0)
			c.DisabledUntil = &t
		}
		s.configDirty = true
	case events.ChannelMute:
		c.Flags.Muted = cmd.Mute
		s.broadcastChannelFlag(receiver.ToReceiver{Type: receiver.MsgChannelMute, ChannelID: cmd.ChannelID, Mute: s.effectiveMute(c)})
	case events.ChannelSolo:
		desired := cmd.Solo != nil && *cmd.Solo
		updates := ApplySolo(s.cfg.Channels, cmd.ChannelID, desired)
		for _, u := range updates {
			solo := u.Solo
			s.broadcastChannelFlag(receiver.ToReceiver{Type: receiver.MsgChannelSolo, ChannelID: u.ChannelID, Solo: &solo})
		}
		// Re-derive every channel's effective mute now that solo state
		// changed.
		anyOn := AnySoloActive(s.cfg.Channels)
		for _, ch := range s.cfg.Channels {
			s.broadcastChannelFlag(receiver.ToReceiver{Type: receiver.MsgChannelMute, ChannelID: ch.ID, Mute: EffectiveMute(ch, anyOn)})
		}
	case events.ChannelHold:
		c.Flags.Hold = cmd.Hold
		s.broadcastChannelFlag(receiver.ToReceiver{Type: receiver.MsgChannelHold, ChannelID: cmd.ChannelID, Hold: cmd.Hold})
	case events.ChannelForceActive:
		c.Flags.ForceActive = cmd.ForceActive
		s.broadcastChannelFlag(receiver.ToReceiver{Type: receiver.MsgChannelForceActive, ChannelID: cmd.ChannelID, ForceActive: cmd.ForceActive})
	}
}

func (s *Supervisor) effectiveMute(c *config.Channel) bool {
	return EffectiveMute(c, AnySoloActive(s.cfg.Channels))
}

// broadcastChannelFlag sends a channel-targeted command to every
// receiver. A channel lives in at most one window, so the receiver that
// owns it applies it and the rest no-op.
func (s *Supervisor) broadcastChannelFlag(msg receiver.ToReceiver) {
	for _, rp := range s.receivers {
		_ = rp.send(msg)
	}
}

func (s *Supervisor) runMaintenance(now time.Time) {
	for _, c := range s.cfg.Channels {
		if c.DisabledUntil != nil && !now.Before(*c.DisabledUntil) {
			c.DisabledUntil = nil
			s.configDirty = true
		}
	}
}

// assignIdleReceivers gives each idle receiver the least-recently-
// scanned window nobody is currently running.
func (s *Supervisor) assignIdleReceivers() {
	running := make(map[string]bool, len(s.receivers))
	for _, rp := range s.receivers {
		if !rp.idle {
			running[rp.currentWindow] = true
		}
	}

	for _, rp := range s.receivers {
		if !rp.idle {
			continue
		}
		w := s.ledger.PickNext(s.windows, running)
		if w == nil {
			continue
		}

		_ = rp.send(receiver.ToReceiver{
			Type: receiver.MsgConfig,
			Windows: []receiver.WindowSpec{{
				ID:           w.ID,
				HardwareFreq: w.HardwareFreq,
				Bandwidth:    w.Bandwidth,
				Channels:     w.Channels,
			}},
		})
		_ = rp.send(receiver.ToReceiver{Type: receiver.MsgScanWindow, WindowID: w.ID})

		rp.idle = false
		rp.currentWindow = w.ID
		running[w.ID] = true

		s.bus.Publish(events.Event{Type: events.ScanWindowStart, WindowID: w.ID, ReceiverID: rp.cfg.ID})
	}
}

// drainReceiverEvents reads every receiver's event pipe without
// blocking.
func (s *Supervisor) drainReceiverEvents() {
	for _, rp := range s.receivers {
		draining := true
		for draining {
			select {
			case ev, ok := <-rp.events:
				if !ok {
					draining = false
					continue
				}
				s.handleReceiverEvent(rp, ev)
			default:
				draining = false
			}
		}
	}
}

func (s *Supervisor) handleReceiverEvent(rp *receiverProc, ev receiver.FromReceiver) {
	switch ev.Type {
	case receiver.MsgSampleRates:
		rp.advertisedRates = ev.Rates
		// Fold the discovered rates into the planner's inputs so the
		// next rebuild uses what the hardware actually supports.
		rp.cfg.SampleRates = ev.Rates
		s.configDirty = true
	case receiver.MsgWindowDone:
		s.ledger.MarkScanned(ev.WindowID, time.Now())
		rp.idle = true
		rp.currentWindow = ""
		s.bus.Publish(events.Event{Type: events.ScanWindowDone, WindowID: ev.WindowID})
	case receiver.MsgChannelStatus:
		s.bus.Publish(events.Event{
			Type:         events.ChannelStatus,
			ChannelID:    ev.ChannelID,
			Status:       ev.Status,
			RSSIdBFS:     ev.RSSIdBFS,
			NoiseFloorDB: ev.NoiseFloorDB,
			VolumeDBFS:   ev.VolumeDBFS,
		})
	case receiver.MsgProtocolError:
		s.log.Warn("receiver protocol error", "err", ev.ErrText)
		s.bus.Publish(events.Event{Type: events.EventError, ErrText: ev.ErrText})
	}
}

// teardown kills every receiver, stops the mixer, and releases shared
// memory. Safe to call more than once.
func (s *Supervisor) teardown() {
	if s.stopped {
		return
	}
	s.stopped = true

	for _, rp := range s.receivers {
		rp.kill()
	}
	if s.mixer != nil {
		s.mixer.kill()
	}
}
