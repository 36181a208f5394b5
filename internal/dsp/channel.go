// Package dsp realises the per-channel demodulation graph: a
// frequency-translating, decimating frontend feeding a power squelch
// and a mode-specific tail, a shared 200-3500Hz audio band-pass, and
// the RSSI/volume/noise-floor measurement branches. Each mode's
// internal wiring differs (fm.go/am.go/ssb.go/eas.go) but every
// Channel exposes the same boundary: process a sample, report status,
// take runtime flag mutations.
package dsp

import (
	"math"
	"sync"
	"time"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/events"
)

// tail is the common boundary every mode-specific demod tail satisfies.
// activeOverride is nil for modes that rely on the frontend's power
// squelch (FM/NFM/AM/SSB); EAS tails return their own gate state.
type tail interface {
	Process(sample complex128) (audio float64, activeOverride *bool)
	PartialActive() bool
	IsEAS() bool
}

type fmTailAdapter struct{ *fmTail }

func (a fmTailAdapter) Process(s complex128) (float64, *bool) { return a.fmTail.Process(s), nil }
func (a fmTailAdapter) PartialActive() bool                   { return false }
func (a fmTailAdapter) IsEAS() bool                            { return false }

type amTailAdapter struct{ *amTail }

func (a amTailAdapter) Process(s complex128) (float64, *bool) { return a.amTail.Process(s), nil }
func (a amTailAdapter) PartialActive() bool                   { return false }
func (a amTailAdapter) IsEAS() bool                            { return false }

type ssbTailAdapter struct{ *ssbTail }

func (a ssbTailAdapter) Process(s complex128) (float64, *bool) { return a.ssbTail.Process(s), nil }
func (a ssbTailAdapter) PartialActive() bool                   { return false }
func (a ssbTailAdapter) IsEAS() bool                            { return false }

type easTailAdapter struct{ *easTail }

func (a easTailAdapter) Process(s complex128) (float64, *bool) {
	audio, open := a.easTail.Process(s)
	return audio, &open
}
func (a easTailAdapter) PartialActive() bool {
	return a.easTail.consecutivePositive > 0 && a.easTail.consecutivePositive < easConsecutiveFramesToOpen
}
func (a easTailAdapter) IsEAS() bool { return true }

// Channel is one realised demod graph. It owns a private copy of its
// configuration; the receiver builds its graph from a copy, never a
// shared pointer back into the supervisor.
type Channel struct {
	id               string
	hardwareFreq     float64
	intermediateRate float64

	fe      *frontend
	squelch *powerSquelch
	tl      tail

	commonBandpass *FIR

	volumeEnv        *dualAlphaEnvelope
	rssiFilter       *OnePole
	noiseFloorFilter *OnePole

	mu sync.Mutex

	flags       config.Flags
	audioGainDB float64

	lastActiveTime  time.Time
	everActive      bool
	currentlyActive bool

	lastVolumeDBFS     float64
	lastRSSIDBFS       float64
	lastNoiseFloorDBFS float64

	dwellSeconds float64
}

// NewChannel builds a realised graph from a channel config copy, the
// window's intermediate (post-decimation) sample rate, and the
// window's hardware tuning frequency.
func NewChannel(cfg *config.Channel, hardwareFreq, rfSampleRate, intermediateRate float64) *Channel {
	offset := cfg.Freq - hardwareFreq

	c := &Channel{
		id:               cfg.ID,
		hardwareFreq:     hardwareFreq,
		intermediateRate: intermediateRate,
		fe:               newFrontend(offset, rfSampleRate, intermediateRate),
		squelch:          newPowerSquelch(cfg.SquelchThreshold, intermediateRate),
		commonBandpass:   NewFIR(bandpassTaps(200, 3500, 100, intermediateRate)),
		volumeEnv:        newDualAlphaEnvelope(VolumeAttackTC, VolumeDecayTC, intermediateRate),
		rssiFilter:       NewOnePoleFromTC(RSSILowpassTC, intermediateRate),
		noiseFloorFilter: NewOnePoleFromAlpha(NoiseFloorAlpha),
		flags:            cfg.Flags,
		audioGainDB:      cfg.AudioGainDB,
		dwellSeconds:     cfg.DwellSeconds,
	}

	switch cfg.Mode {
	case config.ModeFM:
		c.tl = fmTailAdapter{newFMTail(5000, intermediateRate)}
	case config.ModeNFM:
		c.tl = fmTailAdapter{newFMTail(2500, intermediateRate)}
	case config.ModeAM:
		c.tl = amTailAdapter{newAMTail(intermediateRate)}
	case config.ModeUSB:
		c.tl = ssbTailAdapter{newSSBTail(true, intermediateRate)}
	case config.ModeLSB:
		c.tl = ssbTailAdapter{newSSBTail(false, intermediateRate)}
	case config.ModeNOAAEAS:
		c.tl = easTailAdapter{newEASTail([]float64{1050}, intermediateRate, cfg.DwellSeconds)}
	case config.ModeBFMEAS:
		c.tl = easTailAdapter{newEASTail([]float64{853, 960}, intermediateRate, cfg.DwellSeconds)}
	default:
		c.tl = fmTailAdapter{newFMTail(5000, intermediateRate)}
	}

	return c
}

// ID returns the channel's config id, stable across window rebuilds.
func (c *Channel) ID() string { return c.id }

// ProcessSample runs one RF-rate complex sample through the full graph
// and, when the frontend's decimator produces an output, returns the
// common-tail audio sample for the window's summing junction.
func (c *Channel) ProcessSample(rfSample complex128, now time.Time) (audio float64, ok bool) {
	decimated, ready := c.fe.Process(rfSample)
	if !ready {
		return 0, false
	}

	squelchOpen, power := c.squelch.Update(decimated)

	demodAudio, activeOverride := c.tl.Process(decimated)

	active := squelchOpen
	if activeOverride != nil {
		active = *activeOverride
	}

	c.mu.Lock()
	c.currentlyActive = active
	if active {
		c.lastActiveTime = now
		c.everActive = true
	} else {
		c.noiseFloorFilter.Process(power)
		c.lastNoiseFloorDBFS = powerToDBFS(c.noiseFloorFilter.Value())
	}
	gain := dBToRatio(c.audioGainDB)
	muted := c.flags.Muted
	c.mu.Unlock()

	filtered := c.commonBandpass.Process(demodAudio)
	preMute := filtered * gain

	volLinear := c.volumeEnv.Process(abs64(preMute))
	c.mu.Lock()
	c.lastVolumeDBFS = toDBFS(volLinear)
	c.lastRSSIDBFS = powerToDBFS(c.rssiFilter.Process(power))
	c.mu.Unlock()

	out := preMute
	if muted {
		out = 0
	}
	return out, true
}

// GetStatus resolves the channel's scan state: force-active wins, then
// an open squelch or EAS gate, then the dwell window, then hold.
func (c *Channel) GetStatus(now time.Time) events.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flags.ForceActive {
		return events.StatusForceActive
	}

	if c.currentlyActive {
		return events.StatusActive
	}

	dwelling := c.everActive && now.Sub(c.lastActiveTime) < time.Duration(c.dwellSeconds*float64(time.Second))
	if !dwelling && c.tl.IsEAS() {
		dwelling = c.tl.PartialActive()
	}

	return resolveStatus(false, false, dwelling, c.flags.Hold)
}

// GetMinimumScanTime is the least dwell the containing window must
// scan before it may be preempted.
func (c *Channel) GetMinimumScanTime() time.Duration {
	return time.Duration(minimumScanTimeFor(c.tl.IsEAS()) * float64(time.Second))
}

// Measurements returns the most recently computed RSSI/noise-floor/
// volume figures for a status event payload.
func (c *Channel) Measurements() (rssiDBFS, noiseFloorDBFS, volumeDBFS float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRSSIDBFS, c.lastNoiseFloorDBFS, c.lastVolumeDBFS
}

// SetMute is idempotent and takes effect before the next sample block,
// as do the other flag setters below.
func (c *Channel) SetMute(mute bool) {
	c.mu.Lock()
	c.flags.Muted = mute
	c.mu.Unlock()
}

func (c *Channel) SetSolo(solo config.Solo) {
	c.mu.Lock()
	c.flags.Solo = solo
	c.mu.Unlock()
}

func (c *Channel) SetHold(hold bool) {
	c.mu.Lock()
	c.flags.Hold = hold
	c.mu.Unlock()
}

func (c *Channel) SetForceActive(forceActive bool) {
	c.mu.Lock()
	c.flags.ForceActive = forceActive
	c.mu.Unlock()
}

func (c *Channel) SetSquelchValue(thresholdDBFS float64) {
	c.squelch.SetThresholdDBFS(thresholdDBFS)
}

func (c *Channel) SetAudioGain(gainDB float64) {
	c.mu.Lock()
	c.audioGainDB = gainDB
	c.mu.Unlock()
}

func dBToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}

func abs64(x float64) float64 {
	return math.Abs(x)
}
