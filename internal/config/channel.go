package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kb9vy/sdrscan/internal/idgen"
)

// Mode is the demodulation mode of a channel.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeFM
	ModeNFM
	ModeAM
	ModeUSB
	ModeLSB
	ModeNOAAEAS
	ModeBFMEAS
)

func (m Mode) String() string {
	switch m {
	case ModeFM:
		return "FM"
	case ModeNFM:
		return "NFM"
	case ModeAM:
		return "AM"
	case ModeUSB:
		return "USB"
	case ModeLSB:
		return "LSB"
	case ModeNOAAEAS:
		return "NOAA-EAS"
	case ModeBFMEAS:
		return "BFM-EAS"
	default:
		return "UNKNOWN"
	}
}

// modeStrLookup maps the config-file spelling of a mode to its value.
func modeStrLookup(s string) (Mode, bool) {
	switch strings.ToUpper(s) {
	case "FM":
		return ModeFM, true
	case "NFM":
		return ModeNFM, true
	case "AM":
		return ModeAM, true
	case "USB":
		return ModeUSB, true
	case "LSB":
		return ModeLSB, true
	case "NOAA":
		return ModeNOAAEAS, true
	case "BFM_EAS":
		return ModeBFMEAS, true
	default:
		return ModeUnknown, false
	}
}

// Solo is a tri-state flag: yes, no, or inactive (never set).
type Solo int

const (
	SoloInactive Solo = iota
	SoloOn
	SoloOff
)

// Flags holds a channel's operator-settable policy bits.
type Flags struct {
	Enabled     bool
	Muted       bool
	Solo        Solo
	Hold        bool
	ForceActive bool
}

// Channel is the stable, owned record the supervisor keeps for one
// configured radio channel. It is never shared by reference outside the
// supervisor process; receivers and event payloads carry the ID only,
// and a receiver building its DSP graph gets a copy.
type Channel struct {
	ID    string
	Freq  float64 // Hz
	Label string
	Mode  Mode

	AudioGainDB      float64
	SquelchThreshold float64 // dBFS, negative
	DwellSeconds     float64

	Flags Flags

	// DisabledUntil is nil when there is no scheduled re-enable.
	DisabledUntil *time.Time
}

// EffectivelyEnabled reports whether the channel should be scanned:
// enabled, and either no disabled-until is set or now has passed it.
func (c *Channel) EffectivelyEnabled(now time.Time) bool {
	if !c.Flags.Enabled {
		return false
	}
	if c.DisabledUntil == nil {
		return true
	}
	return !now.Before(*c.DisabledUntil)
}

// Defaults captures the channel_defaults block of the config file.
type Defaults struct {
	Mode             Mode
	AudioGainDB      float64
	SquelchThreshold float64
	DwellSeconds     float64
}

func defaultDefaults() Defaults {
	return Defaults{
		Mode:             ModeFM,
		AudioGainDB:      0,
		SquelchThreshold: -55,
		DwellSeconds:     3.0,
	}
}

// channelYAML mirrors the `channels:` list entries of the config file.
type channelYAML struct {
	FreqMHz          float64 `yaml:"freq"`
	Label            string  `yaml:"label"`
	Mode             string  `yaml:"mode"`
	AudioGainDB      *float64 `yaml:"audioGain_dB"`
	SquelchThreshold *float64 `yaml:"squelchThreshold"`
	DwellSeconds     *float64 `yaml:"dwellTime_s"`
}

// newChannelFromYAML applies defaults first, then any field the entry
// itself overrides.
func newChannelFromYAML(y channelYAML, d Defaults) (*Channel, error) {
	c := &Channel{
		ID:               idgen.New(),
		Freq:             y.FreqMHz * 1e6,
		Mode:             d.Mode,
		AudioGainDB:      d.AudioGainDB,
		SquelchThreshold: d.SquelchThreshold,
		DwellSeconds:     d.DwellSeconds,
		Flags:            Flags{Enabled: true},
	}

	c.Label = y.Label
	if c.Label == "" {
		c.Label = fmt.Sprintf("%.4f", y.FreqMHz)
	}

	if y.Mode != "" {
		mode, ok := modeStrLookup(y.Mode)
		if !ok {
			return nil, fmt.Errorf("unknown channel mode %q", y.Mode)
		}
		c.Mode = mode
	}
	if y.AudioGainDB != nil {
		c.AudioGainDB = *y.AudioGainDB
	}
	if y.SquelchThreshold != nil {
		c.SquelchThreshold = *y.SquelchThreshold
	}
	if y.DwellSeconds != nil {
		c.DwellSeconds = *y.DwellSeconds
	}

	return c, nil
}
