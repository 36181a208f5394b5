// Package config holds the static data model of the scanner — channels,
// receivers, output sinks — and loads it from the YAML configuration
// file, merging channel_defaults into every channel entry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AudioSampleRate is the fixed output rate of the mixer in Hz.
const AudioSampleRate = 16000

// Config is the fully parsed, validated configuration for one scanner
// instance: the flat lists the rest of the module consumes. Windows are
// computed separately by internal/planner once receivers and channels
// are known.
type Config struct {
	MaxChannelsPerWindow int

	Receivers []*Receiver
	Channels  []*Channel
	Outputs   []*Output

	ControlWSHost string
	ControlWSPort int
	Announce      bool
}

type configYAML struct {
	Scanner         *scannerYAML   `yaml:"scanner"`
	Receivers       []receiverYAML `yaml:"receivers"`
	ChannelDefaults map[string]any `yaml:"channel_defaults"`
	Channels        []channelYAML  `yaml:"channels"`
	Outputs         []outputYAML   `yaml:"outputs"`
	Control         *controlYAML   `yaml:"control"`
}

type scannerYAML struct {
	MaxChannelsPerWindow int `yaml:"maxChannelsPerWindow"`
}

type controlYAML struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Announce bool   `yaml:"announce"`
}

// Load reads and validates a YAML config file: merge channel_defaults
// into every channel entry, build every receiver and output, and fail
// fast with a *config.Error on anything malformed.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(path, err)
	}

	var y configYAML
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, newError(path, fmt.Errorf("parsing yaml: %w", err))
	}

	defaults, err := parseDefaults(path, y.ChannelDefaults)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MaxChannelsPerWindow: 16,
		ControlWSHost:        "127.0.0.1",
		ControlWSPort:        8765,
	}
	if y.Scanner != nil && y.Scanner.MaxChannelsPerWindow > 0 {
		cfg.MaxChannelsPerWindow = y.Scanner.MaxChannelsPerWindow
	}

	for _, ry := range y.Receivers {
		r, err := newReceiverFromYAML(path, ry)
		if err != nil {
			return nil, err
		}
		cfg.Receivers = append(cfg.Receivers, r)
	}
	if len(cfg.Receivers) == 0 {
		return nil, newError(path, fmt.Errorf("no receivers configured"))
	}

	for _, cy := range y.Channels {
		c, err := newChannelFromYAML(cy, defaults)
		if err != nil {
			return nil, newError(path, err)
		}
		cfg.Channels = append(cfg.Channels, c)
	}

	for _, oy := range y.Outputs {
		o, err := newOutputFromYAML(path, oy)
		if err != nil {
			return nil, err
		}
		cfg.Outputs = append(cfg.Outputs, o)
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = append(cfg.Outputs, &Output{Kind: OutputLocal})
	}

	if y.Control != nil {
		if y.Control.Host != "" {
			cfg.ControlWSHost = y.Control.Host
		}
		if y.Control.Port != 0 {
			cfg.ControlWSPort = y.Control.Port
		}
		cfg.Announce = y.Control.Announce
	}

	return cfg, nil
}

// parseDefaults decodes the channel_defaults map onto defaultDefaults(),
// re-using the same yaml tags channelYAML declares so a default block
// and a per-channel override accept identical keys.
func parseDefaults(path string, raw map[string]any) (Defaults, error) {
	d := defaultDefaults()
	if raw == nil {
		return d, nil
	}

	enc, err := yaml.Marshal(raw)
	if err != nil {
		return d, newError(path, fmt.Errorf("channel_defaults: %w", err))
	}

	var cy channelYAML
	if err := yaml.Unmarshal(enc, &cy); err != nil {
		return d, newError(path, fmt.Errorf("channel_defaults: %w", err))
	}

	if cy.Mode != "" {
		mode, ok := modeStrLookup(cy.Mode)
		if !ok {
			return d, newError(path, fmt.Errorf("channel_defaults: unknown mode %q", cy.Mode))
		}
		d.Mode = mode
	}
	if cy.AudioGainDB != nil {
		d.AudioGainDB = *cy.AudioGainDB
	}
	if cy.SquelchThreshold != nil {
		d.SquelchThreshold = *cy.SquelchThreshold
	}
	if cy.DwellSeconds != nil {
		d.DwellSeconds = *cy.DwellSeconds
	}

	return d, nil
}
