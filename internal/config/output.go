package config

import (
	"fmt"
	"strings"
)

// OutputKind is the closed set of mixer sinks.
type OutputKind int

const (
	OutputUnknown OutputKind = iota
	OutputLocal
	OutputUDP
	OutputIcecast
	OutputWebSocket
)

func outputKindLookup(s string) (OutputKind, bool) {
	switch strings.ToLower(s) {
	case "local":
		return OutputLocal, true
	case "udp":
		return OutputUDP, true
	case "icecast":
		return OutputIcecast, true
	case "websocket", "ws":
		return OutputWebSocket, true
	default:
		return OutputUnknown, false
	}
}

// Output is one entry of the `outputs:` list.
type Output struct {
	Kind OutputKind

	// local: no further fields.

	// udp
	Host string
	Port int

	// icecast
	IcecastURL      string
	IcecastMount    string
	IcecastUser     string
	IcecastPassword string
	BitrateKbps     int

	// websocket
	WebSocketPath string
}

type outputYAML struct {
	Type        string `yaml:"type"`
	ServerIP    string `yaml:"serverIp"`
	ServerPort  int    `yaml:"serverPort"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	URL         string `yaml:"url"`
	Mount       string `yaml:"mount"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
	Path        string `yaml:"path"`
}

func newOutputFromYAML(path string, y outputYAML) (*Output, error) {
	kind, ok := outputKindLookup(y.Type)
	if !ok {
		return nil, newError(path, fmt.Errorf("unknown output type %q", y.Type))
	}

	o := &Output{Kind: kind}

	switch kind {
	case OutputUDP:
		if y.ServerIP == "" || y.ServerPort == 0 {
			return nil, newError(path, fmt.Errorf("udp output requires \"serverIp\" and \"serverPort\""))
		}
		o.Host = y.ServerIP
		o.Port = y.ServerPort
	case OutputIcecast:
		if y.URL == "" || y.Password == "" {
			return nil, newError(path, fmt.Errorf("icecast output requires \"url\" and \"password\""))
		}
		o.IcecastURL = y.URL
		o.IcecastMount = y.Mount
		o.IcecastUser = y.User
		if o.IcecastUser == "" {
			o.IcecastUser = "source"
		}
		o.IcecastPassword = y.Password
		o.BitrateKbps = y.BitrateKbps
		if o.BitrateKbps == 0 {
			o.BitrateKbps = 48
		}
	case OutputWebSocket:
		o.Host = y.Host
		if o.Host == "" {
			o.Host = "0.0.0.0"
		}
		o.Port = y.Port
		if o.Port == 0 {
			o.Port = 8766
		}
		o.WebSocketPath = y.Path
		if o.WebSocketPath == "" {
			o.WebSocketPath = "/audio"
		}
	}

	return o, nil
}
