package config

import (
	"fmt"
	"strings"

	"github.com/kb9vy/sdrscan/internal/idgen"
)

// ReceiverKind is the closed set of hardware source drivers.
type ReceiverKind int

const (
	ReceiverUnknown ReceiverKind = iota
	ReceiverRTLSDR
	ReceiverSoapy
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverRTLSDR:
		return "rtl_sdr"
	case ReceiverSoapy:
		return "soapy"
	default:
		return "unknown"
	}
}

func receiverKindLookup(s string) (ReceiverKind, bool) {
	switch strings.ToLower(s) {
	case "rtl_sdr", "rtlsdr", "rtl-sdr":
		return ReceiverRTLSDR, true
	case "soapy":
		return ReceiverSoapy, true
	default:
		return ReceiverUnknown, false
	}
}

// rtlSDRSampleRates is the fixed advertised-rate table for RTL dongles.
// Real devices support more rates but these decimate cleanly.
var rtlSDRSampleRates = []float64{1_024_000, 1_536_000, 1_792_000, 1_920_000, 2_048_000}

// Receiver is one hardware source entry from the `receivers:` list.
type Receiver struct {
	ID         string
	Kind       ReceiverKind
	DeviceArgs string // SOAPY device string, or serial index for rtl_sdr
	Driver     string // required for ReceiverSoapy, names the SOAPY module

	// GainDB is a single overall gain; Gains maps per-element gains
	// (SOAPY element name to dB). At most one of the two is set.
	GainDB float64
	Gains  map[string]float64

	// SampleRates is populated from the worker's startup handshake;
	// until then GetSampleRates falls back to the static table.
	SampleRates []float64
}

// GetSampleRates returns the rates this receiver can tune to.
func (r *Receiver) GetSampleRates() []float64 {
	if len(r.SampleRates) > 0 {
		return r.SampleRates
	}
	if r.Kind == ReceiverRTLSDR {
		return rtlSDRSampleRates
	}
	return nil
}

type receiverYAML struct {
	Type      string             `yaml:"type"`
	DeviceArg string             `yaml:"deviceArg"`
	Driver    string             `yaml:"driver"`
	GainDB    float64            `yaml:"gain"`
	Gains     map[string]float64 `yaml:"gains"`
}

// newReceiverFromYAML validates a receiver entry: an unrecognized type,
// or a soapy receiver missing "driver", is fatal at startup.
func newReceiverFromYAML(path string, y receiverYAML) (*Receiver, error) {
	kind, ok := receiverKindLookup(y.Type)
	if !ok {
		return nil, newError(path, fmt.Errorf("unknown receiver type %q", y.Type))
	}
	if kind == ReceiverSoapy && y.Driver == "" {
		return nil, newError(path, fmt.Errorf("receiver type %q requires \"driver\"", y.Type))
	}

	return &Receiver{
		ID:         idgen.New(),
		Kind:       kind,
		DeviceArgs: y.DeviceArg,
		Driver:     y.Driver,
		GainDB:     y.GainDB,
		Gains:      y.Gains,
	}, nil
}
