// Package rxdriver isolates the hardware source behind a thin
// interface: open, tune, set rate, read — nothing more. The scanner
// core never talks to SoapySDR or librtlsdr directly.
package rxdriver

import (
	"context"
	"fmt"

	"github.com/kb9vy/sdrscan/internal/config"
)

// Source is the boundary a receiver worker drives.
type Source interface {
	// AdvertisedSampleRates reports the rates this device can tune to.
	AdvertisedSampleRates() []float64
	// Tune sets the hardware center frequency (Hz) and sample rate.
	Tune(ctx context.Context, centerFreqHz, sampleRate float64) error
	// ReadInto fills buf with complex baseband samples at the last
	// Tune'd rate, blocking until it has them or ctx is done.
	ReadInto(ctx context.Context, buf []complex128) (int, error)
	// Close releases the device.
	Close() error
}

// Open constructs a Source for the given receiver config. The
// SOAPY-backed source is a stub returning DeviceError until linked
// against a real device binding; TestSource gives a runnable path.
func Open(cfg *config.Receiver) (Source, error) {
	switch cfg.Kind {
	case config.ReceiverRTLSDR, config.ReceiverSoapy:
		return newSoapySource(cfg), nil
	default:
		return nil, &DeviceError{ReceiverID: cfg.ID, Reason: fmt.Sprintf("unsupported receiver kind %v", cfg.Kind)}
	}
}

// DeviceError is a hardware open/tune failure, fatal for that receiver.
type DeviceError struct {
	ReceiverID string
	Reason     string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %s", e.ReceiverID, e.Reason)
}
