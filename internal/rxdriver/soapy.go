package rxdriver

import (
	"context"

	"github.com/kb9vy/sdrscan/internal/config"
)

// soapySource stands in for a real SOAPY/RTL-SDR device binding. Every
// call either returns the receiver's advertised rate table (known
// statically for RTL-SDR, from the `driver` field for SOAPY) or a
// DeviceError, since no actual hardware I/O is linked in.
type soapySource struct {
	cfg *config.Receiver
}

func newSoapySource(cfg *config.Receiver) *soapySource {
	return &soapySource{cfg: cfg}
}

func (s *soapySource) AdvertisedSampleRates() []float64 {
	return s.cfg.GetSampleRates()
}

func (s *soapySource) Tune(ctx context.Context, centerFreqHz, sampleRate float64) error {
	return &DeviceError{ReceiverID: s.cfg.ID, Reason: "no hardware binding linked in; use rxdriver.NewTestSource for a runnable path"}
}

func (s *soapySource) ReadInto(ctx context.Context, buf []complex128) (int, error) {
	return 0, &DeviceError{ReceiverID: s.cfg.ID, Reason: "no hardware binding linked in; use rxdriver.NewTestSource for a runnable path"}
}

func (s *soapySource) Close() error { return nil }
