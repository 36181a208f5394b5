package controlws

import (
	"context"

	"github.com/brutella/dnssd"

	"github.com/kb9vy/sdrscan/internal/logging"
)

// Announce publishes the control WebSocket endpoint over DNS-SD so UIs
// on the local network can find the scanner without configuration. It
// blocks until ctx is canceled; announcement failure is logged, never
// fatal — the endpoint still works by address.
func Announce(ctx context.Context, name string, port int, log *logging.Logger) {
	cfg := dnssd.Config{
		Name: name,
		Type: "_sdrscan-ctl._tcp",
		Port: port,
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		log.Warn("dns-sd service setup failed", "err", err)
		return
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		log.Warn("dns-sd responder setup failed", "err", err)
		return
	}
	if _, err = rp.Add(service); err != nil {
		log.Warn("dns-sd announce failed", "err", err)
		return
	}

	if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
		log.Warn("dns-sd responder exited", "err", err)
	}
}
