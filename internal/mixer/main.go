package mixer

import (
	"context"
	"os"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/ring"
)

func segmentFile(fd int) *os.File {
	return os.NewFile(uintptr(fd), "ring-segment")
}

// RunProcess is the entry point for the re-exec'd `mixer` subcommand.
// It expects one ring-buffer segment per receiver, inherited starting
// at fd 3 in receiver order, and runs until ctx is canceled.
func RunProcess(ctx context.Context, cfg *config.Config, ringCapacity int) error {
	log := logging.New("mixer")

	rings := make([]*ring.Buffer, len(cfg.Receivers))
	for i := range cfg.Receivers {
		segFile := segmentFile(3 + i)
		_, buf, err := ring.AttachSegment(segFile, ringCapacity)
		if err != nil {
			log.Error("attach ring segment", "receiver", cfg.Receivers[i].ID, "err", err)
			return err
		}
		rings[i] = buf
	}

	sinks, err := BuildSinks(cfg.Outputs, config.AudioSampleRate, log)
	if err != nil {
		log.Error("build sinks", "err", err)
		return err
	}

	m := New(rings, sinks, config.AudioSampleRate, log)
	return m.Run(ctx)
}
