package receiver

import (
	"context"
	"os"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/ring"
	"github.com/kb9vy/sdrscan/internal/rxdriver"
)

// RunProcess is the entry point for the re-exec'd `receiver` subcommand
// (see cmd/sdrscand). It expects fd 3 to be the inherited ring-buffer
// segment and the receiver config to be the sole positional argument
// encoded as gob on stdin's first message (sent by the supervisor
// immediately after spawn).
func RunProcess(ctx context.Context, receiverCfg *config.Receiver, ringCapacity int) error {
	log := logging.New("receiver")

	segFile := os.NewFile(3, "ring-segment")
	_, ringBuf, err := ring.AttachSegment(segFile, ringCapacity)
	if err != nil {
		log.Error("attach ring segment", "err", err)
		return err
	}

	source, err := rxdriver.Open(receiverCfg)
	if err != nil {
		log.Error("open source", "err", err)
		return err
	}

	codec := NewCodec(os.Stdout, os.Stdin)
	worker := NewWorker(source, codec, ringBuf, log)

	return worker.Run(ctx)
}
