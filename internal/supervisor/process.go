package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/receiver"
	"github.com/kb9vy/sdrscan/internal/ring"
)

// killGrace is how long the supervisor waits for a killed worker to
// exit on its own before sending SIGKILL.
const killGrace = 2 * time.Second

// receiverProc is the supervisor's handle on one re-exec'd `receiver`
// child process: its control codec, its half of the shared-memory ring,
// and the channel its read pump feeds.
type receiverProc struct {
	cfg *config.Receiver
	cmd *exec.Cmd

	codec *receiver.Codec
	seg   *ring.Segment

	events chan receiver.FromReceiver
	exited chan struct{} // closed once cmd.Wait returns

	idle            bool
	currentWindow   string
	advertisedRates []float64
}

// spawnReceiver re-execs the running binary with the hidden `receiver`
// subcommand: StdinPipe/StdoutPipe form the bidirectional control pipe,
// ExtraFiles hands down the inherited ring segment.
func spawnReceiver(ctx context.Context, exePath string, cfg *config.Receiver, ringCapacity int) (*receiverProc, error) {
	seg, _, err := ring.CreateSegment(ringCapacity)
	if err != nil {
		return nil, fmt.Errorf("create ring segment for receiver %s: %w", cfg.ID, err)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		seg.Close()
		return nil, err
	}

	cmd := exec.CommandContext(ctx, exePath, "receiver",
		"--config-json", string(cfgJSON),
		"--ring-capacity", strconv.Itoa(ringCapacity))
	cmd.ExtraFiles = []*os.File{seg.File()}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		seg.Close()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		seg.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		seg.Close()
		return nil, fmt.Errorf("start receiver %s: %w", cfg.ID, err)
	}

	rp := &receiverProc{
		cfg:    cfg,
		cmd:    cmd,
		codec:  receiver.NewCodec(stdin, stdout),
		seg:    seg,
		events: make(chan receiver.FromReceiver, 256),
		exited: make(chan struct{}),
		idle:   true,
	}
	go rp.pump()
	go func() {
		_ = cmd.Wait()
		close(rp.exited)
	}()
	return rp, nil
}

func (rp *receiverProc) pump() {
	for {
		ev, err := rp.codec.RecvFromReceiver()
		if err != nil {
			close(rp.events)
			return
		}
		rp.events <- ev
	}
}

func (rp *receiverProc) send(m receiver.ToReceiver) error {
	return rp.codec.SendToReceiver(m)
}

// alive reports whether the child process is still running.
func (rp *receiverProc) alive() bool {
	select {
	case <-rp.exited:
		return false
	default:
		return true
	}
}

// kill sends MsgKill and waits up to killGrace for a clean exit before
// escalating to SIGKILL, then releases the ring segment.
func (rp *receiverProc) kill() {
	_ = rp.send(receiver.ToReceiver{Type: receiver.MsgKill})

	select {
	case <-rp.exited:
	case <-time.After(killGrace):
		_ = rp.cmd.Process.Kill()
		<-rp.exited
	}
	_ = rp.seg.Close()
}

// mixerProc is the supervisor's handle on the re-exec'd `mixer` child.
type mixerProc struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// spawnMixer starts the mixer process with one inherited ring segment
// per receiver, in receiver order, starting at fd 3.
func spawnMixer(ctx context.Context, exePath string, cfg *config.Config, segs []*ring.Segment, ringCapacity int) (*mixerProc, error) {
	files := make([]*os.File, len(segs))
	for i, s := range segs {
		files[i] = s.File()
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, exePath, "mixer",
		"--config-json", string(cfgJSON),
		"--ring-capacity", strconv.Itoa(ringCapacity))
	cmd.ExtraFiles = files
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mixer: %w", err)
	}
	mp := &mixerProc{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(mp.exited)
	}()
	return mp, nil
}

func (mp *mixerProc) alive() bool {
	select {
	case <-mp.exited:
		return false
	default:
		return true
	}
}

func (mp *mixerProc) kill() {
	_ = mp.cmd.Process.Signal(os.Interrupt)
	select {
	case <-mp.exited:
	case <-time.After(killGrace):
		_ = mp.cmd.Process.Kill()
		<-mp.exited
	}
}
