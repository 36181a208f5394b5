// Package receiver implements the receiver worker: an isolated process
// owning one hardware source, scanning whichever window the supervisor
// assigns it. Control messages travel as a gob-encoded stream over the
// re-exec'd child's stdin/stdout.
package receiver

import (
	"encoding/gob"
	"io"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/events"
)

// ToReceiverType is the supervisor -> receiver command tag.
type ToReceiverType int

const (
	MsgConfig ToReceiverType = iota
	MsgScanWindow
	MsgChannelMute
	MsgChannelSolo
	MsgChannelHold
	MsgChannelForceActive
	MsgKill
)

// WindowSpec is one window the supervisor hands the receiver: enough to
// rebuild the window's DSP graph locally. Channels are copies, never
// pointers back into the supervisor's records.
type WindowSpec struct {
	ID           string
	HardwareFreq float64
	Bandwidth    float64
	Channels     []*config.Channel
}

// ToReceiver is one supervisor -> receiver control message.
type ToReceiver struct {
	Type ToReceiverType

	Windows []WindowSpec // MsgConfig

	WindowID string // MsgScanWindow

	ChannelID   string // channel-targeted commands
	Mute        bool
	Solo        *config.Solo
	Hold        bool
	ForceActive bool
}

// FromReceiverType is the receiver -> supervisor event tag.
type FromReceiverType int

const (
	MsgSampleRates FromReceiverType = iota
	MsgWindowDone
	MsgChannelStatus
	MsgProtocolError
)

// FromReceiver is one receiver -> supervisor event message.
type FromReceiver struct {
	Type FromReceiverType

	Rates []float64 // MsgSampleRates

	WindowID string // MsgWindowDone

	ChannelID    string // MsgChannelStatus
	Status       events.Status
	RSSIdBFS     *float64
	NoiseFloorDB *float64
	VolumeDBFS   *float64

	ErrText string // MsgProtocolError
}

// Codec wraps gob encoders/decoders over a control pipe pair.
type Codec struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

func NewCodec(w io.Writer, r io.Reader) *Codec {
	return &Codec{enc: gob.NewEncoder(w), dec: gob.NewDecoder(r)}
}

func (c *Codec) SendToReceiver(m ToReceiver) error   { return c.enc.Encode(m) }
func (c *Codec) RecvToReceiver() (ToReceiver, error) { var m ToReceiver; err := c.dec.Decode(&m); return m, err }

func (c *Codec) SendFromReceiver(m FromReceiver) error   { return c.enc.Encode(m) }
func (c *Codec) RecvFromReceiver() (FromReceiver, error) { var m FromReceiver; err := c.dec.Decode(&m); return m, err }
