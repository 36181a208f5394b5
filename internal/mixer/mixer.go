// Package mixer is the audio aggregation server: an isolated process
// draining one ring per receiver, summing and pacing them against the
// wall clock, and fanning the int16 result out to pluggable sinks.
package mixer

import (
	"context"
	"math"
	"time"

	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/ring"
)

// BufferLen caps each per-ring deque; BufferTargetLen is the level the
// deque is trimmed back to when it runs ahead, bounding latency.
const (
	BufferLen       = 10_000
	BufferTargetLen = 4_000
)

const mixerTick = time.Millisecond

// Sink is a pluggable audio output.
type Sink interface {
	// Write delivers one tick's worth of int16 mono samples at the
	// mixer's audio rate. Implementations own their own reconnect
	// policy and must not block the mixer loop for long.
	Write(samples []int16)
	Close() error
}

// deque is a simple ring-backed FIFO of float32 samples, sized to
// BufferLen.
type deque struct {
	buf   []float32
	start int
	count int
}

func newDeque(capacity int) *deque {
	return &deque{buf: make([]float32, capacity)}
}

func (d *deque) PushBack(v float32) {
	idx := (d.start + d.count) % len(d.buf)
	d.buf[idx] = v
	if d.count < len(d.buf) {
		d.count++
	} else {
		d.start = (d.start + 1) % len(d.buf)
	}
}

func (d *deque) PopFront() (float32, bool) {
	if d.count == 0 {
		return 0, false
	}
	v := d.buf[d.start]
	d.start = (d.start + 1) % len(d.buf)
	d.count--
	return v, true
}

func (d *deque) Len() int { return d.count }

// DropExcess discards the oldest samples down to target length,
// returning the number dropped.
func (d *deque) DropExcess(target int) int {
	dropped := 0
	for d.count > target {
		d.PopFront()
		dropped++
	}
	return dropped
}

// Mixer owns one consumer ring per receiver and fans the summed result
// out to every configured sink.
type Mixer struct {
	rings     []*ring.Buffer
	deques    []*deque
	audioRate float64
	sinks     []Sink
	log       *logging.Logger

	startTime      time.Time
	samplesEmitted int64

	readScratch []float32
}

// New builds a mixer over one ring per receiver.
func New(rings []*ring.Buffer, sinks []Sink, audioRate float64, log *logging.Logger) *Mixer {
	m := &Mixer{
		rings:       rings,
		sinks:       sinks,
		audioRate:   audioRate,
		log:         log,
		readScratch: make([]float32, 4096),
	}
	for range rings {
		m.deques = append(m.deques, newDeque(BufferLen))
	}
	return m
}

// Run drains rings and emits mixed frames until ctx is canceled. On
// start it attempts to renice the process for lower scheduling latency;
// failure (not running as root) is ignored.
func (m *Mixer) Run(ctx context.Context) error {
	renice()

	m.startTime = time.Now()
	ticker := time.NewTicker(mixerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, s := range m.sinks {
				_ = s.Close()
			}
			return nil
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Mixer) tick() {
	for i, r := range m.rings {
		for {
			n := r.Read(m.readScratch)
			if n == 0 {
				break
			}
			for _, s := range m.readScratch[:n] {
				m.deques[i].PushBack(s)
			}
			if n < len(m.readScratch) {
				break
			}
		}
	}

	now := time.Now()
	targetEmitted := int64(math.Floor(now.Sub(m.startTime).Seconds() * m.audioRate))
	toEmit := targetEmitted - m.samplesEmitted
	if toEmit <= 0 {
		return
	}

	frame := make([]int16, 0, toEmit)
	for i := int64(0); i < toEmit; i++ {
		sum := float64(0)
		for _, dq := range m.deques {
			if v, ok := dq.PopFront(); ok {
				sum += float64(v)
			}
		}
		frame = append(frame, clampToInt16(sum))
	}
	m.samplesEmitted += toEmit

	for i, dq := range m.deques {
		if dropped := dq.DropExcess(BufferTargetLen); dropped > 0 {
			m.log.Warn("ring deque overrun, dropping oldest samples", "ring", i, "dropped", dropped)
		}
	}

	for _, s := range m.sinks {
		s.Write(frame)
	}
}

// clampToInt16 clamps x into [-1,1] then rounds to int16, saturating at
// +/-32767.
func clampToInt16(x float64) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	v := math.Round(x * 32767)
	if v > 32767 {
		v = 32767
	} else if v < -32767 {
		v = -32767
	}
	return int16(v)
}
