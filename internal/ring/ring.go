// Package ring implements a lock-free single-producer/single-consumer
// circular buffer of float32 audio samples. The head and tail indices
// live in the same backing region as the samples and are touched only
// through sync/atomic loads/stores — SPSC discipline has no contention,
// so there is no mutex and no compare-and-swap anywhere.
package ring

import (
	"sync/atomic"
	"time"
)

// pollInterval is the retry granularity of the blocking writer, the
// same 1ms cadence the receiver and mixer control loops run at.
const pollInterval = time.Millisecond

// Buffer is a capacity-C circular buffer of float32 samples. The zero
// value is not usable; construct with New or FromMemory. A Buffer must
// have exactly one writer and one reader for its lifetime.
type Buffer struct {
	data []float32
	head *int64 // next index the producer will write to
	tail *int64 // next index the consumer will read from
}

// New allocates a private (non-shared) buffer of the given capacity,
// for use within a single process — mainly tests and the in-memory
// rxdriver source.
func New(capacity int) *Buffer {
	var head, tail int64
	return &Buffer{
		data: make([]float32, capacity),
		head: &head,
		tail: &tail,
	}
}

// FromMemory wraps an existing backing region (typically a shared-memory
// mapping, see shm.go) as a ring buffer. headTail must point at two
// contiguous int64 cells: [head, tail]. Workers and the mixer attach to
// supervisor-created segments through this path.
func FromMemory(samples []float32, headTail []int64) *Buffer {
	if len(headTail) < 2 {
		panic("ring: headTail must have at least 2 cells")
	}
	return &Buffer{
		data: samples,
		head: &headTail[0],
		tail: &headTail[1],
	}
}

// Capacity returns the number of float32 slots in the buffer.
func (b *Buffer) Capacity() int { return len(b.data) }

func (b *Buffer) loadHead() int64 { return atomic.LoadInt64(b.head) }
func (b *Buffer) loadTail() int64 { return atomic.LoadInt64(b.tail) }
func (b *Buffer) storeHead(v int64) { atomic.StoreInt64(b.head, v) }
func (b *Buffer) storeTail(v int64) { atomic.StoreInt64(b.tail, v) }

// spaceLeft computes contiguous writable room before the wrap point.
// The tail==0 case reserves one extra slot so head never catches all
// the way up to tail (which would be indistinguishable from empty).
func (b *Buffer) spaceLeft(head, tail int64) int64 {
	c := int64(len(b.data))
	var space int64
	if head < tail {
		space = tail - head - 1
	} else {
		space = c - head
		if tail == 0 {
			space--
		}
	}
	if space < 0 {
		space = 0
	}
	return space
}

// Write copies as many leading items of samples as fit before either
// the buffer wraps or the producer would catch up to tail-minus-one,
// returning the count written. When blockOnFull is true and no room is
// available it retries every pollInterval until some room opens; when
// false it returns immediately, possibly with n < len(samples).
func (b *Buffer) Write(samples []float32, blockOnFull bool) int {
	written := 0
	for written < len(samples) {
		head := b.loadHead()
		tail := b.loadTail()
		space := b.spaceLeft(head, tail)

		if space == 0 {
			if blockOnFull {
				time.Sleep(pollInterval)
				continue
			}
			break
		}

		remaining := int64(len(samples) - written)
		n := space
		if n > remaining {
			n = remaining
		}

		copy(b.data[head:head+n], samples[written:written+int(n)])

		newHead := head + n
		if newHead == int64(len(b.data)) {
			newHead = 0
		}
		b.storeHead(newHead)

		written += int(n)
	}
	return written
}

// Read drains from tail up to either head or the physical end of the
// buffer, whichever comes first, into out, returning the count read. A
// full drain across a wrap boundary requires two calls.
func (b *Buffer) Read(out []float32) int {
	head := b.loadHead()
	tail := b.loadTail()

	var available int64
	if head >= tail {
		available = head - tail
	} else {
		available = int64(len(b.data)) - tail
	}

	n := available
	if n > int64(len(out)) {
		n = int64(len(out))
	}
	if n <= 0 {
		return 0
	}

	copy(out[:n], b.data[tail:tail+n])

	newTail := tail + n
	if newTail == int64(len(b.data)) {
		newTail = 0
	}
	b.storeTail(newTail)

	return int(n)
}
