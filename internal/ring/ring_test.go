package ring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// With capacity 8, writing 7 fills the buffer (one slot stays reserved
// because tail==0), an eighth write has no room, and a 4-sample read
// lets subsequent writes wrap around the end.
func TestWrapAndBlock(t *testing.T) {
	b := New(8)

	n := b.Write([]float32{1, 2, 3, 4, 5, 6, 7}, false)
	require.Equal(t, 7, n)
	assert.EqualValues(t, 7, b.loadHead())
	assert.EqualValues(t, 0, b.loadTail())
	assert.EqualValues(t, 0, b.spaceLeft(b.loadHead(), b.loadTail()))

	// A non-blocking eighth write must write nothing: no space.
	n = b.Write([]float32{8}, false)
	assert.Equal(t, 0, n)

	out := make([]float32, 4)
	got := b.Read(out)
	require.Equal(t, 4, got)
	assert.Equal(t, []float32{1, 2, 3, 4}, out)
	assert.EqualValues(t, 4, b.loadTail())

	n = b.Write([]float32{8, 9, 10, 11}, false)
	require.Equal(t, 4, n)

	out2 := make([]float32, 8)
	total := 0
	for total < 7 {
		got := b.Read(out2[total:])
		if got == 0 {
			break
		}
		total += got
	}
	assert.Equal(t, []float32{5, 6, 7, 8, 9, 10, 11}, out2[:7])
}

func TestWrite_BlocksUntilSpaceThenSucceeds(t *testing.T) {
	b := New(4)
	n := b.Write([]float32{1, 2, 3}, false)
	require.Equal(t, 3, n)

	done := make(chan int, 1)
	go func() {
		done <- b.Write([]float32{4}, true)
	}()

	select {
	case <-done:
		t.Fatal("write should have blocked with no space")
	case <-time.After(5 * time.Millisecond):
	}

	out := make([]float32, 1)
	b.Read(out)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("blocked write never completed after space freed")
	}
}

// The sequence read must equal the prefix of the sequence written, with
// no reordering, across arbitrary interleavings of writes and reads
// smaller than capacity.
func TestFIFOOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(2, 32).Draw(rt, "capacity")
		b := New(capacity)

		var written, read []float32
		nextVal := float32(0)

		steps := rapid.IntRange(1, 50).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "doWrite") {
				chunk := rapid.IntRange(1, capacity).Draw(rt, "chunkLen")
				samples := make([]float32, chunk)
				for j := range samples {
					samples[j] = nextVal
					nextVal++
				}
				n := b.Write(samples, false)
				written = append(written, samples[:n]...)
			} else {
				out := make([]float32, rapid.IntRange(1, capacity).Draw(rt, "readLen"))
				n := b.Read(out)
				read = append(read, out[:n]...)
			}
		}

		require.LessOrEqual(t, len(read), len(written))
		assert.Equal(t, written[:len(read)], read)
	})
}

// Write never advances head past a point that would overwrite a sample
// the consumer has not yet read, and both indices stay in range.
func TestNoOverwrite(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(2, 16).Draw(rt, "capacity")
		b := New(capacity)

		for i := 0; i < 200; i++ {
			if rapid.Bool().Draw(rt, "doWrite") {
				chunk := rapid.IntRange(1, capacity).Draw(rt, "chunkLen")
				samples := make([]float32, chunk)
				b.Write(samples, false)
			} else {
				out := make([]float32, rapid.IntRange(1, capacity).Draw(rt, "readLen"))
				b.Read(out)
			}

			head, tail := b.loadHead(), b.loadTail()
			require.GreaterOrEqual(t, head, int64(0))
			require.Less(t, head, int64(capacity))
			require.GreaterOrEqual(t, tail, int64(0))
			require.Less(t, tail, int64(capacity))
		}
	})
}
