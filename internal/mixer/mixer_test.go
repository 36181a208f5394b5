package mixer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/ring"
)

type recordingSink struct {
	frames [][]int16
}

func (s *recordingSink) Write(samples []int16) {
	cp := make([]int16, len(samples))
	copy(cp, samples)
	s.frames = append(s.frames, cp)
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) all() []int16 {
	var out []int16
	for _, f := range s.frames {
		out = append(out, f...)
	}
	return out
}

// Two inputs both near full scale sum past +/-1.0 and must clamp to
// +/-32767, never wrap into the opposite sign.
func TestMixClipsAndSaturatesRatherThanWrapping(t *testing.T) {
	r1 := ring.New(16)
	r2 := ring.New(16)
	r1.Write([]float32{0.9, -0.9}, false)
	r2.Write([]float32{0.9, -0.9}, false)

	sink := &recordingSink{}
	log := logging.New("mixer-test")
	m := New([]*ring.Buffer{r1, r2}, []Sink{sink}, 1000, log)

	m.startTime = time.Now().Add(-3 * time.Millisecond)
	m.tick()

	got := sink.all()
	require.NotEmpty(t, got)
	for _, v := range got {
		require.True(t, v == 32767 || v == -32767 || (v > -32767 && v < 32767))
	}
	require.Equal(t, int16(32767), got[0])
	require.Equal(t, int16(-32767), got[1])
}

func TestDeque_DropExcessKeepsNewestSamples(t *testing.T) {
	d := newDeque(BufferLen)
	for i := 0; i < BufferLen+500; i++ {
		d.PushBack(float32(i))
	}
	require.Equal(t, BufferLen, d.Len())

	dropped := d.DropExcess(BufferTargetLen)
	require.Equal(t, BufferLen-BufferTargetLen, dropped)
	require.Equal(t, BufferTargetLen, d.Len())

	v, ok := d.PopFront()
	require.True(t, ok)
	require.Equal(t, float32(6500), v)
}

func TestClampToInt16_SaturatesAtFullScale(t *testing.T) {
	require.Equal(t, int16(32767), clampToInt16(1.0))
	require.Equal(t, int16(-32767), clampToInt16(-1.0))
	require.Equal(t, int16(32767), clampToInt16(5.0))
	require.Equal(t, int16(-32767), clampToInt16(-5.0))
	require.Equal(t, int16(0), clampToInt16(0))
}
