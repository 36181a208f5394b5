package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	b := NewBus()
	ch1, id1 := b.Subscribe(4)
	ch2, _ := b.Subscribe(4)
	require.Equal(t, 2, b.Count())

	b.Publish(Event{Type: ScanWindowStart, WindowID: "w1"})

	e1 := <-ch1
	e2 := <-ch2
	assert.Equal(t, "w1", e1.WindowID)
	assert.Equal(t, "w1", e2.WindowID)

	b.Unsubscribe(id1)
	assert.Equal(t, 1, b.Count())
	_, ok := <-ch1
	assert.False(t, ok)
}

func TestBus_DropsOnFullInboxWithoutBlocking(t *testing.T) {
	b := NewBus()
	ch, _ := b.Subscribe(1)

	b.Publish(Event{Type: ChannelStatus, ChannelID: "a"})
	b.Publish(Event{Type: ChannelStatus, ChannelID: "b"})

	got := <-ch
	assert.Equal(t, "a", got.ChannelID)
	select {
	case <-ch:
		t.Fatal("expected second event to have been dropped")
	default:
	}
}
