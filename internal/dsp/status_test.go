package dsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kb9vy/sdrscan/internal/events"
)

// After a transition to Idle, a channel cannot return to Dwell without
// first passing through Active. Drives Channel's status fields the same
// way ProcessSample would, across a rapid-generated activity sequence,
// and checks the status trace.
func TestStatusMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dwellSeconds := rapid.Float64Range(0.05, 1.0).Draw(rt, "dwellSeconds")
		c := &Channel{
			dwellSeconds: dwellSeconds,
			tl:           fmTailAdapter{newFMTail(5000, 8000)},
		}

		now := time.Time{}
		steps := rapid.IntRange(1, 60).Draw(rt, "steps")

		var trace []events.Status
		sawActiveSinceIdle := true // starts Idle-equivalent, no Dwell claim pending

		for i := 0; i < steps; i++ {
			active := rapid.Bool().Draw(rt, "active")
			dtMs := rapid.IntRange(1, int(dwellSeconds*1000)+50).Draw(rt, "dtMs")
			now = now.Add(time.Duration(dtMs) * time.Millisecond)

			c.currentlyActive = active
			if active {
				c.lastActiveTime = now
				c.everActive = true
			}

			status := c.GetStatus(now)
			trace = append(trace, status)

			if status == events.StatusActive {
				sawActiveSinceIdle = true
			}
			if status == events.StatusDwell {
				assert.True(t, sawActiveSinceIdle, "entered Dwell without a preceding Active")
			}
			if status == events.StatusIdle {
				sawActiveSinceIdle = false
			}
		}
	})
}
