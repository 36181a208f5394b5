package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/planner"
)

// Two receivers, three never-scanned windows, tie-broken by slice
// order, then re-picked least-recently-scanned as each receiver idles.
func TestLedgerPicksLeastRecentlyScanned(t *testing.T) {
	w1 := &planner.Window{ID: "W1"}
	w2 := &planner.Window{ID: "W2"}
	w3 := &planner.Window{ID: "W3"}
	windows := []*planner.Window{w1, w2, w3}

	ledger := NewLedger()
	running := map[string]bool{}

	pickA := ledger.PickNext(windows, running)
	require.Equal(t, "W1", pickA.ID)
	running["W1"] = true

	pickB := ledger.PickNext(windows, running)
	require.Equal(t, "W2", pickB.ID)
	running["W2"] = true

	ledger.MarkScanned("W1", time.Unix(1, 0))
	delete(running, "W1")

	pickA2 := ledger.PickNext(windows, running)
	require.Equal(t, "W3", pickA2.ID)
	running["W3"] = true

	ledger.MarkScanned("W2", time.Unix(2, 0))
	delete(running, "W2")

	pickB2 := ledger.PickNext(windows, running)
	require.Equal(t, "W1", pickB2.ID)
}

// Soloing C2 broadcasts true for C2 and false for every other channel;
// unsoloing it again (no remaining solos) broadcasts the tri-state
// inactive value to every channel, including ones that were never solo.
func TestSoloBroadcast(t *testing.T) {
	c1 := &config.Channel{ID: "C1"}
	c2 := &config.Channel{ID: "C2"}
	c3 := &config.Channel{ID: "C3"}
	channels := []*config.Channel{c1, c2, c3}

	updates := ApplySolo(channels, "C2", true)
	require.Len(t, updates, 3)
	for _, u := range updates {
		if u.ChannelID == "C2" {
			require.Equal(t, config.SoloOn, u.Solo)
		} else {
			require.Equal(t, config.SoloOff, u.Solo)
		}
	}

	anyOn := AnySoloActive(channels)
	require.True(t, anyOn)
	require.False(t, EffectiveMute(c2, anyOn))
	require.True(t, EffectiveMute(c1, anyOn))
	require.True(t, EffectiveMute(c3, anyOn))

	updates2 := ApplySolo(channels, "C2", false)
	require.Len(t, updates2, 3)
	for _, u := range updates2 {
		require.Equal(t, config.SoloInactive, u.Solo)
	}

	anyOn2 := AnySoloActive(channels)
	require.False(t, anyOn2)
	require.Equal(t, c1.Flags.Muted, EffectiveMute(c1, anyOn2))
	require.Equal(t, c2.Flags.Muted, EffectiveMute(c2, anyOn2))
}
