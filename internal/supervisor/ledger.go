package supervisor

import (
	"time"

	"github.com/kb9vy/sdrscan/internal/planner"
)

// Ledger holds per-window last-scanned timestamps, driving the
// least-recently-scanned pick.
type Ledger struct {
	lastScanned map[string]time.Time
}

// NewLedger returns a ledger with every window implicitly never
// scanned.
func NewLedger() *Ledger {
	return &Ledger{lastScanned: make(map[string]time.Time)}
}

// PickNext returns the non-running window with the oldest last-scanned
// time, breaking ties by position in the slice. Returns nil if every
// window is running.
func (l *Ledger) PickNext(windows []*planner.Window, running map[string]bool) *planner.Window {
	var best *planner.Window
	var bestTime time.Time
	haveBest := false

	for _, w := range windows {
		if running[w.ID] {
			continue
		}
		t := l.lastScanned[w.ID] // zero value for never-scanned
		if !haveBest || t.Before(bestTime) {
			best = w
			bestTime = t
			haveBest = true
		}
	}
	return best
}

// MarkScanned records that window id completed a scan at now.
func (l *Ledger) MarkScanned(windowID string, now time.Time) {
	l.lastScanned[windowID] = now
}

// LastScanned reports when id last completed a scan, the zero time if
// it never has.
func (l *Ledger) LastScanned(windowID string) time.Time {
	return l.lastScanned[windowID]
}
