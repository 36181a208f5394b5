package dsp

import "github.com/kb9vy/sdrscan/internal/events"

// minimumScanTimeFor is 100ms for standard modes, 200ms for EAS modes
// to let the tone-analysis FFT fill.
func minimumScanTimeFor(isEAS bool) float64 {
	if isEAS {
		return 0.2
	}
	return 0.1
}

// resolveStatus ranks ForceActive > Active > Dwell > Hold > Idle.
func resolveStatus(forceActive, active, dwelling, hold bool) events.Status {
	switch {
	case forceActive:
		return events.StatusForceActive
	case active:
		return events.StatusActive
	case dwelling:
		return events.StatusDwell
	case hold:
		return events.StatusHold
	default:
		return events.StatusIdle
	}
}
