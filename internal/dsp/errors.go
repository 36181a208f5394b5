package dsp

import "fmt"

// RateError means no advertised rate satisfies a window's bandwidth, or
// no clean audio divisor exists. Fatal for the window being built.
type RateError struct {
	RequiredBandwidth float64
	Reason            string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rate: %s (required bandwidth %.0fHz)", e.Reason, e.RequiredBandwidth)
}
