// Package logging builds the per-process structured logger. Every
// process role (supervisor, receiver, mixer) gets its own prefixed
// logger so multiplexed stderr stays attributable.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is an alias for charmbracelet/log's logger, so callers don't
// need to import that package directly just to name the type.
type Logger = log.Logger

// New returns a logger tagged with the owning process role
// ("supervisor", "receiver", "mixer", ...), so multiplexed stderr from
// re-exec'd child processes stays attributable.
func New(role string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          role,
	})
	if lvl := os.Getenv("SDRSCAN_LOG_LEVEL"); lvl != "" {
		if parsed, err := log.ParseLevel(lvl); err == nil {
			l.SetLevel(parsed)
		}
	}
	return l
}
