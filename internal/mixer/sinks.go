package mixer

import (
	"fmt"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
)

// BuildSinks constructs one Sink per configured output.
func BuildSinks(outputs []*config.Output, audioRate float64, log *logging.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(outputs))
	for _, out := range outputs {
		switch out.Kind {
		case config.OutputLocal:
			s, err := newLocalSink(audioRate, log)
			if err != nil {
				return nil, fmt.Errorf("local sink: %w", err)
			}
			sinks = append(sinks, s)
		case config.OutputUDP:
			sinks = append(sinks, newUDPSink(*out, log))
		case config.OutputIcecast:
			sinks = append(sinks, newIcecastSink(*out, audioRate, log))
		case config.OutputWebSocket:
			sinks = append(sinks, newWebsocketSink(*out, audioRate, log))
		default:
			return nil, fmt.Errorf("unsupported output kind %v", out.Kind)
		}
	}
	return sinks, nil
}
