package controlws

import (
	"encoding/json"
	"fmt"

	"github.com/kb9vy/sdrscan/internal/events"
)

// Command payloads. Pointer fields distinguish "absent" from zero.

type enableData struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

type disableUntilData struct {
	ID           string `json:"id"`
	DisableUntil int64  `json:"disableUntil"` // unix seconds, 0 clears
}

type muteData struct {
	ID   string `json:"id"`
	Mute bool   `json:"mute"`
}

type soloData struct {
	ID   string `json:"id"`
	Solo *bool  `json:"solo"` // null means clear to inactive
}

type holdData struct {
	ID   string `json:"id"`
	Hold bool   `json:"hold"`
}

type forceActiveData struct {
	ID          string `json:"id"`
	ForceActive bool   `json:"forceActive"`
}

// decodeCommand parses one client message into a supervisor command.
func decodeCommand(raw []byte) (events.Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.Command{}, fmt.Errorf("parsing command envelope: %w", err)
	}

	switch env.Type {
	case "ChannelEnable":
		var d enableData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelEnable, ChannelID: d.ID, Enabled: d.Enabled}, nil
	case "ChannelDisableUntil":
		var d disableUntilData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelDisableUntil, ChannelID: d.ID, DisableUntilUnix: d.DisableUntil}, nil
	case "ChannelMute":
		var d muteData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelMute, ChannelID: d.ID, Mute: d.Mute}, nil
	case "ChannelSolo":
		var d soloData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelSolo, ChannelID: d.ID, Solo: d.Solo}, nil
	case "ChannelHold":
		var d holdData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelHold, ChannelID: d.ID, Hold: d.Hold}, nil
	case "ChannelForceActive":
		var d forceActiveData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return events.Command{}, err
		}
		return events.Command{Type: events.ChannelForceActive, ChannelID: d.ID, ForceActive: d.ForceActive}, nil
	default:
		return events.Command{}, fmt.Errorf("unknown command type %q", env.Type)
	}
}

// Event payloads.

type windowStartData struct {
	ID   string `json:"id"`
	RxID string `json:"rxId"`
}

type windowDoneData struct {
	ID string `json:"id"`
}

type channelStatusData struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	RSSI       *float64 `json:"rssi,omitempty"`
	NoiseFloor *float64 `json:"noiseFloor,omitempty"`
	Volume     *float64 `json:"volume,omitempty"`
}

type errorData struct {
	Error string `json:"error"`
}

// encodeEvent renders one bus event as a wire message.
func encodeEvent(ev events.Event) ([]byte, error) {
	var data any
	switch ev.Type {
	case events.ScanWindowStart:
		data = windowStartData{ID: ev.WindowID, RxID: ev.ReceiverID}
	case events.ScanWindowDone:
		data = windowDoneData{ID: ev.WindowID}
	case events.ChannelStatus:
		data = channelStatusData{
			ID:         ev.ChannelID,
			Status:     ev.Status.String(),
			RSSI:       ev.RSSIdBFS,
			NoiseFloor: ev.NoiseFloorDB,
			Volume:     ev.VolumeDBFS,
		}
	case events.ChannelConfig:
		data = ev.ChannelConfigPayload
	case events.ScanWindowConfigsChanged:
		data = struct{}{}
	case events.EventError:
		data = errorData{Error: ev.ErrText}
	default:
		return nil, fmt.Errorf("unknown event type %v", ev.Type)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: ev.Type.String(), Data: raw})
}
