package supervisor

import "github.com/kb9vy/sdrscan/internal/config"

// SoloBroadcast is one outbound ChannelSolo command the supervisor
// forwards to every receiver after a solo change.
type SoloBroadcast struct {
	ChannelID string
	Solo      config.Solo
}

// ApplySolo makes at most one channel solo at a time. Setting solo=true
// on target makes it the sole soloed channel and clears every other
// channel's solo bit (even a previously-true one); the broadcast
// carries an explicit true/false for every channel. Clearing the last
// solo broadcasts the tri-state "inactive" value to every channel,
// including channels that were never solo. Operators reported the
// blanket inactive broadcast is what mixing consoles do, so it stays.
func ApplySolo(channels []*config.Channel, targetID string, desired bool) []SoloBroadcast {
	for _, c := range channels {
		if c.ID == targetID {
			if desired {
				c.Flags.Solo = config.SoloOn
			} else {
				c.Flags.Solo = config.SoloOff
			}
		}
	}

	anyOn := false
	for _, c := range channels {
		if c.ID == targetID && c.Flags.Solo == config.SoloOn {
			anyOn = true
			break
		}
	}

	out := make([]SoloBroadcast, 0, len(channels))
	if anyOn {
		for _, c := range channels {
			isTarget := c.ID == targetID
			if !isTarget {
				c.Flags.Solo = config.SoloOff
			}
			solo := config.SoloOff
			if isTarget {
				solo = config.SoloOn
			}
			out = append(out, SoloBroadcast{ChannelID: c.ID, Solo: solo})
		}
		return out
	}

	for _, c := range channels {
		c.Flags.Solo = config.SoloInactive
		out = append(out, SoloBroadcast{ChannelID: c.ID, Solo: config.SoloInactive})
	}
	return out
}

// EffectiveMute: if any channel is solo, every channel's effective mute
// is the negation of its own solo bit; otherwise effective mute is the
// channel's own mute bit.
func EffectiveMute(c *config.Channel, anySoloActive bool) bool {
	if anySoloActive {
		return c.Flags.Solo != config.SoloOn
	}
	return c.Flags.Muted
}

// AnySoloActive reports whether any channel in the set currently has
// solo=true.
func AnySoloActive(channels []*config.Channel) bool {
	for _, c := range channels {
		if c.Flags.Solo == config.SoloOn {
			return true
		}
	}
	return false
}
