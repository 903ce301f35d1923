// Package midi encodes MIDI channel messages into BLE-MIDI packets and
// hands them to the link. Delivery is fire-and-forget: a packet that
// cannot be sent right now is dropped, never queued or retried.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind is the channel message type.
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
	ControlChange
	ProgramChange
	PitchBend
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case PitchBend:
		return "PitchBend"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Message is a logical MIDI message. Channel is 1-based (1..16).
type Message struct {
	Kind    Kind
	Channel int
	Data1   uint8 // note, controller or program
	Data2   uint8 // velocity or value
	// Bend is the signed pitch bend (-8192..8191), PitchBend only.
	Bend int16
}

// CC builds a ControlChange message.
func CC(channel int, controller, value uint8) Message {
	return Message{Kind: ControlChange, Channel: channel, Data1: controller, Data2: value}
}

// Note builds a NoteOn (on=true) or NoteOff message.
func Note(on bool, channel int, key, velocity uint8) Message {
	k := NoteOff
	if on {
		k = NoteOn
	}
	return Message{Kind: k, Channel: channel, Data1: key, Data2: velocity}
}

// Program builds a ProgramChange message.
func Program(channel int, program uint8) Message {
	return Message{Kind: ProgramChange, Channel: channel, Data1: program}
}

// Bend builds a PitchBend message; 0 is centre.
func Bend(channel int, bend int16) Message {
	return Message{Kind: PitchBend, Channel: channel, Bend: bend}
}

// ValidChannel reports whether ch is a 1-based MIDI channel.
func ValidChannel(ch int) bool {
	return ch >= 1 && ch <= 16
}

// wire returns the status and data bytes for msg.
func (m Message) wire() (gomidi.Message, bool) {
	if !ValidChannel(m.Channel) {
		return nil, false
	}
	ch := uint8(m.Channel - 1)
	d1, d2 := m.Data1&0x7F, m.Data2&0x7F

	switch m.Kind {
	case NoteOn:
		return gomidi.NoteOn(ch, d1, d2), true
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, d1, d2), true
	case ControlChange:
		return gomidi.ControlChange(ch, d1, d2), true
	case ProgramChange:
		return gomidi.ProgramChange(ch, d1), true
	case PitchBend:
		return gomidi.Pitchbend(ch, clampBend(m.Bend)), true
	}
	return nil, false
}

func (m Message) String() string {
	w, ok := m.wire()
	if !ok {
		return fmt.Sprintf("%s(invalid channel %d)", m.Kind, m.Channel)
	}
	return w.String()
}

func clampBend(b int16) int16 {
	if b < -8192 {
		return -8192
	}
	if b > 8191 {
		return 8191
	}
	return b
}
