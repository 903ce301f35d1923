// Package mqtt mirrors pedal activity to an MQTT broker: gesture events,
// the display contents and lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/mode"
)

// Topics.
const (
	TopicEvents  = "midi-pedal/events"
	TopicDisplay = "midi-pedal/display"
	TopicSystem  = "midi-pedal/system"
)

// Publisher publishes pedal telemetry.
type Publisher interface {
	// Publish sends a gesture event. Errors should be logged, not fatal.
	Publish(event Event) error

	// PublishDisplay sends what the display is showing. Retained.
	PublishDisplay(d Display) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a gesture with the pedal context it happened in.
type Event struct {
	Timestamp time.Time
	Gesture   gesture.ButtonEvent
	Mode      mode.Mode
	Channel   int
	Connected bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Display is a snapshot of the two display lines.
type Display struct {
	Timestamp time.Time
	Lines     [2]string
	// Transient is set when the lines are a flashed message.
	Transient bool
}

// Payload is the MQTT message payload for gesture events.
type Payload struct {
	Pedal PedalPayload `json:"pedal"`
}

// PedalPayload contains the event details.
type PedalPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Switch    int    `json:"switch"`
	Mode      string `json:"mode"`
	Channel   int    `json:"channel"`
	Connected bool   `json:"connected"`
}

// FormatPayload creates the JSON payload for a gesture event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Pedal: PedalPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Gesture.Type.String(),
			Switch:    event.Gesture.Switch,
			Mode:      event.Mode.String(),
			Channel:   event.Channel,
			Connected: event.Connected,
		},
	}
	return json.Marshal(payload)
}

// DisplayPayload is the MQTT message payload for the display mirror.
type DisplayPayload struct {
	Display DisplayPayloadInner `json:"display"`
}

// DisplayPayloadInner contains the display lines.
type DisplayPayloadInner struct {
	Timestamp string   `json:"timestamp"`
	Lines     []string `json:"lines"`
	Transient bool     `json:"transient,omitempty"`
}

// FormatDisplayPayload creates the JSON payload for the display mirror.
func FormatDisplayPayload(d Display) ([]byte, error) {
	return json.Marshal(DisplayPayload{
		Display: DisplayPayloadInner{
			Timestamp: d.Timestamp.UTC().Format(time.RFC3339),
			Lines:     []string{d.Lines[0], d.Lines[1]},
			Transient: d.Transient,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is published by the broker if the pedal drops off.
func WillPayload(now time.Time) []byte {
	b, _ := FormatSystemPayload(SystemEvent{Timestamp: now, Event: "OFFLINE", Reason: "connection lost"})
	return b
}
