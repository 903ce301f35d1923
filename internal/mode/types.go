// Package mode owns the device state machine: it reacts to gestures,
// connection changes, battery readings and timers, and drives the
// display, settings store, MIDI link and power collaborators.
package mode

import (
	"fmt"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/midi"
)

// Mode is the top-level device mode.
type Mode int

const (
	Pairing Mode = iota
	ChannelDisplay
	BatteryDisplay
	Sleep
)

func (m Mode) String() string {
	switch m {
	case Pairing:
		return "PAIRING"
	case ChannelDisplay:
		return "CHANNEL"
	case BatteryDisplay:
		return "BATTERY"
	case Sleep:
		return "SLEEP"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SystemState is the single device state, owned by the Controller.
type SystemState struct {
	Mode         Mode
	Channel      int // 1..16
	Connected    bool
	Battery      battery.State
	LastActivity time.Time
}

// Frame is a steady-state render directive.
type Frame struct {
	Mode           Mode
	Channel        int
	BatteryPercent int
	Charging       bool
	Connected      bool
	// BlinkOn is the current phase of the pairing indicator.
	BlinkOn bool
}

// Config holds the controller timings and switch mapping.
type Config struct {
	SleepTimeout   time.Duration
	BatteryDisplay time.Duration
	BlinkInterval  time.Duration
	ResetDelay     time.Duration

	// CCNumbers maps switch 1..6 to its controller number.
	CCNumbers  [gesture.NumSwitches]uint8
	PressValue uint8
}

// DefaultConfig returns a 10 minute sleep timeout, 3s battery overlay and
// CC 1..6 on switches 1..6.
func DefaultConfig() Config {
	return Config{
		SleepTimeout:   10 * time.Minute,
		BatteryDisplay: 3 * time.Second,
		BlinkInterval:  500 * time.Millisecond,
		ResetDelay:     2 * time.Second,
		CCNumbers:      [gesture.NumSwitches]uint8{1, 2, 3, 4, 5, 6},
		PressValue:     127,
	}
}

// ConfigStore persists settings. Getters fall back to defaults; setters
// report write failures.
type ConfigStore interface {
	Channel() int
	SetChannel(ch int) error
	DeviceName() string
	SetDeviceName(name string) error
	Paired() bool
	SetPaired(paired bool) error
	Clear() error
}

// Display accepts fire-and-forget render directives.
type Display interface {
	// Render replaces the steady-state frame.
	Render(f Frame)
	// Flash shows a transient message over the steady-state frame.
	Flash(text string, now time.Time)
	// Tick expires transient messages.
	Tick(now time.Time)
}

// Transport is the part of the BLE link the controller drives directly.
type Transport interface {
	IsConnected() bool
	StartAdvertising() error
	Disconnect() error
}

// MidiSender sends a message if a peer is connected.
type MidiSender interface {
	Send(msg midi.Message) bool
}

// Power controls the device power state.
type Power interface {
	// Sleep powers down peripherals, arms wake-on-switch and halts.
	// Waking is a cold restart.
	Sleep()
	// Restart restarts the whole process.
	Restart()
}

// Deps bundles the collaborators.
type Deps struct {
	Store     ConfigStore
	Display   Display
	Transport Transport
	MIDI      MidiSender
	Power     Power
}
