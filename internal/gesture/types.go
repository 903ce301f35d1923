// Package gesture turns noisy footswitch levels into debounced press,
// release, long-press and chord events.
// This package has NO external dependencies (no GPIO, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package gesture

import (
	"fmt"
	"time"
)

// NumSwitches is the number of physical footswitches.
const NumSwitches = 6

// Default timings.
const (
	DefaultDebounce  = 50 * time.Millisecond
	DefaultLongPress = 1000 * time.Millisecond
)

// EventType identifies a gesture.
type EventType int

const (
	EventNone EventType = iota
	EventPress
	EventRelease
	EventLongPress
	EventComboPairing
	EventComboBattery
	EventComboFactoryReset
)

func (t EventType) String() string {
	switch t {
	case EventNone:
		return "NONE"
	case EventPress:
		return "PRESS"
	case EventRelease:
		return "RELEASE"
	case EventLongPress:
		return "LONG_PRESS"
	case EventComboPairing:
		return "COMBO_PAIRING"
	case EventComboBattery:
		return "COMBO_BATTERY"
	case EventComboFactoryReset:
		return "COMBO_FACTORY_RESET"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// IsCombo reports whether t is one of the chord events.
func (t EventType) IsCombo() bool {
	return t == EventComboPairing || t == EventComboBattery || t == EventComboFactoryReset
}

// ButtonEvent is the single gesture produced by one engine tick.
type ButtonEvent struct {
	Type EventType
	// Switch is the 1-based switch that produced the event, 0 for EventNone.
	Switch    int
	Timestamp time.Time
}

func (e ButtonEvent) String() string {
	if e.Type == EventNone {
		return "NONE"
	}
	return fmt.Sprintf("%s(sw%d)", e.Type, e.Switch)
}

// SwitchState tracks debounce and press timing for a single switch.
type SwitchState struct {
	// 1-based switch number
	Index int
	// Last sampled level (true = pressed)
	Raw bool
	// Current stable (debounced) level
	Debounced bool
	// Time the raw level last changed
	LastTransition time.Time
	// Time the debounced level last became pressed
	PressStart time.Time
	// Whether LongPress was already emitted for the current press
	LongPressFired bool
}

// Config holds the engine timings.
type Config struct {
	Debounce  time.Duration
	LongPress time.Duration
}

// DefaultConfig returns the standard 50ms debounce and 1s long press.
func DefaultConfig() Config {
	return Config{Debounce: DefaultDebounce, LongPress: DefaultLongPress}
}

// EventCounts tracks the number of each gesture since startup.
type EventCounts struct {
	Press        int
	Release      int
	LongPress    int
	Pairing      int
	Battery      int
	FactoryReset int
}
