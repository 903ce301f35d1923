package gesture

import "time"

// Engine debounces all switches and detects gestures.
type Engine struct {
	cfg         Config
	switches    [NumSwitches]SwitchState
	eventCounts EventCounts
}

// NewEngine creates an engine with every switch released.
// A switch that is already held when sampling starts produces a Press
// once its level has been stable for the debounce duration.
func NewEngine(cfg Config, now time.Time) *Engine {
	e := &Engine{cfg: cfg}
	for i := range e.switches {
		e.switches[i] = SwitchState{Index: i + 1, LastTransition: now}
	}
	return e
}

// Update takes one sample of all switch levels (true = pressed) and returns
// exactly one event, which is EventNone when nothing happened.
//
// Switches are scanned in order 1..6 and the scan stops at the first switch
// that produces an event; later switches are left untouched until the next
// tick, so a simultaneous edge on a higher-numbered switch is reported one
// tick late.
func (e *Engine) Update(levels [NumSwitches]bool, now time.Time) ButtonEvent {
	for i := range e.switches {
		t := e.processSwitch(&e.switches[i], levels[i], now)
		if t == EventNone {
			continue
		}
		if t == EventPress || t == EventLongPress {
			t = e.chord(t, i+1, now)
		}
		if t == EventNone {
			continue
		}
		e.count(t)
		return ButtonEvent{Type: t, Switch: i + 1, Timestamp: now}
	}
	return ButtonEvent{Type: EventNone, Timestamp: now}
}

// processSwitch handles debounce and long-press timing for a single switch.
func (e *Engine) processSwitch(sw *SwitchState, level bool, now time.Time) EventType {
	if level != sw.Raw {
		// Level moved, restart the stability window
		sw.Raw = level
		sw.LastTransition = now
		return EventNone
	}

	if now.Sub(sw.LastTransition) < e.cfg.Debounce {
		return EventNone
	}

	if sw.Debounced != sw.Raw {
		sw.Debounced = sw.Raw
		if sw.Debounced {
			sw.PressStart = now
			sw.LongPressFired = false
			return EventPress
		}
		fired := sw.LongPressFired
		sw.PressStart = time.Time{}
		sw.LongPressFired = false
		if fired {
			// The long press consumed this gesture
			return EventNone
		}
		return EventRelease
	}

	if sw.Debounced && !sw.LongPressFired && now.Sub(sw.PressStart) >= e.cfg.LongPress {
		sw.LongPressFired = true
		return EventLongPress
	}

	return EventNone
}

// chord replaces an individual press or long press with a chord event when
// one of the chord conditions holds on the live switch flags. A long press
// on 5 or 6 while the other one is down is swallowed: it is the first half
// of a factory reset, not a channel change.
func (e *Engine) chord(t EventType, sw int, now time.Time) EventType {
	switch {
	case e.IsLongPressed(5, now) && e.IsLongPressed(6, now):
		return EventComboFactoryReset
	case e.IsPressed(1) && e.IsPressed(2):
		return EventComboPairing
	case e.IsPressed(3) && e.IsPressed(4):
		return EventComboBattery
	case t == EventLongPress && (sw == 5 && e.IsPressed(6) || sw == 6 && e.IsPressed(5)):
		return EventNone
	}
	return t
}

func (e *Engine) count(t EventType) {
	switch t {
	case EventPress:
		e.eventCounts.Press++
	case EventRelease:
		e.eventCounts.Release++
	case EventLongPress:
		e.eventCounts.LongPress++
	case EventComboPairing:
		e.eventCounts.Pairing++
	case EventComboBattery:
		e.eventCounts.Battery++
	case EventComboFactoryReset:
		e.eventCounts.FactoryReset++
	}
}

// IsPressed reports whether the 1-based switch is currently (debounced) pressed.
func (e *Engine) IsPressed(sw int) bool {
	if sw < 1 || sw > NumSwitches {
		return false
	}
	return e.switches[sw-1].Debounced
}

// IsLongPressed reports whether the 1-based switch has been held for at least
// the long-press duration.
func (e *Engine) IsLongPressed(sw int, now time.Time) bool {
	if !e.IsPressed(sw) {
		return false
	}
	return now.Sub(e.switches[sw-1].PressStart) >= e.cfg.LongPress
}

// States returns a copy of all switch states.
func (e *Engine) States() [NumSwitches]SwitchState {
	return e.switches
}

// EventCountsSnapshot returns the gesture counts since startup.
func (e *Engine) EventCountsSnapshot() EventCounts {
	return e.eventCounts
}
