// Package status provides a thread-safe status tracker for the pedal.
// It is written by the tick loop and read by HTTP handlers and the
// heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/mode"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	DebounceMs     int64
	LongPressMs    int64
	SleepTimeoutMs int64
	HeartbeatMs    int64
	ChargePolicy   string
	DeviceName     string
	Broker         string
	HTTPPort       string
}

// MIDICounts counts encoder outcomes.
type MIDICounts struct {
	Sent    int
	Dropped int
}

// Snapshot is a point-in-time view of pedal state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode          mode.Mode
	Channel       int
	Connected     bool
	Battery       battery.State
	Counts        gesture.EventCounts
	MIDI          MIDICounts
	Display       [2]string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable pedal state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Channel:   1,
		},
	}
}

// Update copies the controller state and counters.
// Called from the tick loop on every tick.
func (t *Tracker) Update(state mode.SystemState, counts gesture.EventCounts, midi MIDICounts) {
	t.mu.Lock()
	t.snap.Mode = state.Mode
	t.snap.Channel = state.Channel
	t.snap.Connected = state.Connected
	t.snap.Battery = state.Battery
	t.snap.Counts = counts
	t.snap.MIDI = midi
	t.mu.Unlock()
}

// SetDisplay records what the display is showing.
func (t *Tracker) SetDisplay(lines [2]string) {
	t.mu.Lock()
	t.snap.Display = lines
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the pedal state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
