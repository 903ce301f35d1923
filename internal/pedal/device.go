// Package pedal wires the gesture engine, battery monitor, mode controller,
// MIDI encoder and display into one device driven by a periodic tick.
package pedal

import (
	"log"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/ble"
	"github.com/sweeney/midi-pedal/internal/display"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/midi"
	"github.com/sweeney/midi-pedal/internal/mode"
	"github.com/sweeney/midi-pedal/internal/mqtt"
	"github.com/sweeney/midi-pedal/internal/status"
)

// SwitchReader reads the footswitch levels.
type SwitchReader interface {
	ReadSwitches() ([gesture.NumSwitches]bool, error)
}

// Config collects the per-component configuration.
type Config struct {
	Gesture    gesture.Config
	Battery    battery.Config
	Mode       mode.Config
	MessageTTL time.Duration
	// Heartbeat is the interval between HEARTBEAT events; 0 disables.
	Heartbeat time.Duration
	// Timestamps enables real BLE-MIDI timestamps.
	Timestamps bool
}

// DefaultConfig returns the default configuration of every component.
func DefaultConfig() Config {
	return Config{
		Gesture:    gesture.DefaultConfig(),
		Battery:    battery.DefaultConfig(),
		Mode:       mode.DefaultConfig(),
		MessageTTL: display.DefaultMessageTTL,
	}
}

// Deps are the collaborators. Publisher, MQTTStatus and Tracker are
// optional. Clock stamps MIDI packets and defaults to time.Now.
type Deps struct {
	Switches   SwitchReader
	Sampler    battery.Sampler
	Store      mode.ConfigStore
	Transport  ble.Transport
	Power      mode.Power
	Sinks      []display.Sink
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Clock      func() time.Time
}

// Device is the running pedal. All methods except the transport callback
// run on the tick goroutine.
type Device struct {
	cfg  Config
	deps Deps

	engine  *gesture.Engine
	monitor *battery.Monitor
	encoder *midi.Encoder
	overlay *display.Overlay
	ctrl    *mode.Controller

	lastHeartbeat time.Time
}

// New builds the device and starts advertising.
func New(cfg Config, deps Deps, now time.Time) *Device {
	d := &Device{cfg: cfg, deps: deps, lastHeartbeat: now}

	flag := &mode.ConnFlag{}
	deps.Transport.OnConnectionChanged(flag.Set)

	var opts []midi.Option
	if cfg.Timestamps {
		clock := deps.Clock
		if clock == nil {
			clock = time.Now
		}
		opts = append(opts, midi.WithTimestamps(clock))
	}
	d.encoder = midi.NewEncoder(deps.Transport, opts...)

	sinks := append([]display.Sink(nil), deps.Sinks...)
	if deps.Tracker != nil {
		sinks = append(sinks, trackerSink{deps.Tracker})
	}
	d.overlay = display.NewOverlay(cfg.MessageTTL, sinks...)

	d.engine = gesture.NewEngine(cfg.Gesture, now)
	d.monitor = battery.NewMonitor(cfg.Battery, deps.Sampler, now)
	d.ctrl = mode.New(cfg.Mode, mode.Deps{
		Store:     deps.Store,
		Display:   d.overlay,
		Transport: deps.Transport,
		MIDI:      d.encoder,
		Power:     deps.Power,
	}, flag, now)
	d.ctrl.UpdateBattery(battery.Reading{State: d.monitor.State()}, now)

	if deps.Transport.IsConnected() {
		flag.Set(true)
	} else if err := deps.Transport.StartAdvertising(); err != nil {
		log.Printf("pedal: start advertising: %v", err)
	}
	d.updateTracker()
	return d
}

// Tick runs one iteration: sample switches, dispatch the gesture, sample
// the battery, then run the controller timers.
func (d *Device) Tick(now time.Time) {
	levels, err := d.deps.Switches.ReadSwitches()
	if err != nil {
		log.Printf("pedal: read switches: %v", err)
	} else if ev := d.engine.Update(levels, now); ev.Type != gesture.EventNone {
		log.Printf("event: %s", ev)
		d.publish(ev, now)
		d.ctrl.HandleEvent(ev, now)
	}

	if r, ok := d.monitor.Tick(now); ok {
		d.ctrl.UpdateBattery(r, now)
	}

	d.ctrl.Tick(now)
	d.updateTracker()
	d.checkHeartbeat(now)
}

func (d *Device) publish(ev gesture.ButtonEvent, now time.Time) {
	if d.deps.Publisher == nil {
		return
	}
	s := d.ctrl.State()
	err := d.deps.Publisher.Publish(mqtt.Event{
		Timestamp: now,
		Gesture:   ev,
		Mode:      s.Mode,
		Channel:   s.Channel,
		Connected: s.Connected,
	})
	if err != nil {
		// Don't crash on publish failure
		log.Printf("publish error: %v", err)
	}
}

func (d *Device) updateTracker() {
	if d.deps.Tracker == nil {
		return
	}
	sent, dropped := d.encoder.Counts()
	d.deps.Tracker.Update(d.ctrl.State(), d.engine.EventCountsSnapshot(), status.MIDICounts{Sent: sent, Dropped: dropped})
	if d.deps.MQTTStatus != nil {
		d.deps.Tracker.SetMQTTConnected(d.deps.MQTTStatus.IsConnected())
	}
}

// checkHeartbeat publishes a HEARTBEAT with the status snapshot once the
// interval has elapsed since the last one (or startup).
func (d *Device) checkHeartbeat(now time.Time) {
	if d.cfg.Heartbeat <= 0 || d.deps.Publisher == nil {
		return
	}
	if now.Sub(d.lastHeartbeat) < d.cfg.Heartbeat {
		return
	}
	d.lastHeartbeat = now

	c := d.engine.EventCountsSnapshot()
	log.Printf("heartbeat: press=%d long=%d combos=%d/%d/%d",
		c.Press, c.LongPress, c.Pairing, c.Battery, c.FactoryReset)

	ev := mqtt.SystemEvent{Timestamp: now, Event: "HEARTBEAT"}
	if d.deps.Tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(d.deps.Tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := d.deps.Publisher.PublishSystem(ev); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// State returns the controller state.
func (d *Device) State() mode.SystemState {
	return d.ctrl.State()
}

// Display returns the overlay, for reading what is on screen.
func (d *Device) Display() *display.Overlay {
	return d.overlay
}

// Pressed reports the debounced level of switch sw (1-based).
func (d *Device) Pressed(sw int) bool {
	return d.engine.IsPressed(sw)
}

// Counts returns the gesture counts.
func (d *Device) Counts() gesture.EventCounts {
	return d.engine.EventCountsSnapshot()
}

// trackerSink records the display lines in the status tracker.
type trackerSink struct {
	t *status.Tracker
}

func (s trackerSink) Render(f mode.Frame) error {
	s.t.SetDisplay(display.Lines(f))
	return nil
}

func (s trackerSink) ShowMessage(text string) error {
	s.t.SetDisplay(display.MessageLines(text))
	return nil
}
