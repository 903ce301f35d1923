package mode

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/midi"
)

// edges lists every permitted mode transition.
var edges = map[Mode][]Mode{
	Pairing:        {ChannelDisplay, BatteryDisplay, Sleep},
	ChannelDisplay: {Pairing, BatteryDisplay, Sleep},
	BatteryDisplay: {ChannelDisplay, Pairing, Sleep},
}

// Allowed reports whether from -> to is a valid transition.
func Allowed(from, to Mode) bool {
	for _, m := range edges[from] {
		if m == to {
			return true
		}
	}
	return false
}

// Controller is the device state machine. All methods must be called from
// the tick loop; the only cross-context input is the ConnFlag.
type Controller struct {
	cfg   Config
	deps  Deps
	flag  *ConnFlag
	state SystemState

	// resume is the mode to return to when the battery overlay expires.
	resume       Mode
	batteryUntil time.Time

	blinkOn   bool
	nextBlink time.Time

	resetting bool
	resetAt   time.Time
	restarted bool

	slept bool
}

// New creates a controller in Pairing mode with the stored channel.
func New(cfg Config, deps Deps, flag *ConnFlag, now time.Time) *Controller {
	if flag == nil {
		flag = &ConnFlag{}
	}
	ch := deps.Store.Channel()
	if !midi.ValidChannel(ch) {
		log.Printf("mode: stored channel %d invalid, using 1", ch)
		ch = 1
	}
	c := &Controller{
		cfg:  cfg,
		deps: deps,
		flag: flag,
		state: SystemState{
			Mode:         Pairing,
			Channel:      ch,
			LastActivity: now,
		},
		resume:    ChannelDisplay,
		blinkOn:   true,
		nextBlink: now.Add(cfg.BlinkInterval),
	}
	c.render()
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() SystemState {
	return c.state
}

// Flag returns the connection flag the transport writes to.
func (c *Controller) Flag() *ConnFlag {
	return c.flag
}

// Resetting reports whether a factory reset is pending or done.
func (c *Controller) Resetting() bool {
	return c.resetting
}

// halted is true once no further input is accepted.
func (c *Controller) halted() bool {
	return c.state.Mode == Sleep || c.resetting
}

// HandleEvent applies one gesture.
func (c *Controller) HandleEvent(ev gesture.ButtonEvent, now time.Time) {
	if ev.Type == gesture.EventNone || c.halted() {
		return
	}
	c.state.LastActivity = now

	switch ev.Type {
	case gesture.EventPress:
		c.press(ev.Switch, now)
	case gesture.EventLongPress:
		switch ev.Switch {
		case 5:
			c.setChannel(c.state.Channel+1, now)
		case 6:
			c.setChannel(c.state.Channel-1, now)
		}
	case gesture.EventComboPairing:
		c.forcePairing(now)
	case gesture.EventComboBattery:
		c.showBattery(now)
	case gesture.EventComboFactoryReset:
		c.factoryReset(now)
	}
}

func (c *Controller) press(sw int, now time.Time) {
	if sw < 1 || sw > gesture.NumSwitches || !c.state.Connected {
		return
	}
	cc := c.cfg.CCNumbers[sw-1]
	if c.deps.MIDI.Send(midi.CC(c.state.Channel, cc, c.cfg.PressValue)) {
		c.deps.Display.Flash(fmt.Sprintf("MIDI Sent:\nCC%d CH:%02d", cc, c.state.Channel), now)
	}
}

// setChannel wraps ch into 1..16 and persists it.
func (c *Controller) setChannel(ch int, now time.Time) {
	switch {
	case ch > 16:
		ch = 1
	case ch < 1:
		ch = 16
	}
	c.state.Channel = ch
	if err := c.deps.Store.SetChannel(ch); err != nil {
		log.Printf("mode: persist channel %d: %v", ch, err)
	}
	log.Printf("mode: channel %d", ch)
	c.render()
	c.deps.Display.Flash(fmt.Sprintf("Channel Changed:\nCH:%02d", ch), now)
}

func (c *Controller) forcePairing(now time.Time) {
	if c.state.Mode != ChannelDisplay {
		return
	}
	if err := c.deps.Transport.Disconnect(); err != nil {
		log.Printf("mode: disconnect: %v", err)
	}
	c.state.Connected = false
	c.enterPairing(now)
}

func (c *Controller) enterPairing(now time.Time) {
	if !c.setMode(Pairing, now) {
		return
	}
	if err := c.deps.Transport.StartAdvertising(); err != nil {
		log.Printf("mode: start advertising: %v", err)
	}
	c.render()
}

func (c *Controller) showBattery(now time.Time) {
	if c.state.Mode != BatteryDisplay {
		if !c.setMode(BatteryDisplay, now) {
			return
		}
	}
	c.batteryUntil = now.Add(c.cfg.BatteryDisplay)
	c.render()
}

func (c *Controller) factoryReset(now time.Time) {
	log.Printf("mode: factory reset")
	if err := c.deps.Store.Clear(); err != nil {
		log.Printf("mode: clear settings: %v", err)
	}
	c.state.Channel = 1
	c.resetting = true
	c.resetAt = now.Add(c.cfg.ResetDelay)
	c.deps.Display.Flash("FACTORY RESET\nRestarting...", now)
}

// ConnectionChanged applies a connection change. Repeated notifications of
// the same state are ignored.
func (c *Controller) ConnectionChanged(connected bool, now time.Time) {
	if c.halted() || connected == c.state.Connected {
		return
	}
	c.state.Connected = connected
	c.state.LastActivity = now

	if connected {
		log.Printf("mode: connected")
		if !c.deps.Store.Paired() {
			if err := c.deps.Store.SetPaired(true); err != nil {
				log.Printf("mode: persist paired flag: %v", err)
			}
		}
		if c.state.Mode == Pairing {
			c.setMode(ChannelDisplay, now)
		}
		if c.state.Mode == BatteryDisplay {
			c.resume = ChannelDisplay
		}
		c.render()
		return
	}

	log.Printf("mode: disconnected")
	switch c.state.Mode {
	case ChannelDisplay, BatteryDisplay:
		c.enterPairing(now)
	}
}

// UpdateBattery applies a battery reading.
func (c *Controller) UpdateBattery(r battery.Reading, now time.Time) {
	prev := c.state.Battery
	c.state.Battery = r.State
	if c.halted() {
		return
	}
	if r.Warn {
		c.deps.Display.Flash("!LOW BATTERY!\nPlease Charge", now)
	}
	if prev.Percent != r.State.Percent || prev.Charging != r.State.Charging {
		c.render()
	}
}

// Tick runs the timers. It consumes a pending connection change first.
func (c *Controller) Tick(now time.Time) {
	if c.state.Mode == Sleep {
		return
	}
	if c.resetting {
		if !c.restarted && !now.Before(c.resetAt) {
			c.restarted = true
			log.Printf("mode: restarting")
			c.deps.Power.Restart()
		}
		return
	}

	if connected, ok := c.flag.Take(); ok {
		c.ConnectionChanged(connected, now)
	}
	if c.state.Connected {
		c.state.LastActivity = now
	}

	if c.state.Mode == BatteryDisplay && !now.Before(c.batteryUntil) {
		to := c.resume
		if !c.state.Connected {
			to = Pairing
		}
		if c.setMode(to, now) {
			c.render()
		}
	}

	if c.state.Mode == Pairing && !now.Before(c.nextBlink) {
		c.blinkOn = !c.blinkOn
		c.nextBlink = now.Add(c.cfg.BlinkInterval)
		c.render()
	}

	if !c.state.Connected && now.Sub(c.state.LastActivity) > c.cfg.SleepTimeout {
		c.enterSleep(now)
		return
	}

	c.deps.Display.Tick(now)
}

func (c *Controller) enterSleep(now time.Time) {
	if c.slept || !c.setMode(Sleep, now) {
		return
	}
	c.slept = true
	log.Printf("mode: idle, sleeping")
	c.render()
	c.deps.Power.Sleep()
}

func (c *Controller) setMode(to Mode, now time.Time) bool {
	from := c.state.Mode
	if from == to {
		return true
	}
	if !Allowed(from, to) {
		log.Printf("mode: refusing transition %s -> %s", from, to)
		return false
	}
	if to == BatteryDisplay {
		c.resume = from
	}
	if to == Pairing {
		c.blinkOn = true
		c.nextBlink = now.Add(c.cfg.BlinkInterval)
	}
	log.Printf("mode: %s -> %s", from, to)
	c.state.Mode = to
	return true
}

func (c *Controller) render() {
	c.deps.Display.Render(Frame{
		Mode:           c.state.Mode,
		Channel:        c.state.Channel,
		BatteryPercent: c.state.Battery.Percent,
		Charging:       c.state.Battery.Charging,
		Connected:      c.state.Connected,
		BlinkOn:        c.blinkOn,
	})
}
