package mode

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/midi"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type memStore struct {
	channel  int
	name     string
	paired   bool
	cleared  int
	writeErr error
}

func (s *memStore) Channel() int { return s.channel }
func (s *memStore) SetChannel(ch int) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.channel = ch
	return nil
}
func (s *memStore) DeviceName() string { return s.name }
func (s *memStore) SetDeviceName(n string) error {
	s.name = n
	return nil
}
func (s *memStore) Paired() bool { return s.paired }
func (s *memStore) SetPaired(p bool) error {
	s.paired = p
	return nil
}
func (s *memStore) Clear() error {
	s.cleared++
	s.channel, s.paired = 1, false
	return nil
}

type recDisplay struct {
	frames   []Frame
	messages []string
}

func (d *recDisplay) Render(f Frame) { d.frames = append(d.frames, f) }
func (d *recDisplay) Flash(text string, _ time.Time) { d.messages = append(d.messages, text) }
func (d *recDisplay) Tick(time.Time) {}
func (d *recDisplay) last() Frame { return d.frames[len(d.frames)-1] }
func (d *recDisplay) reset() { d.frames, d.messages = nil, nil }
func (d *recDisplay) rendered(m Mode) (n int) {
	for _, f := range d.frames {
		if f.Mode == m {
			n++
		}
	}
	return n
}

type fakeTransport struct {
	connected   bool
	advertised  int
	disconnects int
}

func (t *fakeTransport) IsConnected() bool { return t.connected }
func (t *fakeTransport) StartAdvertising() error {
	t.advertised++
	return nil
}
func (t *fakeTransport) Disconnect() error {
	t.disconnects++
	t.connected = false
	return nil
}

type fakeMIDI struct {
	sent      []midi.Message
	connected bool
}

func (m *fakeMIDI) Send(msg midi.Message) bool {
	if !m.connected || !midi.ValidChannel(msg.Channel) {
		return false
	}
	m.sent = append(m.sent, msg)
	return true
}

type fakePower struct {
	sleeps, restarts int
}

func (p *fakePower) Sleep()   { p.sleeps++ }
func (p *fakePower) Restart() { p.restarts++ }

type rig struct {
	c         *Controller
	store     *memStore
	display   *recDisplay
	transport *fakeTransport
	midi      *fakeMIDI
	power     *fakePower
}

func newRig(t *testing.T, channel int) *rig {
	t.Helper()
	r := &rig{
		store:     &memStore{channel: channel},
		display:   &recDisplay{},
		transport: &fakeTransport{},
		midi:      &fakeMIDI{},
		power:     &fakePower{},
	}
	r.c = New(DefaultConfig(), Deps{
		Store:     r.store,
		Display:   r.display,
		Transport: r.transport,
		MIDI:      r.midi,
		Power:     r.power,
	}, nil, t0)
	return r
}

// connect simulates the transport reporting a connection.
func (r *rig) connect(now time.Time) {
	r.transport.connected = true
	r.midi.connected = true
	r.c.Flag().Set(true)
	r.c.Tick(now)
}

func (r *rig) disconnect(now time.Time) {
	r.transport.connected = false
	r.midi.connected = false
	r.c.Flag().Set(false)
	r.c.Tick(now)
}

func ev(t gesture.EventType, sw int) gesture.ButtonEvent {
	return gesture.ButtonEvent{Type: t, Switch: sw}
}

func TestNewStartsInPairing(t *testing.T) {
	r := newRig(t, 7)
	s := r.c.State()
	if s.Mode != Pairing || s.Channel != 7 || s.Connected {
		t.Fatalf("state = %+v", s)
	}
	if got := r.display.last(); got.Mode != Pairing || got.Channel != 7 {
		t.Errorf("initial frame = %+v", got)
	}
}

func TestNewInvalidStoredChannel(t *testing.T) {
	for _, ch := range []int{0, 17, -3} {
		r := newRig(t, ch)
		if got := r.c.State().Channel; got != 1 {
			t.Errorf("stored %d: channel = %d, want 1", ch, got)
		}
	}
}

func TestConnectFromPairing(t *testing.T) {
	r := newRig(t, 1)
	r.display.reset()
	r.connect(t0.Add(time.Second))

	if got := r.c.State().Mode; got != ChannelDisplay {
		t.Fatalf("mode = %s, want CHANNEL", got)
	}
	if n := r.display.rendered(ChannelDisplay); n != 1 {
		t.Errorf("channel renders = %d, want 1", n)
	}
	if !r.store.paired {
		t.Error("paired flag not persisted")
	}
}

func TestDuplicateConnectIgnored(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	r.display.reset()
	r.c.ConnectionChanged(true, t0.Add(2*time.Second))
	if len(r.display.frames) != 0 {
		t.Errorf("frames = %v, want none", r.display.frames)
	}
}

func TestDisconnectReturnsToPairing(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	r.disconnect(t0.Add(2 * time.Second))

	if got := r.c.State().Mode; got != Pairing {
		t.Fatalf("mode = %s, want PAIRING", got)
	}
	if r.transport.advertised != 1 {
		t.Errorf("advertised = %d, want 1", r.transport.advertised)
	}
}

func TestDisconnectDuringBatteryDisplay(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	r.c.HandleEvent(ev(gesture.EventComboBattery, 4), t0.Add(2*time.Second))
	r.disconnect(t0.Add(3 * time.Second))

	if got := r.c.State().Mode; got != Pairing {
		t.Fatalf("mode = %s, want PAIRING", got)
	}
	if r.transport.advertised != 1 {
		t.Errorf("advertised = %d, want 1", r.transport.advertised)
	}
}

func TestPressSendsCC(t *testing.T) {
	r := newRig(t, 3)
	r.connect(t0.Add(time.Second))

	r.c.HandleEvent(ev(gesture.EventPress, 2), t0.Add(2*time.Second))
	if len(r.midi.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(r.midi.sent))
	}
	want := midi.CC(3, 2, 127)
	if r.midi.sent[0] != want {
		t.Errorf("sent %v, want %v", r.midi.sent[0], want)
	}
	if len(r.display.messages) == 0 || !strings.HasPrefix(r.display.messages[len(r.display.messages)-1], "MIDI Sent") {
		t.Errorf("messages = %q", r.display.messages)
	}
}

func TestPressWhileDisconnected(t *testing.T) {
	r := newRig(t, 1)
	r.c.HandleEvent(ev(gesture.EventPress, 1), t0.Add(time.Second))
	if len(r.midi.sent) != 0 {
		t.Errorf("sent %v while disconnected", r.midi.sent)
	}
	if got := r.c.State().LastActivity; !got.Equal(t0.Add(time.Second)) {
		t.Errorf("LastActivity = %v, want press time", got)
	}
}

func TestReleaseDoesNothing(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	r.c.HandleEvent(ev(gesture.EventRelease, 1), t0.Add(2*time.Second))
	if len(r.midi.sent) != 0 {
		t.Errorf("release sent %v", r.midi.sent)
	}
}

func TestChannelWrap(t *testing.T) {
	tests := []struct {
		name  string
		start int
		sw    int
		want  int
	}{
		{"up", 5, 5, 6},
		{"up wraps", 16, 5, 1},
		{"down", 5, 6, 4},
		{"down wraps", 1, 6, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, tt.start)
			r.connect(t0.Add(time.Second))
			r.c.HandleEvent(ev(gesture.EventLongPress, tt.sw), t0.Add(2*time.Second))

			s := r.c.State()
			if s.Channel != tt.want {
				t.Errorf("channel = %d, want %d", s.Channel, tt.want)
			}
			if r.store.channel != tt.want {
				t.Errorf("stored channel = %d, want %d", r.store.channel, tt.want)
			}
			if s.Mode != ChannelDisplay {
				t.Errorf("mode = %s, channel change must not transition", s.Mode)
			}
		})
	}
}

func TestLongPressOtherSwitchesIgnored(t *testing.T) {
	r := newRig(t, 4)
	for sw := 1; sw <= 4; sw++ {
		r.c.HandleEvent(ev(gesture.EventLongPress, sw), t0.Add(time.Second))
	}
	if got := r.c.State().Channel; got != 4 {
		t.Errorf("channel = %d, want 4", got)
	}
}

func TestChannelStoreErrorKeepsValue(t *testing.T) {
	r := newRig(t, 2)
	r.store.writeErr = errors.New("disk full")
	r.c.HandleEvent(ev(gesture.EventLongPress, 5), t0.Add(time.Second))
	if got := r.c.State().Channel; got != 3 {
		t.Errorf("channel = %d, want 3", got)
	}
}

func TestBatteryDisplayExpires(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	at := t0.Add(2 * time.Second)
	r.c.HandleEvent(ev(gesture.EventComboBattery, 4), at)
	if got := r.c.State().Mode; got != BatteryDisplay {
		t.Fatalf("mode = %s, want BATTERY", got)
	}

	r.c.Tick(at.Add(2999 * time.Millisecond))
	if got := r.c.State().Mode; got != BatteryDisplay {
		t.Fatalf("mode = %s before expiry", got)
	}
	r.c.Tick(at.Add(3 * time.Second))
	if got := r.c.State().Mode; got != ChannelDisplay {
		t.Errorf("mode = %s after expiry, want CHANNEL", got)
	}
}

func TestBatteryDisplayFromPairing(t *testing.T) {
	r := newRig(t, 1)
	r.c.HandleEvent(ev(gesture.EventComboBattery, 4), t0.Add(time.Second))
	if got := r.c.State().Mode; got != BatteryDisplay {
		t.Fatalf("mode = %s, want BATTERY", got)
	}
	r.c.Tick(t0.Add(5 * time.Second))
	if got := r.c.State().Mode; got != Pairing {
		t.Errorf("mode = %s, want PAIRING", got)
	}
}

func TestBatteryDisplayConnectResumesChannel(t *testing.T) {
	r := newRig(t, 1)
	r.c.HandleEvent(ev(gesture.EventComboBattery, 4), t0.Add(time.Second))
	r.connect(t0.Add(2 * time.Second))
	if got := r.c.State().Mode; got != BatteryDisplay {
		t.Fatalf("mode = %s, want BATTERY until timer", got)
	}
	r.c.Tick(t0.Add(4 * time.Second))
	if got := r.c.State().Mode; got != ChannelDisplay {
		t.Errorf("mode = %s, want CHANNEL", got)
	}
}

func TestComboPairingForcesDisconnect(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	r.c.HandleEvent(ev(gesture.EventComboPairing, 2), t0.Add(2*time.Second))

	s := r.c.State()
	if s.Mode != Pairing || s.Connected {
		t.Fatalf("state = %+v", s)
	}
	if r.transport.disconnects != 1 || r.transport.advertised != 1 {
		t.Errorf("disconnects=%d advertised=%d, want 1/1", r.transport.disconnects, r.transport.advertised)
	}

	// The transport's own disconnect notification must not advertise again.
	r.disconnect(t0.Add(3 * time.Second))
	if r.transport.advertised != 1 {
		t.Errorf("advertised = %d after notification, want 1", r.transport.advertised)
	}
}

func TestComboPairingOnlyFromChannelDisplay(t *testing.T) {
	r := newRig(t, 1)
	r.c.HandleEvent(ev(gesture.EventComboPairing, 2), t0.Add(time.Second))
	if r.transport.disconnects != 0 || r.transport.advertised != 0 {
		t.Errorf("combo in pairing touched transport: %+v", r.transport)
	}
}

func TestFactoryReset(t *testing.T) {
	r := newRig(t, 9)
	r.connect(t0.Add(time.Second))
	at := t0.Add(2 * time.Second)
	r.c.HandleEvent(ev(gesture.EventComboFactoryReset, 6), at)

	if r.store.cleared != 1 {
		t.Errorf("cleared = %d, want 1", r.store.cleared)
	}
	if got := r.c.State().Channel; got != 1 {
		t.Errorf("channel = %d, want 1", got)
	}
	if !r.c.Resetting() {
		t.Fatal("not resetting")
	}

	r.c.Tick(at.Add(1999 * time.Millisecond))
	if r.power.restarts != 0 {
		t.Fatal("restarted before delay")
	}
	r.c.HandleEvent(ev(gesture.EventPress, 1), at.Add(time.Second))
	if len(r.midi.sent) != 0 {
		t.Error("accepted input while resetting")
	}
	r.c.Tick(at.Add(2 * time.Second))
	r.c.Tick(at.Add(3 * time.Second))
	if r.power.restarts != 1 {
		t.Errorf("restarts = %d, want 1", r.power.restarts)
	}
}

func TestSleepAfterIdle(t *testing.T) {
	r := newRig(t, 1)
	timeout := DefaultConfig().SleepTimeout

	r.c.Tick(t0.Add(timeout))
	if r.power.sleeps != 0 {
		t.Fatal("slept at exactly the timeout")
	}
	r.c.Tick(t0.Add(timeout + time.Millisecond))
	r.c.Tick(t0.Add(timeout + time.Second))
	if r.power.sleeps != 1 {
		t.Fatalf("sleeps = %d, want 1", r.power.sleeps)
	}
	if got := r.c.State().Mode; got != Sleep {
		t.Errorf("mode = %s, want SLEEP", got)
	}

	r.c.HandleEvent(ev(gesture.EventComboBattery, 4), t0.Add(timeout+2*time.Second))
	if got := r.c.State().Mode; got != Sleep {
		t.Errorf("left SLEEP on input: %s", got)
	}
}

func TestActivityDefersSleep(t *testing.T) {
	r := newRig(t, 1)
	timeout := DefaultConfig().SleepTimeout
	r.c.HandleEvent(ev(gesture.EventPress, 1), t0.Add(timeout/2))
	r.c.Tick(t0.Add(timeout + time.Second))
	if r.power.sleeps != 0 {
		t.Error("slept despite recent activity")
	}
}

func TestNoSleepWhileConnected(t *testing.T) {
	r := newRig(t, 1)
	r.connect(t0.Add(time.Second))
	timeout := DefaultConfig().SleepTimeout
	for at := t0; at.Before(t0.Add(3 * timeout)); at = at.Add(time.Minute) {
		r.c.Tick(at)
	}
	if r.power.sleeps != 0 {
		t.Error("slept while connected")
	}
}

func TestPairingBlink(t *testing.T) {
	r := newRig(t, 1)
	r.display.reset()

	r.c.Tick(t0.Add(499 * time.Millisecond))
	if len(r.display.frames) != 0 {
		t.Fatalf("blinked early: %v", r.display.frames)
	}
	r.c.Tick(t0.Add(500 * time.Millisecond))
	r.c.Tick(t0.Add(1000 * time.Millisecond))
	if len(r.display.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(r.display.frames))
	}
	if r.display.frames[0].BlinkOn || !r.display.frames[1].BlinkOn {
		t.Errorf("blink phases = %v, %v", r.display.frames[0].BlinkOn, r.display.frames[1].BlinkOn)
	}
}

func TestLowBatteryWarning(t *testing.T) {
	r := newRig(t, 1)
	r.c.UpdateBattery(battery.Reading{State: battery.State{Percent: 8, Low: true}, Warn: true}, t0.Add(time.Second))
	if len(r.display.messages) != 1 || !strings.Contains(r.display.messages[0], "LOW BATTERY") {
		t.Errorf("messages = %q", r.display.messages)
	}
	if got := r.display.last().BatteryPercent; got != 8 {
		t.Errorf("frame percent = %d, want 8", got)
	}

	r.display.reset()
	r.c.UpdateBattery(battery.Reading{State: battery.State{Percent: 8, Low: true}}, t0.Add(2*time.Second))
	if len(r.display.frames) != 0 || len(r.display.messages) != 0 {
		t.Errorf("unchanged reading redrew: %v %q", r.display.frames, r.display.messages)
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to Mode
		want     bool
	}{
		{Pairing, ChannelDisplay, true},
		{Pairing, BatteryDisplay, true},
		{ChannelDisplay, Pairing, true},
		{BatteryDisplay, ChannelDisplay, true},
		{ChannelDisplay, Sleep, true},
		{Sleep, Pairing, false},
		{Sleep, ChannelDisplay, false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.from, tt.to); got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConnFlag(t *testing.T) {
	var f ConnFlag
	if _, ok := f.Take(); ok {
		t.Fatal("empty flag reported a change")
	}
	f.Set(true)
	f.Set(false)
	connected, ok := f.Take()
	if !ok || connected {
		t.Errorf("Take = %v, %v; want false, true", connected, ok)
	}
	if _, ok := f.Take(); ok {
		t.Error("flag not cleared")
	}
}

func TestModeString(t *testing.T) {
	if Pairing.String() != "PAIRING" || Sleep.String() != "SLEEP" {
		t.Errorf("got %s %s", Pairing, Sleep)
	}
	if got := Mode(9).String(); got != "Mode(9)" {
		t.Errorf("got %q", got)
	}
}
