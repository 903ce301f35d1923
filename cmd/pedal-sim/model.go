package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/ble"
	"github.com/sweeney/midi-pedal/internal/display"
	"github.com/sweeney/midi-pedal/internal/gesture"
	"github.com/sweeney/midi-pedal/internal/hw"
	"github.com/sweeney/midi-pedal/internal/mode"
	"github.com/sweeney/midi-pedal/internal/pedal"
	"github.com/sweeney/midi-pedal/internal/store"
)

const (
	tickInterval = 10 * time.Millisecond
	voltStep     = 0.05
	packetLog    = 8
)

var (
	lcdStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4a7")).
			Foreground(lipgloss.Color("#cfe")).
			Background(lipgloss.Color("#123")).
			Padding(0, 1)
	downStyle   = lipgloss.NewStyle().Reverse(true).Bold(true)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(10)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e55")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
)

type tickMsg time.Time

// model is the bubbletea model. The device and its fakes are rebuilt when
// the firmware sleeps or restarts, the same way the process is re-executed
// on hardware; the settings store survives.
type model struct {
	cfg   pedal.Config
	clock func() time.Time

	latched   hw.Sample
	volts     float64
	connected bool

	store     *store.Memory
	reader    *hw.FakeReader
	transport *ble.Fake
	power     *hw.FakePower
	device    *pedal.Device

	boots   int
	sent    int
	packets []string
}

func newModel(cfg pedal.Config, volts float64, clock func() time.Time) *model {
	m := &model{
		cfg:   cfg,
		clock: clock,
		volts: volts,
		store: store.NewMemory(store.Defaults()),
	}
	m.boot()
	return m
}

// boot builds a fresh device, like a cold start.
func (m *model) boot() {
	m.boots++
	m.reader = hw.NewFakeReader([]hw.Sample{m.latched}, battery.RawFor(m.volts, m.cfg.Battery))
	m.transport = &ble.Fake{}
	m.power = &hw.FakePower{}
	m.connected = false
	m.sent = 0
	m.device = pedal.New(m.cfg, pedal.Deps{
		Switches:  m.reader,
		Sampler:   m.reader,
		Store:     m.store,
		Transport: m.transport,
		Power:     m.power,
		Clock:     m.clock,
	}, m.clock())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "2", "3", "4", "5", "6":
			i := int(key[0] - '1')
			m.latched[i] = !m.latched[i]
			m.reader.Samples = []hw.Sample{m.latched}
			m.reader.Reset()
			m.wakeIfAsleep()

		case "c":
			m.connected = !m.connected
			m.transport.SetConnected(m.connected)

		case "+", "=":
			m.setVolts(m.volts + voltStep)

		case "-", "_":
			m.setVolts(m.volts - voltStep)

		case "0":
			m.latched = hw.Sample{}
			m.reader.Samples = []hw.Sample{m.latched}
			m.reader.Reset()
		}
		return m, nil

	case tickMsg:
		m.step(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

// step advances the firmware one tick and collects what it sent.
func (m *model) step(now time.Time) {
	m.device.Tick(now)

	sent := m.transport.Sent()
	for _, pkt := range sent[m.sent:] {
		m.packets = append(m.packets, fmt.Sprintf("% X", pkt))
	}
	if over := len(m.packets) - packetLog; over > 0 {
		m.packets = m.packets[over:]
	}
	m.sent = len(sent)

	if _, restarts := m.power.Counts(); restarts > 0 {
		m.boot()
	}
}

// wakeIfAsleep reboots a sleeping device on any switch activity.
func (m *model) wakeIfAsleep() {
	if sleeps, _ := m.power.Counts(); sleeps > 0 {
		m.boot()
	}
}

func (m *model) setVolts(v float64) {
	m.volts = min(max(v, m.cfg.Battery.VMin), m.cfg.Battery.VMax)
	m.reader.Raw = []int{battery.RawFor(m.volts, m.cfg.Battery)}
	m.reader.Reset()
}

func (m *model) View() string {
	var b strings.Builder

	lines := display.Lines(m.device.Display().Frame())
	if text, ok := m.device.Display().Message(); ok {
		lines = display.MessageLines(text)
	}
	b.WriteString(lcdStyle.Render(lines[0] + "\n" + lines[1]))
	b.WriteString("\n\n")

	for sw := 1; sw <= gesture.NumSwitches; sw++ {
		label := fmt.Sprintf(" %d ", sw)
		if m.device.Pressed(sw) {
			b.WriteString(downStyle.Render(label))
		} else {
			b.WriteString(upStyle.Render(label))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	s := m.device.State()
	b.WriteString(labelStyle.Render("Mode") + modeLabel(s.Mode) + "\n")
	b.WriteString(labelStyle.Render("Channel") + activeStyle.Render(fmt.Sprintf("%d", s.Channel)) + "\n")
	b.WriteString(labelStyle.Render("Central") + fmt.Sprintf("%v", m.connected) + "\n")
	bat := fmt.Sprintf("%.2fV %d%%", s.Battery.Voltage, s.Battery.Percent)
	if s.Battery.Low {
		bat = warnStyle.Render(bat)
	}
	b.WriteString(labelStyle.Render("Battery") + bat + "\n")
	b.WriteString(labelStyle.Render("Boots") + fmt.Sprintf("%d", m.boots) + "\n\n")

	b.WriteString(labelStyle.Render("Packets") + "\n")
	for _, p := range m.packets {
		b.WriteString("  " + p + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("1-6 latch switch  0 release all  c connect  +/- battery  q quit") + "\n")
	return b.String()
}

func modeLabel(md mode.Mode) string {
	if md == mode.Sleep {
		return dimStyle.Render(md.String())
	}
	return activeStyle.Render(md.String())
}
