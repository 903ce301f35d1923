package battery

import (
	"log"
	"math"
	"time"
)

// Monitor samples the battery on a fixed cadence and keeps a smoothed
// estimate. It is not safe for concurrent use; the tick loop owns it.
type Monitor struct {
	cfg     Config
	sampler Sampler
	charge  ChargeSensor // nil unless the pin policy is active
	policy  ChargePolicy

	buf        *SampleBuffer
	state      State
	lastSample time.Time

	warned      bool
	lastWarning time.Time

	// heuristic charge detection
	anchor      float64
	stableSince time.Time
}

// NewMonitor creates a monitor and primes the moving average with
// SampleCount readings so the buffer is full from the first tick.
func NewMonitor(cfg Config, sampler Sampler, now time.Time) *Monitor {
	m := &Monitor{
		cfg:        cfg,
		sampler:    sampler,
		buf:        NewSampleBuffer(cfg.VMax),
		lastSample: now,
	}

	cs, hasPin := sampler.(ChargeSensor)
	switch cfg.ChargePolicy {
	case ChargePin:
		if !hasPin {
			log.Printf("battery: charge pin policy requested but sampler has no charge pin, using heuristic")
			m.policy = ChargeHeuristic
		} else {
			m.policy = ChargePin
		}
	case ChargeHeuristic:
		m.policy = ChargeHeuristic
	default:
		if hasPin {
			m.policy = ChargePin
		} else {
			m.policy = ChargeHeuristic
		}
	}
	if m.policy == ChargePin {
		m.charge = cs
	}

	for i := 0; i < SampleCount; i++ {
		v, err := m.read()
		if err != nil {
			log.Printf("battery: prime sample %d: %v", i, err)
			continue
		}
		m.buf.Push(v)
	}

	m.state.Voltage = m.buf.Mean()
	m.anchor = m.state.Voltage
	m.stableSince = now
	m.refresh(now)
	return m
}

// Policy returns the charge detection policy in effect.
func (m *Monitor) Policy() ChargePolicy {
	return m.policy
}

// State returns the current estimate.
func (m *Monitor) State() State {
	return m.state
}

// Tick takes a sample if the sampling interval has elapsed.
// It returns false when no new sample was taken.
func (m *Monitor) Tick(now time.Time) (Reading, bool) {
	if now.Sub(m.lastSample) < m.cfg.Interval {
		return Reading{State: m.state}, false
	}
	m.lastSample = now

	v, err := m.read()
	if err != nil {
		log.Printf("battery: read voltage: %v", err)
		return Reading{State: m.state}, false
	}
	m.buf.Push(v)
	m.state.Voltage = m.buf.Mean()
	m.refresh(now)

	r := Reading{State: m.state}
	if m.state.Low && !m.state.Charging {
		if !m.warned || now.Sub(m.lastWarning) >= m.cfg.WarnInterval {
			m.warned = true
			m.lastWarning = now
			r.Warn = true
			log.Printf("battery: low battery warning: %.2fV (%d%%)", m.state.Voltage, m.state.Percent)
		}
	}
	return r, true
}

func (m *Monitor) read() (float64, error) {
	raw, err := m.sampler.ReadRawVoltage()
	if err != nil {
		return 0, err
	}
	return VoltageFromRaw(raw, m.cfg), nil
}

// refresh recomputes everything derived from the smoothed voltage.
func (m *Monitor) refresh(now time.Time) {
	v := m.state.Voltage
	m.state.Percent = Percent(v)
	m.state.Low = m.state.Percent <= m.cfg.LowPercent
	m.state.Critical = m.state.Percent <= m.cfg.CriticalPercent

	switch m.policy {
	case ChargePin:
		charging, err := m.charge.ReadChargingPin()
		if err != nil {
			log.Printf("battery: read charge pin: %v", err)
			return
		}
		m.state.Charging = charging
	default:
		m.detectCharging(v, now)
	}
}

// detectCharging flags charging once the voltage has held within StableDelta
// of an anchor for longer than StableFor and sits above ChargingAbove.
// When the voltage moves the anchor follows and the flag keeps its value
// until the next stable window.
func (m *Monitor) detectCharging(v float64, now time.Time) {
	if math.Abs(v-m.anchor) < m.cfg.StableDelta {
		if now.Sub(m.stableSince) > m.cfg.StableFor {
			m.state.Charging = v > m.cfg.ChargingAbove
		}
		return
	}
	m.anchor = v
	m.stableSince = now
}
