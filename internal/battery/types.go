// Package battery estimates battery voltage, charge percentage and
// charging state from periodic raw ADC samples.
package battery

import (
	"fmt"
	"time"
)

// SampleCount is the size of the moving-average window.
const SampleCount = 10

// ChargePolicy selects how the charging flag is derived.
type ChargePolicy int

const (
	// ChargeAuto uses the sense pin when the sampler exposes one,
	// otherwise the voltage heuristic.
	ChargeAuto ChargePolicy = iota
	// ChargePin reads a dedicated charger status input.
	ChargePin
	// ChargeHeuristic infers charging from a stable, high voltage.
	ChargeHeuristic
)

func (p ChargePolicy) String() string {
	switch p {
	case ChargeAuto:
		return "auto"
	case ChargePin:
		return "pin"
	case ChargeHeuristic:
		return "heuristic"
	default:
		return fmt.Sprintf("ChargePolicy(%d)", int(p))
	}
}

// ParseChargePolicy parses "auto", "pin" or "heuristic".
func ParseChargePolicy(s string) (ChargePolicy, error) {
	switch s {
	case "auto", "":
		return ChargeAuto, nil
	case "pin":
		return ChargePin, nil
	case "heuristic":
		return ChargeHeuristic, nil
	}
	return ChargeAuto, fmt.Errorf("unknown charge policy %q", s)
}

// Sampler reads the raw battery sense voltage in ADC units.
type Sampler interface {
	ReadRawVoltage() (int, error)
}

// ChargeSensor is implemented by samplers wired to a charger status pin.
type ChargeSensor interface {
	// ReadChargingPin returns true while the charger reports charging.
	ReadChargingPin() (bool, error)
}

// Config holds the conversion constants and thresholds.
type Config struct {
	VRef    float64 // ADC reference voltage
	ADCMax  int     // full-scale ADC reading
	Divider float64 // sense-line divider compensation
	VMin    float64
	VMax    float64

	Interval     time.Duration // sampling cadence
	WarnInterval time.Duration // minimum spacing of low-battery warnings

	LowPercent      int
	CriticalPercent int

	ChargePolicy  ChargePolicy
	StableDelta   float64       // heuristic: max drift still considered stable
	StableFor     time.Duration // heuristic: how long the voltage must hold
	ChargingAbove float64       // heuristic: minimum stable voltage
}

// DefaultConfig returns the constants for a 1S LiPo behind a 1:2 divider
// on a 12-bit 3.3V ADC.
func DefaultConfig() Config {
	return Config{
		VRef:            3.3,
		ADCMax:          4095,
		Divider:         2.0,
		VMin:            3.0,
		VMax:            4.2,
		Interval:        time.Second,
		WarnInterval:    30 * time.Second,
		LowPercent:      20,
		CriticalPercent: 10,
		ChargePolicy:    ChargeAuto,
		StableDelta:     0.05,
		StableFor:       5 * time.Second,
		ChargingAbove:   4.0,
	}
}

// State is the smoothed battery estimate.
type State struct {
	Voltage  float64
	Percent  int
	Charging bool
	Low      bool
	Critical bool
}

// Reading is the result of one sampling step.
type Reading struct {
	State State
	// Warn is set when a low-battery warning should be shown.
	Warn bool
}
