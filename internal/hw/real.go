//go:build linux

package hw

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
)

// RealReader reads the pedal inputs using the Linux GPIO character device.
type RealReader struct {
	pins     Pins
	chip     *gpiocdev.Chip
	switches *gpiocdev.Lines
	charge   *gpiocdev.Line
}

// NewRealReader requests the switch lines (and the charge line, if fitted)
// as active-low inputs with pull-ups.
func NewRealReader(pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	switches, err := chip.RequestLines(pins.Switches[:], gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch pins %v: %w", pins.Switches, err)
	}

	r := &RealReader{pins: pins, chip: chip, switches: switches}
	if pins.Charge >= 0 {
		r.charge, err = chip.RequestLine(pins.Charge, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			switches.Close()
			chip.Close()
			return nil, fmt.Errorf("request charge pin %d: %w", pins.Charge, err)
		}
	}
	return r, nil
}

// ReadSwitches returns the logical switch levels. The lines are active-low,
// so the kernel already reports a closed switch as 1.
func (r *RealReader) ReadSwitches() ([gesture.NumSwitches]bool, error) {
	var levels [gesture.NumSwitches]bool
	vals := make([]int, gesture.NumSwitches)
	if err := r.switches.Values(vals); err != nil {
		return levels, fmt.Errorf("read switch pins: %w", err)
	}
	for i, v := range vals {
		levels[i] = v == 1
	}
	return levels, nil
}

// ReadRawVoltage returns the battery divider ADC reading.
func (r *RealReader) ReadRawVoltage() (int, error) {
	return readIIO(r.pins.ADC)
}

// ReadChargingPin reports the charger status line.
func (r *RealReader) ReadChargingPin() (bool, error) {
	if r.charge == nil {
		return false, fmt.Errorf("no charge pin configured")
	}
	v, err := r.charge.Value()
	if err != nil {
		return false, fmt.Errorf("read charge pin: %w", err)
	}
	return v == 1, nil
}

// BatterySampler returns r as a battery sampler. The charge pin is only
// exposed when one is fitted, so the monitor falls back to the voltage
// heuristic otherwise.
func (r *RealReader) BatterySampler() battery.Sampler {
	if r.charge == nil {
		return adcOnly{r}
	}
	return r
}

type adcOnly struct {
	r *RealReader
}

func (a adcOnly) ReadRawVoltage() (int, error) {
	return a.r.ReadRawVoltage()
}

// Close releases GPIO resources.
// Lines are reconfigured as plain inputs before closing so nothing is left
// driving the pins.
func (r *RealReader) Close() error {
	var errs []error

	if r.switches != nil {
		if err := r.switches.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure switch pins: %w", err))
		}
		if err := r.switches.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch pins: %w", err))
		}
		r.switches = nil
	}
	if r.charge != nil {
		if err := r.charge.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close charge pin: %w", err))
		}
		r.charge = nil
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
