// Package hw reads the footswitches, battery ADC and charger pin, and
// controls device power.
// The real implementation uses the Linux GPIO character device and IIO
// sysfs. The fake implementation allows testing without hardware.
package hw

import (
	"github.com/sweeney/midi-pedal/internal/gesture"
)

// SwitchReader reads the footswitch levels.
type SwitchReader interface {
	// ReadSwitches returns the logical level of switches 1..6, true meaning
	// pressed. Switches are wired active-low; the inversion happens here.
	ReadSwitches() ([gesture.NumSwitches]bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pins describes the hardware wiring.
type Pins struct {
	Chip     string
	Switches [gesture.NumSwitches]int
	// Charge is the charger status line offset, or -1 if not fitted.
	Charge int
	// ADC is the IIO raw value file for the battery divider.
	ADC string
}

// DefaultPins returns the reference wiring (BCM numbering).
func DefaultPins() Pins {
	return Pins{
		Chip:     "gpiochip0",
		Switches: [gesture.NumSwitches]int{17, 27, 22, 23, 24, 25},
		Charge:   -1,
		ADC:      "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
	}
}
