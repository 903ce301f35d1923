//go:build !linux

package hw

import (
	"errors"

	"github.com/sweeney/midi-pedal/internal/battery"
	"github.com/sweeney/midi-pedal/internal/gesture"
)

var errUnsupported = errors.New("hw: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(Pins) (*RealReader, error) {
	return nil, errUnsupported
}

func (r *RealReader) ReadSwitches() ([gesture.NumSwitches]bool, error) {
	return [gesture.NumSwitches]bool{}, errUnsupported
}

func (r *RealReader) ReadRawVoltage() (int, error) {
	return 0, errUnsupported
}

func (r *RealReader) BatterySampler() battery.Sampler {
	return r
}

func (r *RealReader) Close() error {
	return nil
}

// RealPower is not available on non-Linux platforms.
type RealPower struct {
	Release func()
}

// NewRealPower returns a power controller that only runs release.
func NewRealPower(_ Pins, release func()) *RealPower {
	return &RealPower{Release: release}
}

func (p *RealPower) Sleep() {
	if p.Release != nil {
		p.Release()
	}
}

func (p *RealPower) Restart() {
	if p.Release != nil {
		p.Release()
	}
}
