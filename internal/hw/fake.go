package hw

import (
	"errors"
	"sync"

	"github.com/sweeney/midi-pedal/internal/gesture"
)

// FakeReader is a test double that returns scripted switch levels and ADC
// readings.
type FakeReader struct {
	// Samples contains scripted switch levels. Each call to ReadSwitches
	// consumes the next sample.
	Samples []Sample
	index   int

	// Raw contains scripted ADC readings; the last one repeats.
	Raw      []int
	rawIndex int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by both reads.
	ReadError error
}

// Sample is a single switch reading (already in logical form).
type Sample [gesture.NumSwitches]bool

// Pressed returns a Sample with the given 1-based switches held.
func Pressed(switches ...int) Sample {
	var s Sample
	for _, sw := range switches {
		s[sw-1] = true
	}
	return s
}

// NewFakeReader creates a FakeReader with the given samples and a single
// ADC reading.
func NewFakeReader(samples []Sample, raw int) *FakeReader {
	return &FakeReader{Samples: samples, Raw: []int{raw}}
}

// ReadSwitches returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) ReadSwitches() ([gesture.NumSwitches]bool, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// ReadRawVoltage returns the next scripted ADC reading.
func (f *FakeReader) ReadRawVoltage() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Raw) == 0 {
		return 0, errors.New("no readings configured")
	}
	v := f.Raw[f.rawIndex]
	if f.rawIndex < len(f.Raw)-1 {
		f.rawIndex++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.rawIndex = 0
	f.Closed = false
}

// FakePower counts power requests.
type FakePower struct {
	mu       sync.Mutex
	sleeps   int
	restarts int
}

func (p *FakePower) Sleep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sleeps++
}

func (p *FakePower) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restarts++
}

// Counts returns how many sleeps and restarts were requested.
func (p *FakePower) Counts() (sleeps, restarts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sleeps, p.restarts
}
