package battery

import "errors"

// FakeSampler returns scripted raw ADC readings.
type FakeSampler struct {
	// Raw contains scripted readings; the last one repeats once exhausted.
	Raw   []int
	index int

	// ReadError, if set, is returned by ReadRawVoltage.
	ReadError error
}

// ReadRawVoltage returns the next scripted reading.
func (f *FakeSampler) ReadRawVoltage() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Raw) == 0 {
		return 0, errors.New("no readings configured")
	}
	v := f.Raw[f.index]
	if f.index < len(f.Raw)-1 {
		f.index++
	}
	return v, nil
}

// FakeChargeSampler is a FakeSampler with a charger status pin.
type FakeChargeSampler struct {
	FakeSampler
	Charging bool
	PinError error
}

// ReadChargingPin returns the scripted charger state.
func (f *FakeChargeSampler) ReadChargingPin() (bool, error) {
	if f.PinError != nil {
		return false, f.PinError
	}
	return f.Charging, nil
}

// RawFor returns the ADC reading that converts to roughly v volts under cfg.
func RawFor(v float64, cfg Config) int {
	return int(v / cfg.Divider / cfg.VRef * float64(cfg.ADCMax))
}
