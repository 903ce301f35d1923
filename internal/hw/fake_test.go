package hw

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFakeReaderReadSwitches(t *testing.T) {
	samples := []Sample{
		Pressed(1),
		Pressed(5, 6),
		Pressed(),
	}

	f := NewFakeReader(samples, 2048)

	for i, want := range samples {
		got, err := f.ReadSwitches()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if Sample(got) != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}

	// Fourth read should repeat last sample
	got, err := f.ReadSwitches()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Sample(got) != Pressed() {
		t.Errorf("repeat: expected all released, got %v", got)
	}
}

func TestPressed(t *testing.T) {
	s := Pressed(1, 6)
	if !s[0] || !s[5] || s[1] || s[4] {
		t.Errorf("Pressed(1, 6) = %v", s)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := &FakeReader{}

	if _, err := f.ReadSwitches(); err == nil {
		t.Error("expected error with no samples")
	}
	if _, err := f.ReadRawVoltage(); err == nil {
		t.Error("expected error with no readings")
	}
}

func TestFakeReaderRaw(t *testing.T) {
	f := &FakeReader{Raw: []int{100, 200}}
	for _, want := range []int{100, 200, 200} {
		got, err := f.ReadRawVoltage()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{Pressed(1)}, 0)
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadSwitches()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := f.ReadRawVoltage(); err == nil {
		t.Error("expected adc error")
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Sample{Pressed()}, 0)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]Sample{Pressed(2), Pressed()}, 0)

	// Consume first sample
	f.ReadSwitches()

	f.Reset()

	// Should read first sample again
	got, _ := f.ReadSwitches()
	if Sample(got) != Pressed(2) {
		t.Errorf("after reset: expected switch 2, got %v", got)
	}
}

func TestFakePower(t *testing.T) {
	p := &FakePower{}
	p.Sleep()
	p.Restart()
	p.Restart()
	if s, r := p.Counts(); s != 1 || r != 2 {
		t.Errorf("counts = %d, %d", s, r)
	}
}

func TestReadIIO(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "in_voltage0_raw")
	if err := os.WriteFile(good, []byte("2731\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := readIIO(good)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2731 {
		t.Errorf("got %d", v)
	}

	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("n/a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readIIO(bad); err == nil {
		t.Error("expected parse error")
	}
	if _, err := readIIO(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected read error")
	}
}
