package ble

import "sync"

// Fake is an in-memory Transport for tests and the simulator.
type Fake struct {
	mu          sync.Mutex
	connected   bool
	onChange    func(bool)
	sent        [][]byte
	advertised  int
	disconnects int

	// SendErr, if set, is returned from Send.
	SendErr error
}

func (f *Fake) Send(packet []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return ErrNotConnected
	}
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, append([]byte(nil), packet...))
	return nil
}

func (f *Fake) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *Fake) OnConnectionChanged(fn func(bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

func (f *Fake) StartAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advertised++
	return nil
}

// Disconnect drops the central and reports it like a real link would.
func (f *Fake) Disconnect() error {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
	f.SetConnected(false)
	return nil
}

// SetConnected simulates a central connecting or leaving.
func (f *Fake) SetConnected(connected bool) {
	f.mu.Lock()
	changed := f.connected != connected
	f.connected = connected
	fn := f.onChange
	f.mu.Unlock()
	if changed && fn != nil {
		fn(connected)
	}
}

// Sent returns a copy of every packet sent.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// Advertised returns how many times advertising was started.
func (f *Fake) Advertised() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advertised
}

// Disconnects returns how many forced disconnects were requested.
func (f *Fake) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}
