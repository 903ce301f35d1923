package store

import "sync"

// Memory is an in-process store. WriteErr, if set, fails every write
// without changing the stored value.
type Memory struct {
	mu       sync.Mutex
	s        Settings
	WriteErr error
}

// NewMemory returns a store holding s.
func NewMemory(s Settings) *Memory {
	return &Memory{s: s}
}

func (m *Memory) Channel() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.sanitize().Channel
}

func (m *Memory) SetChannel(ch int) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	return m.write(func(s *Settings) { s.Channel = ch })
}

func (m *Memory) DeviceName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.sanitize().DeviceName
}

func (m *Memory) SetDeviceName(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	return m.write(func(s *Settings) { s.DeviceName = name })
}

func (m *Memory) Paired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Paired
}

func (m *Memory) SetPaired(paired bool) error {
	return m.write(func(s *Settings) { s.Paired = paired })
}

func (m *Memory) Clear() error {
	return m.write(func(s *Settings) { *s = Defaults() })
}

// Settings returns the raw stored record.
func (m *Memory) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

func (m *Memory) write(fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	fn(&m.s)
	return nil
}
