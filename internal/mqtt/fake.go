package mqtt

import "sync"

// FakePublisher keeps everything published, for tests and the simulator.
type FakePublisher struct {
	mu sync.Mutex

	Events         []Event
	Displays       []Display
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte // encoded form of each SystemEvents entry

	// PublishError, if set, fails every publish and nothing is kept.
	PublishError error
	// Connected is what IsConnected reports.
	Connected bool
	Closed    bool
}

// NewFakePublisher returns an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// keep runs fn under the lock unless publishing is set to fail.
func (f *FakePublisher) keep(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	return fn()
}

func (f *FakePublisher) Publish(event Event) error {
	return f.keep(func() error {
		f.Events = append(f.Events, event)
		return nil
	})
}

func (f *FakePublisher) PublishDisplay(d Display) error {
	return f.keep(func() error {
		f.Displays = append(f.Displays, d)
		return nil
	})
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	return f.keep(func() error {
		payload, err := FormatSystemPayload(event)
		if err != nil {
			return err
		}
		f.SystemEvents = append(f.SystemEvents, event)
		f.SystemPayloads = append(f.SystemPayloads, payload)
		return nil
	})
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}
