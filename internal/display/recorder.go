package display

import (
	"sync"

	"github.com/sweeney/midi-pedal/internal/mode"
)

// Recorder is a Sink that keeps everything it is given. For tests.
type Recorder struct {
	mu       sync.Mutex
	frames   []mode.Frame
	messages []string
	// Err, if set, is returned from every call.
	Err error
}

func (r *Recorder) Render(f mode.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return r.Err
}

func (r *Recorder) ShowMessage(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return r.Err
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []mode.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mode.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
	r.messages = nil
}
