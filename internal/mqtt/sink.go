package mqtt

import (
	"time"

	"github.com/sweeney/midi-pedal/internal/display"
	"github.com/sweeney/midi-pedal/internal/mode"
)

// DisplaySink mirrors the display to the broker. Blink-only changes are
// not published.
type DisplaySink struct {
	pub  Publisher
	now  func() time.Time
	last mode.Frame
	sent bool
}

// NewDisplaySink publishes through pub.
func NewDisplaySink(pub Publisher, now func() time.Time) *DisplaySink {
	return &DisplaySink{pub: pub, now: now}
}

func (s *DisplaySink) Render(f mode.Frame) error {
	key := f
	key.BlinkOn = true
	if s.sent && key == s.last {
		return nil
	}
	s.last, s.sent = key, true
	return s.pub.PublishDisplay(Display{Timestamp: s.now(), Lines: display.Lines(key)})
}

func (s *DisplaySink) ShowMessage(text string) error {
	// The frame must be republished once the message expires.
	s.sent = false
	return s.pub.PublishDisplay(Display{Timestamp: s.now(), Lines: display.MessageLines(text), Transient: true})
}
