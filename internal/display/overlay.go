// Package display renders controller frames and transient messages onto
// one or more output sinks.
package display

import (
	"log"
	"sync"
	"time"

	"github.com/sweeney/midi-pedal/internal/mode"
)

// DefaultMessageTTL is how long a transient message stays up.
const DefaultMessageTTL = 2 * time.Second

// Sink is an output device.
type Sink interface {
	Render(f mode.Frame) error
	ShowMessage(text string) error
}

// Overlay implements mode.Display. A transient message hides the frame
// until it expires, then the latest frame is redrawn.
type Overlay struct {
	mu    sync.RWMutex
	ttl   time.Duration
	sinks []Sink

	frame    mode.Frame
	hasFrame bool

	message string
	until   time.Time
	showing bool
}

// NewOverlay creates an overlay writing to sinks.
func NewOverlay(ttl time.Duration, sinks ...Sink) *Overlay {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	return &Overlay{ttl: ttl, sinks: sinks}
}

// Render stores f and draws it unless a message is showing.
func (o *Overlay) Render(f mode.Frame) {
	o.mu.Lock()
	o.frame = f
	o.hasFrame = true
	showing := o.showing
	o.mu.Unlock()

	if !showing {
		o.draw(f)
	}
}

// Flash shows text until now+ttl. A newer message replaces an older one.
func (o *Overlay) Flash(text string, now time.Time) {
	o.mu.Lock()
	o.message = text
	o.until = now.Add(o.ttl)
	o.showing = true
	o.mu.Unlock()

	for _, s := range o.sinks {
		if err := s.ShowMessage(text); err != nil {
			log.Printf("display: show message: %v", err)
		}
	}
}

// Tick expires the current message.
func (o *Overlay) Tick(now time.Time) {
	o.mu.Lock()
	if !o.showing || now.Before(o.until) {
		o.mu.Unlock()
		return
	}
	o.showing = false
	f, ok := o.frame, o.hasFrame
	o.mu.Unlock()

	if ok {
		o.draw(f)
	}
}

// Frame returns the latest frame.
func (o *Overlay) Frame() mode.Frame {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.frame
}

// Message returns the message currently showing, if any.
func (o *Overlay) Message() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.message, o.showing
}

func (o *Overlay) draw(f mode.Frame) {
	for _, s := range o.sinks {
		if err := s.Render(f); err != nil {
			log.Printf("display: render: %v", err)
		}
	}
}
