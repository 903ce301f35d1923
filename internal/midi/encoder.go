package midi

import (
	"log"
	"time"
)

// Sender is the link that carries packets to the connected peer.
type Sender interface {
	Send(packet []byte) error
	IsConnected() bool
}

// Encoder turns messages into packets and sends them.
type Encoder struct {
	out Sender

	timestamps bool
	clock      func() time.Time
	epoch      time.Time

	sent    int
	dropped int
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithTimestamps makes the encoder stamp packets with the rolling 13-bit
// millisecond clock instead of the constant placeholder.
func WithTimestamps(clock func() time.Time) Option {
	return func(e *Encoder) {
		e.timestamps = true
		e.clock = clock
	}
}

// NewEncoder creates an encoder that writes to out.
func NewEncoder(out Sender, opts ...Option) *Encoder {
	e := &Encoder{out: out, clock: time.Now}
	for _, o := range opts {
		o(e)
	}
	e.epoch = e.clock()
	return e
}

// Packet encodes msg the way Send would.
func (e *Encoder) Packet(msg Message) ([]byte, bool) {
	if !e.timestamps {
		return Encode(msg)
	}
	ms := uint16(e.clock().Sub(e.epoch).Milliseconds() % 8192)
	return EncodeAt(msg, ms)
}

// Send encodes msg and hands it to the link. It is a no-op returning false
// when the channel is invalid or no peer is connected.
func (e *Encoder) Send(msg Message) bool {
	pkt, ok := e.Packet(msg)
	if !ok {
		return false
	}
	if !e.out.IsConnected() {
		e.dropped++
		return false
	}
	if err := e.out.Send(pkt); err != nil {
		e.dropped++
		log.Printf("midi: send %s: %v", msg, err)
		return false
	}
	e.sent++
	return true
}

// Counts returns the number of packets sent and dropped.
func (e *Encoder) Counts() (sent, dropped int) {
	return e.sent, e.dropped
}
