package mqtt

import "log"

// queued is a serialized message waiting for the broker.
type queued struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable, oldest first.
// Only the newest display frame is kept: the broker retains one per topic,
// and flashing messages would otherwise push gesture events out. When the
// outbox is full the oldest message is dropped.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs    []queued
	limit   int
	dropped int // dropped since the last drain
}

func newOutbox(limit int) *outbox {
	return &outbox{msgs: make([]queued, 0, limit), limit: limit}
}

func (o *outbox) push(msg queued) {
	if msg.topic == TopicDisplay {
		o.remove(TopicDisplay)
	}
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		o.dropped++
		o.msgs = append(o.msgs[:0], o.msgs[1:]...)
	}
	o.msgs = append(o.msgs, msg)
}

// remove deletes any queued message for topic.
func (o *outbox) remove(topic string) {
	kept := o.msgs[:0]
	for _, m := range o.msgs {
		if m.topic != topic {
			kept = append(kept, m)
		}
	}
	o.msgs = kept
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []queued {
	if len(o.msgs) == 0 {
		return nil
	}
	out := append([]queued(nil), o.msgs...)
	if o.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while offline", o.dropped)
	}
	o.msgs = o.msgs[:0]
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
