package mode

import "sync/atomic"

const (
	connNone int32 = iota
	connUp
	connDown
)

// ConnFlag carries connection changes from the transport's execution
// context to the tick loop. It has one writer and one reader; only the
// most recent change is kept.
type ConnFlag struct {
	v atomic.Int32
}

// Set records a connection change. Safe to call from any goroutine.
func (f *ConnFlag) Set(connected bool) {
	if connected {
		f.v.Store(connUp)
		return
	}
	f.v.Store(connDown)
}

// Take returns and clears the pending change.
func (f *ConnFlag) Take() (connected, changed bool) {
	switch f.v.Swap(connNone) {
	case connUp:
		return true, true
	case connDown:
		return false, true
	}
	return false, false
}
