package battery

// SampleBuffer is a fixed-capacity circular buffer of voltages.
// The oldest sample is overwritten; it is always full once primed.
type SampleBuffer struct {
	buf  [SampleCount]float64
	head int // next write position
}

// NewSampleBuffer returns a buffer with every slot set to v.
func NewSampleBuffer(v float64) *SampleBuffer {
	b := &SampleBuffer{}
	for i := range b.buf {
		b.buf[i] = v
	}
	return b
}

// Push overwrites the oldest sample.
func (b *SampleBuffer) Push(v float64) {
	b.buf[b.head] = v
	b.head = (b.head + 1) % SampleCount
}

// Mean returns the arithmetic mean of all samples.
func (b *SampleBuffer) Mean() float64 {
	var sum float64
	for _, v := range b.buf {
		sum += v
	}
	return sum / SampleCount
}

// Len is always SampleCount.
func (b *SampleBuffer) Len() int {
	return len(b.buf)
}
