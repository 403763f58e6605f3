// Package buffer keeps the most recent heart-rate samples in arrival order.
package buffer

import "github.com/saveugene/pulsedash/internal/vitals"

// Buffer is a bounded FIFO window of samples. It is not safe for concurrent
// use; the dashboard loop owns it and hands out copies via Snapshot.
type Buffer struct {
	samples  []vitals.Sample
	capacity int
}

// New returns an empty buffer. A non-positive capacity falls back to
// vitals.MaxPoints.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = vitals.MaxPoints
	}
	return &Buffer{
		samples:  make([]vitals.Sample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends s, evicting the oldest sample first when the window is full.
func (b *Buffer) Push(s vitals.Sample) {
	if len(b.samples) >= b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, s)
}

// Clear empties the buffer, keeping its capacity.
func (b *Buffer) Clear() {
	b.samples = b.samples[:0]
}

// Snapshot returns an ordered copy safe to hand to renderers.
func (b *Buffer) Snapshot() []vitals.Sample {
	out := make([]vitals.Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Latest returns the most recently pushed sample.
func (b *Buffer) Latest() (vitals.Sample, bool) {
	if len(b.samples) == 0 {
		return vitals.Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

func (b *Buffer) Len() int { return len(b.samples) }

func (b *Buffer) Cap() int { return b.capacity }
