// Package telemetry turns playing audio into engine input: a tap records what
// the speaker plays, an analyzer reduces it to band energies and beat onsets,
// and a port forwards those to the parameter authority.
package telemetry

import (
	"sync"

	"github.com/faiface/beep"
)

// Tap wraps a beep.Streamer and keeps the most recent samples in a ring so
// the analyzer can read what was just played without touching the speaker.
type Tap struct {
	Source beep.Streamer

	mu     sync.RWMutex
	ring   [][2]float64
	next   int
	filled int
}

// NewTap returns a Tap over src keeping ringSize stereo samples.
func NewTap(src beep.Streamer, ringSize int) *Tap {
	if ringSize < 1 {
		ringSize = 1
	}
	return &Tap{Source: src, ring: make([][2]float64, ringSize)}
}

// Stream implements beep.Streamer.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n <= 0 {
		return n, ok
	}

	t.mu.Lock()
	for _, s := range samples[:n] {
		t.ring[t.next] = s
		t.next = (t.next + 1) % len(t.ring)
	}
	t.filled = min(t.filled+n, len(t.ring))
	t.mu.Unlock()
	return n, ok
}

// Err implements beep.Streamer.
func (t *Tap) Err() error { return t.Source.Err() }

// Snapshot copies up to the last n recorded samples, oldest first. Before the
// ring has filled it returns only what has been played.
func (t *Tap) Snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(n, t.filled)
	if n <= 0 {
		return nil
	}
	out := make([][2]float64, n)
	start := (t.next - n + len(t.ring)) % len(t.ring)
	for i := range out {
		out[i] = t.ring[(start+i)%len(t.ring)]
	}
	return out
}
