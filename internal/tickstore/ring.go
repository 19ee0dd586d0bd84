package tickstore

import "signal-systemv1/internal/model"

// ring is a fixed-capacity circular tick buffer with FIFO eviction.
// Not goroutine-safe on its own — the Store serializes access.
type ring struct {
	buf   []model.Tick
	start int // index of oldest element
	n     int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]model.Tick, capacity)}
}

// push appends a tick, evicting the oldest when full.
func (r *ring) push(t model.Tick) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = t
		r.n++
		return
	}
	r.buf[r.start] = t
	r.start = (r.start + 1) % len(r.buf)
}

// last returns the newest tick. Caller must check n > 0.
func (r *ring) last() model.Tick {
	return r.buf[(r.start+r.n-1)%len(r.buf)]
}

// recent copies up to n of the newest ticks, oldest first.
func (r *ring) recent(n int) []model.Tick {
	if n <= 0 || n > r.n {
		n = r.n
	}
	if n == 0 {
		return nil
	}
	out := make([]model.Tick, n)
	first := r.start + r.n - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%len(r.buf)]
	}
	return out
}

// each visits every buffered tick, oldest first.
func (r *ring) each(fn func(model.Tick)) {
	for i := 0; i < r.n; i++ {
		fn(r.buf[(r.start+i)%len(r.buf)])
	}
}
