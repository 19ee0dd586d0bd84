package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by an explicit fake clock. Tests call Advance
// to move time forward; due tasks fire synchronously, in timestamp order, on
// the calling goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
}

type manualTask struct {
	at       time.Time
	interval time.Duration // 0 for one-shot
	fn       func()
	done     bool
}

// NewManual creates a manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the fake clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) CancelFunc {
	return m.add(interval, interval, fn)
}

func (m *Manual) After(delay time.Duration, fn func()) CancelFunc {
	return m.add(delay, 0, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	t := &manualTask{at: m.now.Add(delay), interval: interval, fn: fn}
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			t.done = true
			m.mu.Unlock()
		})
	}
}

// Advance moves the clock forward by d, firing every task that comes due.
// A task's callback may schedule further tasks; those fire too if they fall
// within the advanced window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	deadline := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue(deadline)
		if t == nil {
			break
		}
		t.fn()
	}

	m.mu.Lock()
	m.now = deadline
	m.mu.Unlock()
}

// nextDue pops the earliest pending task at or before deadline, advancing the
// clock to its fire time and rescheduling it if it repeats.
func (m *Manual) nextDue(deadline time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done {
			pending = append(pending, t)
		}
	}
	m.tasks = pending

	sort.SliceStable(m.tasks, func(i, j int) bool { return m.tasks[i].at.Before(m.tasks[j].at) })

	for _, t := range m.tasks {
		if t.at.After(deadline) {
			return nil
		}
		m.now = t.at
		if t.interval > 0 {
			t.at = t.at.Add(t.interval)
		} else {
			t.done = true
		}
		return t
	}
	return nil
}
