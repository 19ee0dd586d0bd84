// Package sched abstracts timer-driven scheduling so periodic work (signal
// verification, reconnect backoff) can run against a fake clock in tests.
package sched

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. Safe to call more than once.
type CancelFunc func()

// Scheduler schedules one-shot and repeating work.
type Scheduler interface {
	// Every runs fn repeatedly at the given interval until cancelled.
	Every(interval time.Duration, fn func()) CancelFunc
	// After runs fn once after the given delay unless cancelled first.
	After(delay time.Duration, fn func()) CancelFunc
}

// Real is the wall-clock Scheduler used in production.
type Real struct{}

// NewReal returns a ticker/timer backed scheduler.
func NewReal() *Real { return &Real{} }

func (r *Real) Every(interval time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (r *Real) After(delay time.Duration, fn func()) CancelFunc {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}
