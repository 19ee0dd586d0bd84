package publish

import (
	"errors"
	"testing"
	"time"
)

var breakerStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestBreaker(tripAfter int, resetWait time.Duration) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(tripAfter, resetWait)
	clock := breakerStart
	cb.now = func() time.Time { return clock }
	return cb, &clock
}

func failing() error { return errors.New("connection refused") }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 10*time.Second)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(failing); err == nil {
			t.Fatal("expected publish error")
		}
		if cb.CurrentState() != StateClosed {
			t.Fatalf("opened after %d failures, trip threshold is 3", i+1)
		}
	}

	cb.Execute(failing)
	if cb.CurrentState() != StateOpen {
		t.Fatalf("state=%s after 3 failures, want open", cb.CurrentState())
	}

	// While open, publishes are rejected without being attempted.
	calls := 0
	err := cb.Execute(func() error { calls++; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err=%v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Error("publish attempted while breaker open")
	}
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	cb, _ := newTestBreaker(3, 10*time.Second)

	cb.Execute(failing)
	cb.Execute(failing)
	cb.Execute(func() error { return nil }) // streak back to zero
	cb.Execute(failing)
	cb.Execute(failing)

	if cb.CurrentState() != StateClosed {
		t.Errorf("state=%s, want closed — failures were not consecutive", cb.CurrentState())
	}
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	cb, clock := newTestBreaker(1, 10*time.Second)

	cb.Execute(failing)
	if cb.CurrentState() != StateOpen {
		t.Fatalf("state=%s, want open", cb.CurrentState())
	}

	// Inside the reset window the breaker stays shut.
	*clock = breakerStart.Add(5 * time.Second)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err=%v inside reset window, want ErrCircuitOpen", err)
	}

	// Past the window the probe goes through and closes the breaker.
	*clock = breakerStart.Add(11 * time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe err=%v, want nil", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Errorf("state=%s after successful probe, want closed", cb.CurrentState())
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 10*time.Second)

	cb.Execute(failing)
	*clock = breakerStart.Add(11 * time.Second)
	cb.Execute(failing) // probe fails

	if cb.CurrentState() != StateOpen {
		t.Fatalf("state=%s after failed probe, want open", cb.CurrentState())
	}

	// The reset window restarts from the failed probe.
	*clock = breakerStart.Add(15 * time.Second)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err=%v, want ErrCircuitOpen until the new window passes", err)
	}
	*clock = breakerStart.Add(22 * time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("err=%v after new window, want nil", err)
	}
}

func TestBreaker_SingleProbeInHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(1, 10*time.Second)
	cb.Execute(failing)
	*clock = breakerStart.Add(11 * time.Second)

	release := make(chan struct{})
	probeIn := make(chan struct{})
	probeDone := make(chan error, 1)
	go func() {
		probeDone <- cb.Execute(func() error {
			close(probeIn)
			<-release
			return nil
		})
	}()

	<-probeIn
	// While the probe is in flight, a second publish is refused.
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("concurrent err=%v, want ErrCircuitOpen", err)
	}

	close(release)
	if err := <-probeDone; err != nil {
		t.Fatalf("probe err=%v", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Errorf("state=%s, want closed", cb.CurrentState())
	}
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	cb, clock := newTestBreaker(1, 10*time.Second)

	type hop struct{ from, to State }
	var hops []hop
	cb.OnStateChange = func(from, to State) { hops = append(hops, hop{from, to}) }

	cb.Execute(failing)
	*clock = breakerStart.Add(11 * time.Second)
	cb.Execute(func() error { return nil })

	want := []hop{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(hops) != len(want) {
		t.Fatalf("transitions=%v, want %v", hops, want)
	}
	for i := range want {
		if hops[i] != want[i] {
			t.Errorf("transition[%d]=%v, want %v", i, hops[i], want[i])
		}
	}
}
