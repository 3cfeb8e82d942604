package app

import (
	"sync"
	"time"
)

// CountdownTimer is the single authoritative clock for one attempt. It ticks
// at one-second resolution and fires its expiry callback exactly once.
//
// Invariants:
//   - A duration of zero or less means "no timer": Start is a no-op.
//   - The callback never runs after Stop has returned; Stop waits out an
//     in-flight expiry instead of racing it.
//   - When the countdown expires it stops itself, so the expiry path must not
//     call Stop from inside the callback.
type CountdownTimer struct {
	duration time.Duration
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	deadline time.Time
	started  bool
	stopped  bool
	fired    bool
	stopCh   chan struct{}
	done     chan struct{}
}

func NewCountdownTimer(seconds int) *CountdownTimer {
	return newCountdownTimerWithClock(seconds, time.Now, time.Second)
}

// newCountdownTimerWithClock allows deterministic deadlines and a faster tick
// in tests.
func newCountdownTimerWithClock(seconds int, now func() time.Time, tick time.Duration) *CountdownTimer {
	return &CountdownTimer{
		duration: time.Duration(seconds) * time.Second,
		tick:     tick,
		now:      now,
	}
}

// Start arms the countdown. Starting an already-started or zero-duration
// timer does nothing.
func (t *CountdownTimer) Start(onExpire func()) {
	if t.duration <= 0 {
		return
	}
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.deadline = t.now().Add(t.duration)
	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.run(onExpire)
}

func (t *CountdownTimer) run(onExpire func()) {
	defer close(t.done)
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.mu.Lock()
			// A tick can already be queued when Stop executes; it must
			// never fire.
			if t.stopped {
				t.mu.Unlock()
				return
			}
			if t.now().Before(t.deadline) {
				t.mu.Unlock()
				continue
			}
			t.fired = true
			t.stopped = true
			t.mu.Unlock()
			onExpire()
			return
		}
	}
}

// Stop halts the countdown. It returns only once no expiry callback is
// running or can ever run again.
func (t *CountdownTimer) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	if !t.stopped {
		t.stopped = true
		close(t.stopCh)
	}
	t.mu.Unlock()
	<-t.done
}

// Remaining reports whole seconds left, rounded up, clamped at zero.
func (t *CountdownTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.duration <= 0 {
		return 0
	}
	if !t.started {
		return int(t.duration / time.Second)
	}
	if t.fired {
		return 0
	}
	left := t.deadline.Sub(t.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Fired reports whether the countdown expired (as opposed to being stopped).
func (t *CountdownTimer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
