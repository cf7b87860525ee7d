package quiz

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualTimer struct {
	f       func()
	d       time.Duration
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler queues callbacks and runs them only when fired by the test.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f, d: d}
	s.pending = append(s.pending, t)
	return t
}

// fire runs the oldest callback, stopped or not, and reports whether one ran.
func (s *manualScheduler) fire() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()

	t.f()
	return true
}

func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func TestCountdownTicksToExpiry(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	var ticks []int
	expired := 0
	c := NewCountdown(sched, func(r int) { ticks = append(ticks, r) }, func() { expired++ })

	c.Start(3)
	require.True(t, c.Running())
	for sched.fire() {
	}

	require.Equal(t, []int{2, 1, 0}, ticks)
	require.Equal(t, 1, expired)
	require.False(t, c.Running())
	require.Equal(t, 0, sched.live())
}

func TestCountdownStopCancelsInFlightCallback(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	expired := 0
	c := NewCountdown(sched, nil, func() { expired++ })

	c.Start(1)
	c.Stop()
	require.Equal(t, 0, sched.live())

	// The stale callback still runs in the scheduler but must be ignored.
	require.True(t, sched.fire())
	require.Equal(t, 0, expired)
	require.Equal(t, 1, c.Remaining())
}

func TestCountdownRestartDropsPreviousRun(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	var ticks []int
	c := NewCountdown(sched, func(r int) { ticks = append(ticks, r) }, nil)

	c.Start(60)
	c.Start(5)
	for sched.fire() {
	}

	require.Equal(t, []int{4, 3, 2, 1, 0}, ticks)
}

func TestCountdownZeroExpiresImmediately(t *testing.T) {
	t.Parallel()

	sched := &manualScheduler{}
	expired := 0
	c := NewCountdown(sched, nil, func() { expired++ })

	c.Start(0)
	require.True(t, sched.fire())
	require.Equal(t, 1, expired)
	require.False(t, sched.fire())
}

func TestCountdownOnSystemScheduler(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	c := NewCountdown(nil, nil, func() { close(done) })
	c.Start(1)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("countdown did not expire")
	}
}
