package quiz

import (
	"sync"
	"time"
)

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Countdown ticks once per second and fires onExpire when it reaches zero.
// Every Start cancels the previous run; a callback scheduled by a cancelled
// run is ignored even if it was already in flight.
type Countdown struct {
	mu        sync.Mutex
	sched     Scheduler
	onTick    func(remaining int)
	onExpire  func()
	remaining int
	timer     Timer
	gen       uint64
	running   bool
}

// NewCountdown creates a stopped countdown. Either callback may be nil.
// Callbacks run on the scheduler's goroutine, never under the countdown lock.
func NewCountdown(sched Scheduler, onTick func(remaining int), onExpire func()) *Countdown {
	if sched == nil {
		sched = SystemScheduler{}
	}
	return &Countdown{sched: sched, onTick: onTick, onExpire: onExpire}
}

// Start (re)starts the countdown from seconds. A non-positive value expires
// on the next scheduler turn.
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	c.running = true
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds

	if seconds == 0 {
		gen := c.gen
		c.timer = c.sched.AfterFunc(0, func() { c.expire(gen) })
		return
	}
	c.scheduleLocked()
}

// Stop cancels the countdown. It is safe to call on a stopped countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a run is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
}

func (c *Countdown) scheduleLocked() {
	gen := c.gen
	c.timer = c.sched.AfterFunc(time.Second, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining > 0 {
		c.scheduleLocked()
	} else {
		c.timer = nil
		c.running = false
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if remaining == 0 && c.onExpire != nil {
		c.onExpire()
	}
}

func (c *Countdown) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.running = false
	c.mu.Unlock()

	if c.onExpire != nil {
		c.onExpire()
	}
}
