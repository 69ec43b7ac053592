package timer

import (
	"fmt"
	"math"
	"sync"
	"time"

	"ticktimer/internal/clock"
)

// Options holds the immutable parameters of a TickTimer.
type Options struct {
	InitialValue   float64       // value at tick zero
	UpdateInterval time.Duration // time between ticks
	CountDown      bool          // direction of travel
	Duration       int           // total ticks before auto-stop
}

func (o Options) validate() error {
	if o.UpdateInterval <= 0 {
		return fmt.Errorf("timer: update interval must be positive, got %v", o.UpdateInterval)
	}
	if o.Duration < 0 {
		return fmt.Errorf("timer: duration must be >= 0, got %d", o.Duration)
	}
	return nil
}

// ErrorHook receives failures raised by observers during notification.
type ErrorHook func(err error)

// Option configures a TickTimer at construction.
type Option func(*TickTimer)

// WithObserverErrorHook routes observer panics to h instead of
// discarding them.
func WithObserverErrorHook(h ErrorHook) Option {
	return func(t *TickTimer) {
		t.observerErr = h
	}
}

// TickTimer counts up or down by one per tick at a fixed interval and
// notifies observers of every value change. It is resumable: Pause
// keeps the current value, and Start re-derives the elapsed tick count
// from that value, so resuming continues the sequence instead of
// restarting it. The timer is finite and stops itself once the
// configured number of ticks has been delivered.
type TickTimer struct {
	mu sync.Mutex

	opts Options

	current   float64
	tickCount int
	running   bool
	disposed  bool
	completed bool

	sched clock.Scheduler
	reg   clock.Registration

	observers   []*observerEntry
	observerErr ErrorHook

	done chan struct{}
}

// New validates opts and returns an idle timer at its initial value.
// The timer does not start ticking until Start is called.
func New(opts Options, sched clock.Scheduler, options ...Option) (*TickTimer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("timer: scheduler is required")
	}
	t := &TickTimer{
		opts:    opts,
		current: opts.InitialValue,
		sched:   sched,
		done:    make(chan struct{}),
	}
	for _, o := range options {
		o(t)
	}
	return t, nil
}

// Start begins or resumes ticking; it is a no-op when already running.
// The elapsed tick count is derived from the current value rather than
// reset to zero, which is what makes resumption after Pause continue
// where it left off. The current value is emitted to all observers
// immediately, matching Subscribe's replay behavior.
func (t *TickTimer) Start() {
	t.mu.Lock()
	if t.disposed || t.running {
		t.mu.Unlock()
		return
	}
	if t.opts.CountDown {
		t.tickCount = int(math.Round(t.opts.InitialValue - t.current))
	} else {
		t.tickCount = int(math.Round(t.current - t.opts.InitialValue))
	}
	if t.completed {
		// Re-arm the completion signal for the run that is starting.
		t.done = make(chan struct{})
		t.completed = false
	}
	t.running = true
	value := t.current
	t.mu.Unlock()

	t.notifyAll(value)

	t.mu.Lock()
	if t.disposed || !t.running || t.reg != nil {
		// An observer paused, disposed, or restarted the timer during
		// the replay; its outcome stands.
		t.mu.Unlock()
		return
	}
	t.reg = t.sched.ScheduleRepeating(t.opts.UpdateInterval, t.tick)
	t.mu.Unlock()
}

// Resume is Start under the name callers reach for after Pause; see
// Start for why resumption continues rather than restarts.
func (t *TickTimer) Resume() {
	t.Start()
}

// Pause cancels the schedule without touching the current value or the
// tick count. No-op when the timer is idle. Once Pause returns, no
// further tick notifications are delivered; a tick already in flight
// is flushed by the registration's Cancel before Pause returns, except
// when Pause is called from inside an observer, where the enclosing
// notification pass runs to completion.
func (t *TickTimer) Pause() {
	t.mu.Lock()
	if t.disposed || !t.running {
		t.mu.Unlock()
		return
	}
	reg := t.reg
	t.reg = nil
	t.running = false
	t.mu.Unlock()

	if reg != nil {
		reg.Cancel()
	}
}

// Reset stops any active schedule, restores the initial value, and
// starts the full finite sequence again from tick zero.
func (t *TickTimer) Reset() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	reg := t.reg
	t.reg = nil
	t.running = false
	t.current = t.opts.InitialValue
	t.mu.Unlock()

	if reg != nil {
		reg.Cancel()
	}
	t.Start()
}

// Dispose cancels any schedule and releases all observers. The timer
// fires no further notifications after Dispose returns, flushing any
// tick in flight the same way Pause does; every method on a disposed
// timer, Subscribe included, is a silent no-op.
func (t *TickTimer) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	t.running = false
	reg := t.reg
	t.reg = nil
	t.observers = nil
	t.mu.Unlock()

	if reg != nil {
		reg.Cancel()
	}
}

// Value returns the current value without side effects, running or not.
func (t *TickTimer) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// TickCount returns the ticks elapsed since the timer last started
// from its current value.
func (t *TickTimer) TickCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickCount
}

// Running reports whether a schedule is active.
func (t *TickTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Done returns a channel closed when the timer auto-stops at its
// configured duration. Start and Reset re-arm the channel after a
// completed run, so take it after the run you intend to wait on has
// begun.
func (t *TickTimer) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// tick is the scheduler callback: one step of the finite sequence.
func (t *TickTimer) tick() {
	t.mu.Lock()
	if t.disposed || !t.running {
		t.mu.Unlock()
		return
	}
	t.tickCount++
	if t.opts.CountDown {
		t.current = t.opts.InitialValue - float64(t.tickCount)
	} else {
		t.current = t.opts.InitialValue + float64(t.tickCount)
	}
	value := t.current
	finished := t.tickCount >= t.opts.Duration
	t.mu.Unlock()

	t.notifyAll(value)

	if finished {
		t.complete()
	}
}

// complete performs the auto-stop: cancel the schedule, leave Running
// false, and close the completion channel exactly once.
func (t *TickTimer) complete() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	if t.running && t.tickCount < t.opts.Duration {
		// An observer reset the timer during the final notification;
		// the fresh run owns the schedule now.
		t.mu.Unlock()
		return
	}
	reg := t.reg
	t.reg = nil
	t.running = false
	var done chan struct{}
	if !t.completed {
		t.completed = true
		done = t.done
	}
	t.mu.Unlock()

	if reg != nil {
		reg.Cancel()
	}
	if done != nil {
		close(done)
	}
}
