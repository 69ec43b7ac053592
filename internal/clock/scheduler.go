package clock

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the single capability a timer needs from its host:
// repeat a callback at a fixed interval until the registration is
// cancelled. Implementations deliver callbacks one at a time.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, fn func()) Registration
}

// Registration is a live repeating schedule. Cancel stops future
// deliveries and does not return while a delivery is in flight, so a
// caller that has seen Cancel return sees no further callbacks.
// Cancelling an already-cancelled registration is a no-op, and fn may
// cancel its own registration without deadlocking.
type Registration interface {
	Cancel()
}

// Interval is the production Scheduler, backed by one time.Ticker and
// one goroutine per registration.
type Interval struct{}

// NewInterval returns a ticker-backed scheduler.
func NewInterval() *Interval {
	return &Interval{}
}

// ScheduleRepeating fires fn roughly every interval until Cancel.
// The interval must be positive.
func (s *Interval) ScheduleRepeating(interval time.Duration, fn func()) Registration {
	r := &intervalRegistration{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.run(fn)
	return r
}

type intervalRegistration struct {
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	gid    atomic.Uint64
}

func (r *intervalRegistration) run(fn func()) {
	r.gid.Store(goroutineID())
	defer close(r.done)
	for {
		select {
		case <-r.ticker.C:
			// A tick buffered before Cancel must not fire after it.
			select {
			case <-r.stop:
				return
			default:
			}
			fn()
		case <-r.stop:
			return
		}
	}
}

// Cancel stops the underlying ticker and waits for the delivery
// goroutine to exit, flushing any fn invocation already in flight.
// When called from inside fn the wait is skipped; run exits as soon
// as fn returns.
func (r *intervalRegistration) Cancel() {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.stop)
	})
	if r.gid.Load() == goroutineID() {
		return
	}
	<-r.done
}

// goroutineID extracts the running goroutine's id from its stack
// header. IDs start at 1, so the zero value never matches a caller.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	i := bytes.IndexByte(buf, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(buf[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
