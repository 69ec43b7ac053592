package clock

import "time"

// Manual is a Scheduler driven by explicit Advance calls instead of the
// wall clock. Registrations fire in due order as virtual time moves,
// which makes tick sequences reproducible without sleeps. Manual is not
// safe for concurrent use; it models a host that delivers one callback
// at a time.
type Manual struct {
	now   time.Duration
	queue tickQueue
}

// NewManual returns a scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// ScheduleRepeating arms fn to fire every interval of virtual time,
// starting one interval from now. The interval must be positive.
func (m *Manual) ScheduleRepeating(interval time.Duration, fn func()) Registration {
	if interval <= 0 {
		panic("clock: repeating schedule needs a positive interval")
	}
	p := &pendingTick{
		dueAt:    m.now + interval,
		interval: interval,
		fire:     fn,
	}
	m.queue.insert(p)
	return p
}

// Advance moves virtual time forward by d, firing every registration
// that comes due inside the window, in due order. Each entry is
// re-armed before it fires so the callback can cancel it.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	target := m.now + d
	for {
		due, ok := m.queue.nextDue()
		if !ok || due > target {
			break
		}
		if due > m.now {
			m.now = due
		}
		p := m.queue.popDue(m.now)
		if p == nil {
			continue
		}
		p.dueAt = m.now + p.interval
		m.queue.insert(p)
		if !p.cancelled {
			p.fire()
		}
	}
	m.now = target
}

// pendingTick is one armed registration in the queue.
type pendingTick struct {
	dueAt     time.Duration
	interval  time.Duration
	fire      func()
	cancelled bool
}

func (p *pendingTick) Cancel() {
	if p == nil {
		return
	}
	p.cancelled = true
	p.fire = nil
}

// tickQueue keeps pending registrations ordered by due time. Cancelled
// entries stay in place and are pruned lazily from the front.
type tickQueue []*pendingTick

func (q *tickQueue) insert(p *pendingTick) {
	if p == nil || p.cancelled {
		return
	}
	for i, existing := range *q {
		if p.dueAt < existing.dueAt {
			*q = append(*q, nil)
			copy((*q)[i+1:], (*q)[i:])
			(*q)[i] = p
			return
		}
	}
	*q = append(*q, p)
}

func (q *tickQueue) pruneCancelled() {
	for len(*q) > 0 {
		p := (*q)[0]
		if p == nil || p.cancelled {
			*q = (*q)[1:]
			continue
		}
		break
	}
}

func (q *tickQueue) nextDue() (time.Duration, bool) {
	q.pruneCancelled()
	if len(*q) == 0 {
		return 0, false
	}
	return (*q)[0].dueAt, true
}

func (q *tickQueue) popDue(now time.Duration) *pendingTick {
	q.pruneCancelled()
	if len(*q) == 0 {
		return nil
	}
	p := (*q)[0]
	if p.dueAt > now {
		return nil
	}
	*q = (*q)[1:]
	if p.cancelled {
		return nil
	}
	return p
}
