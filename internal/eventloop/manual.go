package eventloop

import (
	"slices"
	"time"
)

// Manual is a Loop driven by hand with a virtual clock.
// Nothing runs until Flush or Advance is called, which makes timer-heavy
// code deterministic under test. Manual is not safe for concurrent use.
type Manual struct {
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    uint64
}

// NewManual creates a Manual loop whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Post queues fn until the next Flush.
func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// AfterFunc registers fn to fire once the virtual clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{loop: m, when: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Go runs work immediately on the caller and queues done.
func (m *Manual) Go(work func(), done func()) {
	work()
	m.Post(done)
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Time {
	return m.now
}

// Flush runs queued callbacks, including ones queued while flushing.
func (m *Manual) Flush() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline
// order and flushing the queue after each one.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Flush()
	for {
		t := m.earliest()
		if t == nil || t.when.After(target) {
			break
		}
		m.remove(t)
		if t.when.After(m.now) {
			m.now = t.when
		}
		t.fn()
		m.Flush()
	}
	m.now = target
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (m *Manual) PendingTimers() int {
	return len(m.timers)
}

func (m *Manual) earliest() *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	return slices.MinFunc(m.timers, func(a, b *manualTimer) int {
		if c := a.when.Compare(b.when); c != 0 {
			return c
		}
		if a.seq < b.seq {
			return -1
		}
		return 1
	})
}

func (m *Manual) remove(t *manualTimer) bool {
	idx := slices.Index(m.timers, t)
	if idx < 0 {
		return false
	}
	m.timers = slices.Delete(m.timers, idx, idx+1)
	return true
}

type manualTimer struct {
	loop *Manual
	when time.Time
	seq  uint64
	fn   func()
}

func (t *manualTimer) Stop() bool {
	return t.loop.remove(t)
}
