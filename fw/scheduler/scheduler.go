// Package scheduler implements the forwarder's single monotonic-deadline
// priority queue: every timed callback in the forwarder - PIT aging, face
// and propagating-entry reaping, content-store cleaning, propagation
// pacing, content delivery, status-snapshot updates - goes through this one scheduler rather than spawning its own goroutine
// or timer, which is what keeps the whole forwarder on one cooperative
// task.
package scheduler

import (
	"fmt"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/std/types/priority_queue"
)

func (s *Scheduler) String() string { return "scheduler" }

// Callback is invoked with the payload given at schedule time, at or after
// the requested deadline.
type Callback func(payload any)

type event struct {
	cb      Callback
	payload any
	period  int64 // microseconds; 0 for a one-shot event
	self    *priority_queue.Item[*event, int64]
}

// Handle identifies a scheduled event for Cancel. A handle from a fired
// one-shot event, or from an event already cancelled, is safe to pass to
// Cancel again - it is simply not found.
type Handle struct {
	item *priority_queue.Item[*event, int64]
}

// Scheduler is a monotonic microsecond-deadline priority queue. Not safe
// for concurrent use - callers only ever touch it from the forwarder's one
// task.
type Scheduler struct {
	pq  priority_queue.Queue[*event, int64]
	now int64 // current virtual clock, microseconds since Scheduler creation
}

// New returns an empty Scheduler with its virtual clock at zero.
func New() *Scheduler {
	return &Scheduler{pq: priority_queue.New[*event, int64]()}
}

// Now returns the scheduler's current virtual clock value, in microseconds.
// The event loop advances this via Advance before each RunDue call.
func (s *Scheduler) Now() int64 { return s.now }

// Advance moves the virtual clock forward by deltaMicros. The event loop
// calls this with the real elapsed time measured between epoll_wait calls.
func (s *Scheduler) Advance(deltaMicros int64) {
	if deltaMicros > 0 {
		s.now += deltaMicros
	}
}

// Schedule arranges for cb(payload) to run no earlier than delayMicros from
// now. If period is nonzero, the event reschedules itself every period
// microseconds after it fires, until cancelled - used for the aging,
// reaping, cleaning and status-update timers that recur for the life of
// the process.
func (s *Scheduler) Schedule(delayMicros int64, cb Callback, payload any, period int64) Handle {
	ev := &event{cb: cb, payload: payload, period: period}
	item := s.pq.Push(ev, s.now+delayMicros)
	ev.self = item
	return Handle{item: item}
}

// Cancel removes a scheduled event. A no-op if the event already fired (for
// a one-shot) or was already cancelled.
func (s *Scheduler) Cancel(h Handle) {
	if h.item == nil {
		return
	}
	s.pq.Remove(h.item)
}

// RunDue fires every event whose deadline is at or before the scheduler's
// current virtual clock, and returns the number of microseconds until the
// next pending deadline (or -1 if the queue is empty) - the value the
// event loop passes as its epoll_wait timeout.
func (s *Scheduler) RunDue() int64 {
	for s.pq.Len() > 0 && s.pq.PeekPriority() <= s.now {
		ev := s.pq.Peek()
		item := ev.self
		if ev.period <= 0 {
			// One-shot: remove now, before running, so a callback that
			// inspects the queue never sees its own still-pending event.
			s.pq.Remove(item)
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					core.Log.Error(s, "scheduled callback panicked", "panic", fmt.Sprint(r))
				}
			}()
			ev.cb(ev.payload)
		}()
		if ev.period > 0 && item.Live() {
			s.pq.UpdatePriority(item, s.now+ev.period)
		}
	}
	if s.pq.Len() == 0 {
		return -1
	}
	next := s.pq.PeekPriority() - s.now
	if next < 0 {
		next = 0
	}
	return next
}
