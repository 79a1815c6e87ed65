package scheduler_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	"github.com/stretchr/testify/require"
)

// Events fire in deadline order, and RunDue reports the microseconds until
// the next pending deadline once the due ones have fired.
func TestScheduleOrderAndNextDeadline(t *testing.T) {
	s := scheduler.New()
	var order []string

	s.Schedule(30, func(any) { order = append(order, "c") }, nil, 0)
	s.Schedule(10, func(any) { order = append(order, "a") }, nil, 0)
	s.Schedule(20, func(any) { order = append(order, "b") }, nil, 0)

	s.Advance(25)
	next := s.RunDue()
	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, int64(5), next)

	s.Advance(5)
	next = s.RunDue()
	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Equal(t, int64(-1), next)
}

// Cancel removes an event before it fires, and is a harmless no-op if
// called again afterward.
func TestCancel(t *testing.T) {
	s := scheduler.New()
	fired := false
	h := s.Schedule(10, func(any) { fired = true }, nil, 0)
	s.Cancel(h)

	s.Advance(100)
	s.RunDue()
	require.False(t, fired)

	s.Cancel(h) // no-op, must not panic
}

// A periodic event keeps firing at its period until cancelled, and
// cancelling it from inside its own callback stops further firings.
func TestPeriodicAndSelfCancel(t *testing.T) {
	s := scheduler.New()
	count := 0
	var h scheduler.Handle
	h = s.Schedule(10, func(any) {
		count++
		if count == 3 {
			s.Cancel(h)
		}
	}, nil, 10)

	for i := 0; i < 5; i++ {
		s.Advance(10)
		s.RunDue()
	}
	require.Equal(t, 3, count)
}
