package priority_queue_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/std/types/priority_queue"
	"github.com/stretchr/testify/assert"
)

// Adds elements with varying priorities and checks pop order (lowest first).
func TestBasics(t *testing.T) {
	q := priority_queue.New[int, int]()
	assert.Equal(t, 0, q.Len())
	q.Push(1, 1)
	q.Push(2, 3)
	q.Push(3, 2)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 1, q.PeekPriority())
	assert.Equal(t, 1, q.Pop())
	assert.Equal(t, 2, q.PeekPriority())
	assert.Equal(t, 3, q.Pop())
	assert.Equal(t, 2, q.Pop())
	assert.Equal(t, 0, q.Len())
}

// Remove must drop an item that has not yet reached the front, matching the
// scheduler's cancel(handle) contract: the handle's slot becomes invalid
// and the remaining order is unaffected.
func TestRemove(t *testing.T) {
	q := priority_queue.New[string, int]()
	a := q.Push("a", 5)
	b := q.Push("b", 1)
	c := q.Push("c", 9)
	q.Remove(b)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, "a", q.Pop())
	assert.Equal(t, "c", q.Pop())
	_ = a
	_ = c
}
