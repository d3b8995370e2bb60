// internal/sched/queue.go

package sched

import (
	"iter"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// ReadyQueue holds handles of tasks waiting for the CPU, in arrival order.
type ReadyQueue struct {
	list *doublylinkedlist.List
}

// NewReadyQueue creates an empty queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{list: doublylinkedlist.New()}
}

// Enqueue appends id at the tail.
func (q *ReadyQueue) Enqueue(id TaskID) {
	q.list.Add(id)
}

// DequeueHead removes and returns the head. ok is false on an empty queue.
func (q *ReadyQueue) DequeueHead() (id TaskID, ok bool) {
	v, ok := q.list.Get(0)
	if !ok {
		return 0, false
	}
	q.list.Remove(0)
	return v.(TaskID), true
}

// Remove unlinks id wherever it sits. It reports false if id is not queued.
func (q *ReadyQueue) Remove(id TaskID) bool {
	idx := q.list.IndexOf(id)
	if idx < 0 {
		return false
	}
	q.list.Remove(idx)
	return true
}

// All yields the queued handles head to tail without removing them.
// Each call starts a fresh walk; the queue must not change during one.
func (q *ReadyQueue) All() iter.Seq[TaskID] {
	return func(yield func(TaskID) bool) {
		it := q.list.Iterator()
		for it.Next() {
			if !yield(it.Value().(TaskID)) {
				return
			}
		}
	}
}

// Len is the number of queued handles.
func (q *ReadyQueue) Len() int { return q.list.Size() }

// Empty reports whether nothing is queued.
func (q *ReadyQueue) Empty() bool { return q.list.Empty() }
