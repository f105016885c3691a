// Package cmdqueue buffers ref commands issued before the map engine is ready.
package cmdqueue

// Queue is a bounded FIFO. Commands pushed with the same non-empty key
// collapse: the earlier one is dropped and the new one joins the tail, so a
// burst of camera moves replays only the most recent target.
// It is not safe for concurrent use.
type Queue[T any] struct {
	cap   int
	items []entry[T]

	collapsed int
	overflow  int
}

type entry[T any] struct {
	key string
	cmd T
}

func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 16
	}
	return &Queue[T]{cap: capacity}
}

// Push appends cmd. It reports whether an earlier command was superseded.
func (q *Queue[T]) Push(key string, cmd T) (collapsed bool) {
	if key != "" {
		for i := range q.items {
			if q.items[i].key == key {
				q.items = append(q.items[:i], q.items[i+1:]...)
				q.collapsed++
				collapsed = true
				break
			}
		}
	}
	if len(q.items) >= q.cap {
		q.items = q.items[1:]
		q.overflow++
	}
	q.items = append(q.items, entry[T]{key: key, cmd: cmd})
	return collapsed
}

// Drain returns the queued commands in order and empties the queue.
func (q *Queue[T]) Drain() []T {
	out := make([]T, len(q.items))
	for i, e := range q.items {
		out[i] = e.cmd
	}
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int { return len(q.items) }

// Reset discards every queued command.
func (q *Queue[T]) Reset() { q.items = nil }

func (q *Queue[T]) Collapsed() int { return q.collapsed }

// Overflow is the number of commands dropped because the queue was full.
func (q *Queue[T]) Overflow() int { return q.overflow }
