package generator

import "github.com/wfunc/tetris/piece"

// DefaultQueueSize is how many upcoming types are visible.
const DefaultQueueSize = 3

// Source supplies piece types. *Bag is the production source.
type Source interface {
	Next() piece.Type
}

// Queue is the look-ahead list of upcoming types. It is kept at capacity
// before and after every pop.
type Queue struct {
	source   Source
	capacity int
	items    []piece.Type
}

// NewQueue fills a queue of the given capacity from source.
func NewQueue(source Source, capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultQueueSize
	}
	q := &Queue{
		source:   source,
		capacity: capacity,
		items:    make([]piece.Type, 0, capacity),
	}
	q.refill()
	return q
}

// Pop removes and returns the front type.
func (q *Queue) Pop() piece.Type {
	q.refill()
	t := q.items[0]
	q.items = append(q.items[:0], q.items[1:]...)
	q.refill()
	return t
}

// Peek returns the upcoming types, front first.
func (q *Queue) Peek() []piece.Type {
	return append([]piece.Type(nil), q.items...)
}

func (q *Queue) Len() int      { return len(q.items) }
func (q *Queue) Capacity() int { return q.capacity }

func (q *Queue) refill() {
	for len(q.items) < q.capacity {
		q.items = append(q.items, q.source.Next())
	}
}
