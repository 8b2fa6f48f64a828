package queue

import "errors"

// Queue is a FIFO queue. The zero value is an empty queue.
type Queue[E any] struct {
	elements []E
	head     int
}

func (q *Queue[E]) Push(e E) {
	q.elements = append(q.elements, e)
}

func (q *Queue[E]) Empty() bool {
	return q.head == len(q.elements)
}

// Len returns the number of elements in the queue.
func (q *Queue[E]) Len() int {
	return len(q.elements) - q.head
}

var ErrEmpty = errors.New("Queue is empty")

func (q *Queue[E]) Pop() E {
	if q.Empty() {
		panic(ErrEmpty)
	}

	var zero E
	e := q.elements[q.head]
	q.elements[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head >= 64 && q.head*2 >= len(q.elements) {
		n := copy(q.elements, q.elements[q.head:])
		for i := n; i < len(q.elements); i++ {
			q.elements[i] = zero
		}
		q.elements = q.elements[:n]
		q.head = 0
	}

	return e
}
