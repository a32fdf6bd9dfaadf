package dispatch

import (
	"sync"

	"pricebook/domain"
	"pricebook/orderbook"
)

// job binds an update to the book it was dispatched against
type job struct {
	book   *orderbook.OrderBook
	update domain.DiffUpdate
}

// updateQueue is an unbounded multi-producer single-consumer FIFO
// Producers append under the mutex and poke the 1-buffered signal channel;
// the consumer swaps out the whole pending slice at once (batch consume), so
// the lock is held for O(1) on both sides.
type updateQueue struct {
	mu     sync.Mutex
	items  []job
	closed bool
	signal chan struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{
		signal: make(chan struct{}, 1),
	}
}

// push appends a job. Returns false once the queue is closed.
func (q *updateQueue) push(j job) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, j)
	q.mu.Unlock()

	q.wake()
	return true
}

// drain hands every pending job to the consumer and installs spare as the new
// backing slice. closed reports whether no more jobs can arrive.
func (q *updateQueue) drain(spare []job) (batch []job, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch = q.items
	q.items = spare[:0]
	return batch, q.closed
}

// close stops accepting jobs; jobs already queued are still drained
func (q *updateQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *updateQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
