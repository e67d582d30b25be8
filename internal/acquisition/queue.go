package acquisition

import "sync"

// Queue is an unbounded FIFO between one producer and one consumer.
// Push never blocks. Pop blocks until an item is available or the queue is
// closed; after Close it keeps returning queued items until empty.
type Queue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     []*Snapshot
	closed    bool
	highWater int
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends s and wakes a waiting consumer. It returns false if the queue is closed.
func (q *Queue) Push(s *Snapshot) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, s)
	q.highWater = max(q.highWater, len(q.items))
	q.cond.Signal()
	return true
}

// Pop removes and returns the head. ok is false once the queue is closed and drained.
func (q *Queue) Pop() (s *Snapshot, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	s = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return s, true
}

// Close rejects further pushes and wakes every waiting consumer. Closing twice is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued snapshots.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// HighWater returns the largest depth the queue has reached.
func (q *Queue) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}
