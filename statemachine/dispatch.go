package statemachine

import (
	"sync"

	"github.com/amp-labs/amp-fsm/channels"
)

// dispatchQueue is an unbounded FIFO of events drained by a single worker.
// Closing the queue ends the worker once every queued event was handled.
type dispatchQueue struct {
	mu      sync.Mutex
	closed  bool
	started bool
	in      chan<- EventID
	out     <-chan EventID
	size    func() int
	done    chan struct{}
}

func newDispatchQueue() *dispatchQueue {
	in, out, size := channels.InfiniteChan[EventID]()

	return &dispatchQueue{
		in:   in,
		out:  out,
		size: size,
		done: make(chan struct{}),
	}
}

// start launches the worker. Calling it more than once is a no-op.
func (q *dispatchQueue) start(handle func(EventID)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}

	q.started = true

	go func() {
		defer close(q.done)

		for event := range q.out {
			handle(event)
		}
	}()
}

// push appends an event. It reports false once the queue is closed.
func (q *dispatchQueue) push(event EventID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.in <- event

	return true
}

// close stops accepting events and blocks until the worker has exited. If
// the worker was never started, it returns immediately.
func (q *dispatchQueue) close() {
	q.mu.Lock()

	if !q.closed {
		q.closed = true
		channels.CloseChannelIgnorePanic(q.in)
	}

	started := q.started
	q.mu.Unlock()

	if started {
		<-q.done
	}
}

func (q *dispatchQueue) len() int {
	return q.size()
}
