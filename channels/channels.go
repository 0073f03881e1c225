// Package channels provides channel helpers used by the state machine's dispatch queue.
package channels

import "go.uber.org/atomic"

// CloseChannelIgnorePanic closes a channel like normal.
// However, if the channel has already been closed,
// it will suppress the resulting panic.
func CloseChannelIgnorePanic[T any](ch chan<- T) {
	if ch == nil {
		return
	}

	defer func() {
		// Recover from panic if the channel is already closed
		_ = recover()
	}()

	close(ch)
}

// Create returns a send-only channel, a receive-only channel and a function
// reporting how many values are currently buffered between them.
//
// A size of zero creates an unbuffered channel, a positive size creates a
// buffered channel of that capacity and a negative size creates an infinitely
// buffered channel (see InfiniteChan).
func Create[T any](size int) (chan<- T, <-chan T, func() int) {
	if size < 0 {
		return InfiniteChan[T]()
	}

	ch := make(chan T, size)

	return ch, ch, func() int {
		return len(ch)
	}
}

// InfiniteChan creates a channel with infinite buffering.
// It returns a send-only channel, a receive-only channel and a length function.
// The send-only channel can be used to send values without blocking.
// The receive-only channel yields values in the order they were sent, and is
// closed once the input channel has been closed and every queued value delivered.
//
// Note: Use with caution as it can lead to high memory usage if the sender outpaces
// the receiver. The length function is there so callers can monitor the queue.
func InfiniteChan[A any]() (chan<- A, <-chan A, func() int) {
	inputCh := make(chan A)
	outputCh := make(chan A)
	queued := atomic.NewInt64(0)

	go func() {
		// Internal queue to store values between receives and sends
		var inputQueue []A

		in := inputCh

		// outCh returns the output channel only when there's data to send
		// Returns nil when queue is empty to disable this select case
		outCh := func() chan A {
			if len(inputQueue) == 0 {
				return nil
			}

			return outputCh
		}

		// curVal returns the first value in the queue, or zero value if empty
		curVal := func() A {
			if len(inputQueue) == 0 {
				var zero A

				return zero
			}

			return inputQueue[0]
		}

		// Continue until queue is drained and input channel is closed
		for len(inputQueue) > 0 || in != nil {
			select {
			case v, ok := <-in:
				if !ok {
					// Input closed, set to nil to disable this case
					in = nil
				} else {
					inputQueue = append(inputQueue, v)
					queued.Inc()
				}
			case outCh() <- curVal():
				var zero A

				inputQueue[0] = zero
				inputQueue = inputQueue[1:]
				queued.Dec()
			}
		}

		close(outputCh)
	}()

	return inputCh, outputCh, func() int {
		return int(queued.Load())
	}
}
