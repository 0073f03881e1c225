package testing

import (
	"sync"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// TraceRecorder collects TransitionRecords delivered to a machine observer.
type TraceRecorder struct {
	mu      sync.Mutex
	records []statemachine.TransitionRecord
	changed chan struct{}
}

// NewTraceRecorder creates an empty recorder. Pass its Observe method to
// statemachine.WithObserver.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{
		changed: make(chan struct{}),
	}
}

// Observe appends a record.
func (r *TraceRecorder) Observe(rec statemachine.TransitionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)

	close(r.changed)
	r.changed = make(chan struct{})
}

// Records returns a copy of everything observed so far.
func (r *TraceRecorder) Records() []statemachine.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]statemachine.TransitionRecord(nil), r.records...)
}

// Path returns the entered states in order, starting with the start state.
func (r *TraceRecorder) Path() []statemachine.StateID {
	records := r.Records()
	path := make([]statemachine.StateID, len(records))

	for i, rec := range records {
		path[i] = rec.To
	}

	return path
}

// WaitForSteps blocks until at least n records were observed or timeout
// passes. It reports whether n was reached.
func (r *TraceRecorder) WaitForSteps(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		r.mu.Lock()
		count := len(r.records)
		changed := r.changed
		r.mu.Unlock()

		if count >= n {
			return true
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// Reset forgets all records.
func (r *TraceRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
}
