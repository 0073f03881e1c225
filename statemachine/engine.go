package statemachine

import (
	"context"
	"errors"
	"time"

	"github.com/amp-labs/amp-fsm/assert"
	"github.com/amp-labs/amp-fsm/logger"
)

// Operate applies the transition for event from the current state, then
// keeps applying the transitions requested by each entered state's OnEntry
// until one returns NoEvent. The whole chain runs under the operate lock.
//
// If ctx is cancelled while waiting for the lock, Operate returns ctx.Err()
// without touching the machine. Once the lock is held the chain runs to
// completion or until Stop is called.
func (m *Machine) Operate(ctx context.Context, event EventID) error {
	if insideMachine(ctx, m.id) {
		return ErrReentrantOperate
	}

	return m.operate(m.baseContext(ctx), event, CauseOperate)
}

// EnqueueOperate queues event for the dispatch worker and returns at once.
// Failures are reported through the logging hooks only. Events enqueued
// after Stop are dropped.
func (m *Machine) EnqueueOperate(event EventID) {
	if m.stopping.Load() || !m.queue.push(event) {
		m.drop(m.baseContext(context.Background()), event, ErrStoppedMachine)

		return
	}

	dispatchQueueDepth.WithLabelValues(m.name).Set(float64(m.queue.len()))
}

func (m *Machine) dispatch(event EventID) {
	dispatchQueueDepth.WithLabelValues(m.name).Set(float64(m.queue.len()))

	ctx := m.baseContext(context.Background())

	err := m.operate(ctx, event, CauseAsync)
	switch {
	case err == nil:
	case errors.Is(err, ErrStoppedMachine):
		m.drop(ctx, event, err)
	default:
		eventsDroppedTotal.WithLabelValues(m.name, dropReasonFailed).Inc()
		m.opts.hooks.OperateFailed(ctx, event,
			logger.AnnotateError(err, "state", m.CurrentState(), "cause", CauseAsync))
	}
}

func (m *Machine) drop(ctx context.Context, event EventID, reason error) {
	eventsDroppedTotal.WithLabelValues(m.name, dropReasonStopped).Inc()
	m.opts.hooks.EventDropped(ctx, event, reason)
}

func (m *Machine) operate(ctx context.Context, event EventID, cause Cause) (err error) {
	switch {
	case m.stopping.Load():
		return ErrStoppedMachine
	case m.Status() == NotStarted:
		return ErrNotStarted
	}

	if err := m.acquire(ctx); err != nil {
		return err
	}

	defer m.release()

	// Stop may have begun while this call was waiting.
	if m.stopping.Load() {
		return ErrStoppedMachine
	}

	ctx, span := startOperateSpan(ctx, m, event, cause)
	started := time.Now()

	defer func() {
		operateDuration.WithLabelValues(m.name, string(cause), outcomeOf(err)).
			Observe(time.Since(started).Seconds())
		endSpan(span, err)
	}()

	return m.runChain(ctx, event, cause)
}

// enterStart is the second half of Start. The caller holds the lock.
func (m *Machine) enterStart(ctx context.Context, async bool) (err error) {
	defer m.release()

	ctx, span := startOperateSpan(ctx, m, NoEvent, CauseStart)
	started := time.Now()

	defer func() {
		operateDuration.WithLabelValues(m.name, string(CauseStart), outcomeOf(err)).
			Observe(time.Since(started).Seconds())
		endSpan(span, err)
	}()

	start, err := m.states.get(m.states.start)
	if err != nil {
		return err
	}

	m.current = start.id
	m.armTimeout(ctx, start.id)

	rec := m.record(NoEvent, "", start.id, CauseStart)
	m.opts.hooks.StateEntered(ctx, start.id, start.group)
	m.notify(rec)

	next := start.impl.OnEntry(withStep(ctx, m.id, rec))
	if next == NoEvent {
		return nil
	}

	if async {
		m.EnqueueOperate(next)

		return nil
	}

	return m.runChain(ctx, next, CauseEntry)
}

// onTimeout runs on the timer goroutine when a timeout expires.
func (m *Machine) onTimeout(generation uint64, state StateID, event EventID) {
	ctx := m.baseContext(context.Background())

	if err := m.acquire(ctx); err != nil {
		return
	}

	defer m.release()

	if m.stopping.Load() {
		return
	}

	if !m.timeouts.claim(generation) {
		timeoutsTotal.WithLabelValues(m.name, string(state), outcomeStale).Inc()

		return
	}

	assert.True(m.current == state, "timeout fired for", state, "while in", m.current)

	timeoutsTotal.WithLabelValues(m.name, string(state), outcomeFired).Inc()
	m.opts.hooks.TimeoutFired(ctx, state, event)

	ctx, span := startOperateSpan(ctx, m, event, CauseTimeout)
	started := time.Now()

	err := m.runChain(ctx, event, CauseTimeout)

	operateDuration.WithLabelValues(m.name, string(CauseTimeout), outcomeOf(err)).
		Observe(time.Since(started).Seconds())
	endSpan(span, err)

	if err != nil {
		m.opts.hooks.OperateFailed(ctx, event,
			logger.AnnotateError(err, "state", m.current, "cause", CauseTimeout))
	}
}

// runChain applies event and every follow-up event returned by OnEntry. It
// stops early, leaving the machine in the last entered state, once Stop has
// been called. The caller holds the lock.
func (m *Machine) runChain(ctx context.Context, event EventID, cause Cause) error {
	for event != NoEvent {
		if m.stopping.Load() {
			return nil
		}

		next, err := m.step(ctx, event, cause)
		if err != nil {
			if errors.Is(err, ErrUndefinedTransition) && m.opts.ignoreUndefined {
				undefinedEventsTotal.WithLabelValues(m.name, string(m.current), string(event), outcomeIgnored).Inc()

				return nil
			}

			if errors.Is(err, ErrUndefinedTransition) {
				undefinedEventsTotal.WithLabelValues(m.name, string(m.current), string(event), outcomeRejected).Inc()
			}

			return err
		}

		event = next
		cause = CauseEntry
	}

	return nil
}

// step applies a single transition and returns the event requested by the
// entered state. The caller holds the lock.
func (m *Machine) step(ctx context.Context, event EventID, cause Cause) (EventID, error) {
	from := m.current

	tr, err := m.transitions.resolve(from, event)
	if err != nil {
		return NoEvent, err
	}

	source, err := m.states.get(from)
	if err != nil {
		return NoEvent, err
	}

	target, err := m.states.get(tr.to)
	if err != nil {
		return NoEvent, WrapTransitionError(from, event, tr.to, err)
	}

	ctx, span := startTransitionSpan(ctx, from, event, tr.to)
	defer span.End()

	rec := m.record(event, from, tr.to, cause)
	cbCtx := withStep(ctx, m.id, rec)

	m.timeouts.disarm()

	source.impl.OnExit(cbCtx)
	m.opts.hooks.StateExited(ctx, from, source.group)

	if tr.action != nil {
		tr.action(cbCtx, tr.args...)
	}

	m.current = tr.to

	m.armTimeout(ctx, tr.to)

	transitionsTotal.WithLabelValues(m.name, string(from), string(tr.to), sanitizeEvent(event), string(cause)).Inc()
	m.opts.hooks.TransitionExecuted(ctx, rec)

	if m.opts.onChange != nil {
		m.opts.onChange(from, tr.to)
	}

	m.notify(rec)

	m.opts.hooks.StateEntered(ctx, tr.to, target.group)

	return target.impl.OnEntry(cbCtx), nil
}

// armTimeout arms the timeout bound to state, if any. A binding whose event
// has no transition out of state is reported and left unarmed; it never
// fails the transition that entered state. The caller holds the lock.
func (m *Machine) armTimeout(ctx context.Context, state StateID) {
	armed, err := m.timeouts.arm(state, m.transitions.has, m.onTimeout)
	if err != nil {
		timeoutsTotal.WithLabelValues(m.name, string(state), outcomeDangling).Inc()
		m.opts.hooks.OperateFailed(ctx, NoEvent, logger.AnnotateError(err, "state", state))

		return
	}

	if armed {
		b, _ := m.timeouts.binding(state)

		timeoutsTotal.WithLabelValues(m.name, string(state), outcomeArmed).Inc()
		m.opts.hooks.TimeoutArmed(ctx, state, b.event, b.after)
	}
}

// record builds the TransitionRecord for the next step. The caller holds the lock.
func (m *Machine) record(event EventID, from, to StateID, cause Cause) TransitionRecord {
	m.steps++

	return TransitionRecord{
		Machine:   m.name,
		MachineID: m.id,
		Step:      m.steps,
		From:      from,
		To:        to,
		Event:     event,
		Cause:     cause,
		At:        time.Now(),
	}
}

// notify hands rec to the observers on the machine's notifier goroutine.
func (m *Machine) notify(rec TransitionRecord) {
	if m.notifier == nil {
		return
	}

	observers := m.opts.observers

	m.notifier.Submit(func() {
		for _, obs := range observers {
			obs(rec)
		}
	})
}
