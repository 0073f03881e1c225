package statemachine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"facette.io/natsort"
	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/shutdown"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// Machine is a finite state machine driven by events. Registration (states,
// transitions, timeouts) happens before Start; afterwards every state change
// goes through a single operate lock, whichever of Operate, EnqueueOperate
// or an expiring timeout triggered it.
type Machine struct {
	id   string
	name string
	opts *options

	states      stateRegistry
	transitions transitionTable
	timeouts    *timeoutScheduler
	queue       *dispatchQueue

	// lock is the operate lock. It guards current, steps and timeouts.
	lock    *semaphore.Weighted
	current StateID
	steps   uint64

	status   *atomic.Int32
	stopping *atomic.Bool
	// Copies of current and the armed timeout state, refreshed on every lock
	// release, for lock-free readers.
	published      *atomic.String
	publishedArmed *atomic.String

	lifecycle    sync.Mutex
	stopOnce     sync.Once
	stopped      chan struct{}
	stopShutdown func()

	notifier pond.Pool
}

// NewMachine creates an empty machine.
func NewMachine(opts ...Option) *Machine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Machine{
		id:             uuid.NewString(),
		name:           o.name,
		opts:           o,
		states:         newStateRegistry(),
		transitions:    newTransitionTable(),
		timeouts:       newTimeoutScheduler(),
		queue:          newDispatchQueue(),
		lock:           semaphore.NewWeighted(1),
		status:         atomic.NewInt32(int32(NotStarted)),
		stopping:       atomic.NewBool(false),
		published:      atomic.NewString(""),
		publishedArmed: atomic.NewString(""),
		stopped:        make(chan struct{}),
	}

	if dl, ok := o.hooks.(*DefaultLogger); ok && dl.logger != nil {
		m.opts.hooks = NewDefaultLogger(dl.logger.With("machine", m.name, "machine_id", m.id))
	}

	if len(o.observers) > 0 {
		m.notifier = pond.NewPool(1)
	}

	return m
}

// ID returns the unique instance id of the machine.
func (m *Machine) ID() string {
	return m.id
}

// Name returns the machine name.
func (m *Machine) Name() string {
	return m.name
}

// Status returns the lifecycle phase.
func (m *Machine) Status() Status {
	return Status(m.status.Load())
}

// CurrentState returns the state the machine was in when the operate lock
// was last released. A chain triggered by one event is never observed
// halfway. Before Start it returns "".
func (m *Machine) CurrentState() StateID {
	return StateID(m.published.Load())
}

// CurrentGroup returns the group of the current state.
func (m *Machine) CurrentGroup() string {
	current := m.CurrentState()
	if current == "" {
		return ""
	}

	state, err := m.states.get(current)
	if err != nil {
		return ""
	}

	return state.group
}

// TimeoutArmed reports the state whose timeout is pending, if any.
func (m *Machine) TimeoutArmed() (StateID, bool) {
	armed := m.publishedArmed.Load()

	return StateID(armed), armed != ""
}

// States returns every registered state id in natural order.
func (m *Machine) States() []StateID {
	return m.states.ids("")
}

// StatesInGroup returns the ids of the states registered in group.
func (m *Machine) StatesInGroup(group string) []StateID {
	if group == "" {
		group = DefaultGroup
	}

	return m.states.ids(group)
}

// Transitions returns a snapshot of the transition table.
func (m *Machine) Transitions() []TransitionInfo {
	return m.transitions.snapshot()
}

// Timeouts returns a snapshot of the timeout bindings ordered by state. It
// takes the operate lock and must not be called from a callback.
func (m *Machine) Timeouts() []TimeoutInfo {
	// Acquire cannot fail with a background context.
	_ = m.lock.Acquire(context.Background(), 1)
	out := m.timeouts.snapshot()
	m.release()

	sort.Slice(out, func(i, j int) bool {
		return natsort.Compare(string(out[i].State), string(out[j].State))
	})

	return out
}

// Group returns the group a state was registered in.
func (m *Machine) Group(id StateID) (string, error) {
	state, err := m.states.get(id)
	if err != nil {
		return "", err
	}

	return state.group, nil
}

// StartState returns the configured start state.
func (m *Machine) StartState() StateID {
	return m.states.start
}

// AddState registers a state. An empty group means DefaultGroup; a nil state
// behaves like NopState.
func (m *Machine) AddState(id StateID, state State, group string) error {
	if err := m.checkSetup(); err != nil {
		return err
	}

	return m.states.add(id, state, group)
}

// SetStart selects the state entered by Start.
func (m *Machine) SetStart(id StateID) error {
	if err := m.checkSetup(); err != nil {
		return err
	}

	return m.states.setStart(id)
}

// AddTransition defines the transition taken when event occurs in from.
// Defining the same (from, event) pair twice keeps the last definition.
func (m *Machine) AddTransition(from StateID, event EventID, to StateID, action Action, args ...any) error {
	if err := m.checkSetup(); err != nil {
		return err
	}

	if event == NoEvent {
		return WrapTransitionError(from, event, to, fmt.Errorf("%w: empty event", ErrInvalidConfig))
	}

	for _, id := range []StateID{from, to} {
		if !m.states.has(id) {
			return WrapTransitionError(from, event, to, fmt.Errorf("%w: %s", ErrUnknownState, id))
		}
	}

	if m.transitions.add(from, event, to, action, args) {
		logger.Get().Debug("transition replaced",
			"machine", m.name, "from", from, "event", event, "to", to)
	}

	return nil
}

// AddTimeout binds a timeout to state: after the state has been current for
// the given duration, event is operated. A later call for the same state
// replaces the binding. The event is only checked against the transition
// table when the timer is armed.
//
// After Start the binding takes effect immediately, re-arming the timer when
// state is current. It must not be called from a state or action callback.
func (m *Machine) AddTimeout(state StateID, event EventID, after time.Duration) error {
	return m.withTimeouts(state, func() error {
		return m.timeouts.bind(state, event, after)
	})
}

// UpdateTimeout is AddTimeout for a state that already has a binding. It
// fails with ErrNoExistingBinding otherwise.
func (m *Machine) UpdateTimeout(state StateID, event EventID, after time.Duration) error {
	return m.withTimeouts(state, func() error {
		return m.timeouts.rebind(state, event, after)
	})
}

func (m *Machine) withTimeouts(state StateID, change func() error) error {
	if m.stopping.Load() {
		return ErrStoppedMachine
	}

	ctx := m.baseContext(context.Background())

	if err := m.acquire(ctx); err != nil {
		return err
	}

	defer m.release()

	if err := change(); err != nil {
		return err
	}

	if m.Status() == Started && m.current == state {
		m.armTimeout(ctx, state)
	}

	return nil
}

// Validate checks the whole definition: a start state is set and every
// timeout event has a transition out of its state. All problems are
// reported together. Start is more lenient: it leaves timeout events to be
// checked when their timer is armed.
func (m *Machine) Validate() error {
	// Acquire cannot fail with a background context.
	_ = m.lock.Acquire(context.Background(), 1)
	defer m.release()

	return m.validate(true)
}

// Start enters the start state: it arms the start state's timeout and calls
// its OnEntry. When async is false the event returned by OnEntry is
// processed before Start returns, together with any chain it triggers; when
// async is true it is queued instead.
//
// Start fails with ErrNoStartState when no start state is set. A timeout
// whose event has no transition does not stop Start; it is reported through
// the OperateFailed hook when its state is entered. Calling Start on a
// running machine is a caller error and returns ErrAlreadyStarted; after
// Stop it returns ErrStoppedMachine.
func (m *Machine) Start(ctx context.Context, async bool) error {
	ctx = m.baseContext(ctx)

	m.lifecycle.Lock()

	switch m.Status() {
	case NotStarted:
	case Started:
		m.lifecycle.Unlock()

		return ErrAlreadyStarted
	default:
		m.lifecycle.Unlock()

		return ErrStoppedMachine
	}

	// Nothing else can hold the lock yet except a concurrent AddTimeout.
	if err := m.acquire(ctx); err != nil {
		m.lifecycle.Unlock()

		return err
	}

	if err := m.validate(false); err != nil {
		m.lock.Release(1)
		m.lifecycle.Unlock()

		return err
	}

	m.status.Store(int32(Started))
	m.queue.start(m.dispatch)

	if m.opts.stopOnShutdown {
		m.stopShutdown = shutdown.BeforeShutdown(func() {
			_ = m.Stop()
		})
	}

	m.lifecycle.Unlock()

	machinesRunning.WithLabelValues(m.name).Inc()

	return m.enterStart(ctx, async)
}

// Stop shuts the machine down and blocks until it is quiescent: no timer is
// armed, the dispatch worker has exited and no callback is running. Events
// still queued are dropped. Stop is idempotent and safe to call concurrently,
// but must not be called from a state or action callback.
func (m *Machine) Stop() error {
	m.stopOnce.Do(m.shutdown)
	<-m.stopped

	return nil
}

// Close is Stop, so a Machine can be released as an io.Closer.
func (m *Machine) Close() error {
	return m.Stop()
}

func (m *Machine) shutdown() {
	defer close(m.stopped)

	m.lifecycle.Lock()
	wasStarted := m.Status() == Started
	m.stopping.Store(true)
	m.status.Store(int32(Stopping))
	m.lifecycle.Unlock()

	ctx := m.baseContext(context.Background())

	if m.stopShutdown != nil {
		m.stopShutdown()
	}

	// Waits for a running chain, which ends at its next step boundary.
	_ = m.lock.Acquire(ctx, 1)
	m.timeouts.disarm()
	m.release()

	m.queue.close()

	if m.notifier != nil {
		m.notifier.StopAndWait()
	}

	m.status.Store(int32(Stopped))

	if wasStarted {
		machinesRunning.WithLabelValues(m.name).Dec()
	}

	logger.Get(ctx).Debug("machine stopped")
}

func (m *Machine) checkSetup() error {
	switch m.Status() {
	case NotStarted:
		return nil
	case Started:
		return ErrAlreadyStarted
	default:
		return ErrStoppedMachine
	}
}

// baseContext attaches the machine identity to ctx for the logger package.
func (m *Machine) baseContext(ctx context.Context) context.Context {
	return logger.With(ctx, "machine", m.name, "machine_id", m.id)
}

func (m *Machine) acquire(ctx context.Context) error {
	return m.lock.Acquire(ctx, 1)
}

// release publishes the state visible to lock-free readers and unlocks.
func (m *Machine) release() {
	m.published.Store(string(m.current))

	armed, _ := m.timeouts.armed()
	m.publishedArmed.Store(string(armed))

	m.lock.Release(1)
}
