package tablefsm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Machine is the runtime FSM instance.
//
// All mutation funnels through Fire and the internal timer callback, which
// serialize on one mutex. Guards, actions and callbacks run inside that
// critical section and must not call Fire on the same machine.
type Machine[S State, E comparable, L, G any] struct {
	id      string
	tables  []*Table[S, E, L, G] // Indexed by ordinal, nil for undeclared states
	initial S

	mu      sync.Mutex
	current S
	cursor  int // Sequence cursor, -1 when idle
	locals  []*L
	global  *G

	clock    clockwork.Clock
	timer    clockwork.Timer
	timerGen uint64
	closed   bool

	logger              *zap.Logger
	metrics             *Metrics
	errorHandler        func(err error)
	stateChangeCallback func(from, to S)
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*machineOptions)

type machineOptions struct {
	id           string
	logger       *zap.Logger
	clock        clockwork.Clock
	metrics      *Metrics
	errorHandler func(err error)
}

// WithLogger sets the logger for the machine
func WithLogger(logger *zap.Logger) MachineOption {
	return func(o *machineOptions) {
		o.logger = logger
	}
}

// WithClock sets the clock driving timeout transitions
func WithClock(clock clockwork.Clock) MachineOption {
	return func(o *machineOptions) {
		o.clock = clock
	}
}

// WithID sets the machine id used in logs. Defaults to a random UUID.
func WithID(id string) MachineOption {
	return func(o *machineOptions) {
		o.id = id
	}
}

// WithMetrics records transitions and timer activity on m
func WithMetrics(m *Metrics) MachineOption {
	return func(o *machineOptions) {
		o.metrics = m
	}
}

// WithErrorHandler receives errors raised on the timer path, where no Fire
// caller exists to return them to. Errors are *TimeoutError values. The
// handler runs on the timer goroutine after the machine lock is released, so
// it may query the machine or call Fire.
func WithErrorHandler(fn func(err error)) MachineOption {
	return func(o *machineOptions) {
		o.errorHandler = fn
	}
}

// NewMachine builds a machine from tables indexed by state ordinal and enters
// initial. global, if non-nil, materializes the machine-wide context. The
// tables are frozen and must not be modified afterwards.
func NewMachine[S State, E comparable, L, G any](tables []*Table[S, E, L, G], initial S, global func() G, opts ...MachineOption) (*Machine[S, E, L, G], error) {
	o := machineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.logger == nil {
		o.logger = zap.L()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}

	n := cardinality[S]()
	if len(tables) != n {
		return nil, configurationError(initial, "expected %d tables, got %d", n, len(tables))
	}
	for i, t := range tables {
		if t != nil && t.state.Ordinal() != i {
			return nil, configurationError(t.state, "table registered at ordinal %d", i)
		}
	}

	m := &Machine[S, E, L, G]{
		id:           o.id,
		tables:       tables,
		initial:      initial,
		cursor:       -1,
		locals:       make([]*L, n),
		clock:        o.clock,
		logger:       o.logger.With(zap.String("machine", o.id)),
		metrics:      o.metrics,
		errorHandler: o.errorHandler,
	}

	start, err := m.table(initial)
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		if t == nil {
			continue
		}
		t.frozen.Store(true)
		m.locals[t.state.Ordinal()] = t.newLocalContext()
	}
	if global != nil {
		g := global()
		m.global = &g
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = initial
	ctx := m.newContext(input[E]{}, initialTransition[S, E, L, G](initial))
	for _, a := range start.entry {
		if err := a.Perform(ctx); err != nil {
			m.closed = true
			return nil, fmt.Errorf("entering initial state %v: %w", initial, err)
		}
	}
	m.armTimer()

	m.logger.Debug("machine started", stateField("state", initial))
	return m, nil
}

// ID returns the machine id
func (m *Machine[S, E, L, G]) ID() string {
	return m.id
}

// CurrentState returns the current state
func (m *Machine[S, E, L, G]) CurrentState() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnStateChange sets a callback invoked after each committed transition that
// changes the current state. It runs under the machine lock.
func (m *Machine[S, E, L, G]) OnStateChange(fn func(from, to S)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateChangeCallback = fn
}

// Fire submits event and returns the resulting state. It blocks until the
// transition's actions have run and the timer is rearmed.
//
// Errors returned by actions are passed through unmodified. Unknown triggers
// and missing destination tables leave the machine untouched.
func (m *Machine[S, E, L, G]) Fire(event E) (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.current, cloneError(ErrMachineClosed, fmt.Sprintf("machine %s is closed", m.id), nil)
	}

	err := m.step(eventInput(event))
	return m.current, err
}

// Close cancels any pending timer. It is safe to call more than once.
func (m *Machine[S, E, L, G]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.disarmTimer()
	m.logger.Debug("machine closed", stateField("state", m.current))
	return nil
}

// LocalContext returns the local context of s, nil if s declares none.
// Reading it while the machine runs is only safe from guards and actions.
func (m *Machine[S, E, L, G]) LocalContext(s S) *L {
	return m.local(s)
}

// GlobalContext returns the machine-wide context, nil if none is declared
func (m *Machine[S, E, L, G]) GlobalContext() *G {
	return m.global
}

// step resolves and performs one input. Must be called with mu held.
func (m *Machine[S, E, L, G]) step(in input[E]) error {
	from := m.current
	ctx, dest, cursor, err := m.resolve(m.tables[from.Ordinal()], in)
	if err != nil {
		m.cursor = cursor
		if IsUnknownTrigger(err) {
			m.metrics.unknownTrigger()
		}
		if !errors.Is(err, errTimeoutVetoed) {
			m.logger.Debug("no transition", stateField("state", from), zap.Stringer("input", in), zap.Error(err))
		}
		return err
	}

	tr := ctx.Transition
	m.logger.Debug("executing transition",
		zap.Stringer("kind", tr.Kind),
		stateField("from", from),
		stateField("to", tr.Resolved()),
		zap.Stringer("input", in),
	)

	committed, err := m.perform(ctx, dest)
	if !committed {
		return err
	}
	m.cursor = cursor

	m.metrics.transition(tr.Kind)
	m.armTimer()

	if m.stateChangeCallback != nil && from != m.current {
		m.stateChangeCallback(from, m.current)
	}
	return err
}

func (m *Machine[S, E, L, G]) table(s S) (*Table[S, E, L, G], error) {
	i := s.Ordinal()
	if i < 0 || i >= len(m.tables) || m.tables[i] == nil {
		return nil, missingStateError(s)
	}
	return m.tables[i], nil
}

func (m *Machine[S, E, L, G]) local(s S) *L {
	i := s.Ordinal()
	if i < 0 || i >= len(m.locals) {
		return nil
	}
	return m.locals[i]
}

func stateField[S State](key string, s S) zap.Field {
	return zap.String(key, fmt.Sprint(s))
}
