package tablefsm

import (
	"errors"
	"time"
)

// Definition holds the FSM structure before building a Machine
type Definition[S State, E comparable, L, G any] struct {
	tables     []*Table[S, E, L, G]
	builders   []*StateBuilder[S, E, L, G] // Declaration order
	initial    S
	hasInitial bool
	global     func() G
	errs       []error
}

// NewDefinition creates a new FSM definition builder
func NewDefinition[S State, E comparable, L, G any]() *Definition[S, E, L, G] {
	return &Definition[S, E, L, G]{
		tables: make([]*Table[S, E, L, G], cardinality[S]()),
	}
}

// State declares s and returns its builder. Declaring a state twice returns
// the same builder. The first declared state is the default initial state.
func (d *Definition[S, E, L, G]) State(s S) *StateBuilder[S, E, L, G] {
	for _, b := range d.builders {
		if b.table.state == s {
			return b
		}
	}

	b := &StateBuilder[S, E, L, G]{def: d, table: NewTable[S, E, L, G](s)}
	if i := s.Ordinal(); i < 0 || i >= len(d.tables) {
		b.record(configurationError(s, "ordinal %d outside [0, %d)", i, len(d.tables)))
		return b
	}
	d.tables[s.Ordinal()] = b.table
	d.builders = append(d.builders, b)
	if !d.hasInitial {
		d.initial, d.hasInitial = s, true
	}
	return b
}

// Initial sets the initial state
func (d *Definition[S, E, L, G]) Initial(s S) *Definition[S, E, L, G] {
	d.initial, d.hasInitial = s, true
	return d
}

// GlobalContext sets the factory for the machine-wide context
func (d *Definition[S, E, L, G]) GlobalContext(factory func() G) *Definition[S, E, L, G] {
	d.global = factory
	return d
}

// Validate returns every configuration error recorded so far
func (d *Definition[S, E, L, G]) Validate() error {
	return errors.Join(d.errs...)
}

// Build creates a Machine from the definition. Each call materializes fresh
// contexts; all machines built from one definition share its frozen tables.
// Build is safe for concurrent use once registration is complete.
func (d *Definition[S, E, L, G]) Build(opts ...MachineOption) (*Machine[S, E, L, G], error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return NewMachine(d.tables, d.initial, d.global, opts...)
}

// StateBuilder configures one state. Every method registers immediately; a
// conflicting registration is recorded and available from Err right away.
type StateBuilder[S State, E comparable, L, G any] struct {
	def   *Definition[S, E, L, G]
	table *Table[S, E, L, G]
	err   error
}

// Table returns the table being configured
func (b *StateBuilder[S, E, L, G]) Table() *Table[S, E, L, G] {
	return b.table
}

// LocalContext sets the factory for the state's local context
func (b *StateBuilder[S, E, L, G]) LocalContext(factory func() L) *StateBuilder[S, E, L, G] {
	return b.record(b.table.SetLocalContext(factory))
}

// On registers a direct transition, or a guarded one when r.Guard is set
func (b *StateBuilder[S, E, L, G]) On(r Rule[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.AddWhen(r))
}

// Sequence accepts events in order without running entry/exit actions
func (b *StateBuilder[S, E, L, G]) Sequence(events []E, action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.SetSequence(SequencePlain, events, action))
}

// ReentrantSequence accepts events in order, exiting and re-entering the
// state on every step
func (b *StateBuilder[S, E, L, G]) ReentrantSequence(events []E, action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.SetSequence(SequenceReentrant, events, action))
}

// Otherwise registers a complement transition for unmatched events
func (b *StateBuilder[S, E, L, G]) Otherwise(r Rule[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.SetComplement(r))
}

// After registers the state's timeout transition. When r.Guard vetoes it the
// timer is not rearmed until the next committed transition.
func (b *StateBuilder[S, E, L, G]) After(d time.Duration, r Rule[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.SetTimeout(d, r))
}

// OnEntry appends an entry action
func (b *StateBuilder[S, E, L, G]) OnEntry(action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.AddEntry(nil, action))
}

// OnEntryIf appends an entry action that runs only when guard is true
func (b *StateBuilder[S, E, L, G]) OnEntryIf(guard Guard[S, E, L, G], action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.AddEntry(guard, action))
}

// OnExit appends an exit action
func (b *StateBuilder[S, E, L, G]) OnExit(action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.AddExit(nil, action))
}

// OnExitIf appends an exit action that runs only when guard is true
func (b *StateBuilder[S, E, L, G]) OnExitIf(guard Guard[S, E, L, G], action Action[S, E, L, G]) *StateBuilder[S, E, L, G] {
	return b.record(b.table.AddExit(guard, action))
}

// Err returns the first configuration error recorded for this state
func (b *StateBuilder[S, E, L, G]) Err() error {
	return b.err
}

func (b *StateBuilder[S, E, L, G]) record(err error) *StateBuilder[S, E, L, G] {
	if err == nil {
		return b
	}
	if b.err == nil {
		b.err = err
	}
	b.def.errs = append(b.def.errs, err)
	return b
}
