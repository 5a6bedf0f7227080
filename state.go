package tablefsm

import (
	"sync/atomic"
	"time"
)

// Table holds every transition originating at one state. Registration
// methods fail synchronously on conflicts; a table is frozen once a Machine
// is built from it.
type Table[S State, E comparable, L, G any] struct {
	state S

	when        map[E]*Transition[S, E, L, G]   // Unguarded, one per trigger
	whenGuarded map[E][]*Transition[S, E, L, G] // Registration order per trigger
	whenOrder   []*Transition[S, E, L, G]

	sequence *Transition[S, E, L, G]

	// Either complement or complementGuarded, never both
	complement        *Transition[S, E, L, G]
	complementGuarded []*Transition[S, E, L, G]

	timeout *Transition[S, E, L, G]

	entry []ExecutableAction[S, E, L, G]
	exit  []ExecutableAction[S, E, L, G]

	localContext func() L

	frozen atomic.Bool // Set by every machine built on the table
}

// NewTable creates an empty table for state s
func NewTable[S State, E comparable, L, G any](s S) *Table[S, E, L, G] {
	return &Table[S, E, L, G]{
		state:       s,
		when:        make(map[E]*Transition[S, E, L, G]),
		whenGuarded: make(map[E][]*Transition[S, E, L, G]),
	}
}

// State returns the state this table belongs to
func (t *Table[S, E, L, G]) State() S {
	return t.state
}

// AddWhen registers a direct (unguarded) or guarded transition on r.Events
func (t *Table[S, E, L, G]) AddWhen(r Rule[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if len(r.Events) == 0 {
		return configurationError(t.state, "transition needs at least one trigger")
	}
	seen := make(map[E]struct{}, len(r.Events))
	for _, e := range r.Events {
		if _, dup := seen[e]; dup {
			return configurationError(t.state, "trigger [%v] listed twice", e)
		}
		seen[e] = struct{}{}
		if t.sequence != nil && t.sequence.Contains(e) != -1 {
			return configurationError(t.state, "trigger [%v] conflicts with the sequence", e)
		}
		if r.Guard == nil {
			if _, exists := t.when[e]; exists {
				return configurationError(t.state, "trigger [%v] already declared", e)
			}
		}
	}

	tr := newTransition(KindEvent, t.state, r)
	t.whenOrder = append(t.whenOrder, tr)
	for _, e := range r.Events {
		if tr.guarded() {
			t.whenGuarded[e] = append(t.whenGuarded[e], tr)
		} else {
			t.when[e] = tr
		}
	}
	return nil
}

// SetSequence registers the state's single sequence transition
func (t *Table[S, E, L, G]) SetSequence(mode SequenceMode, events []E, action Action[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.sequence != nil {
		return configurationError(t.state, "sequence already defined, only one sequence per state is allowed")
	}
	if len(events) == 0 {
		return configurationError(t.state, "sequence needs at least one trigger")
	}
	seen := make(map[E]struct{}, len(events))
	for _, e := range events {
		if _, dup := seen[e]; dup {
			return configurationError(t.state, "sequence trigger [%v] listed twice", e)
		}
		seen[e] = struct{}{}
		if t.hasWhen(e) {
			return configurationError(t.state, "sequence trigger [%v] conflicts with existing 'when' triggers", e)
		}
	}

	r := Rule[S, E, L, G]{Events: events, Action: action}
	if mode == SequenceReentrant {
		r.To = MoveTo(t.state)
	}
	t.sequence = newTransition(KindSequence, t.state, r)
	return nil
}

// SetComplement registers a catch-all transition for events nothing else
// matched. Either one unguarded complement or any number of guarded ones.
func (t *Table[S, E, L, G]) SetComplement(r Rule[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if len(r.Events) != 0 {
		return configurationError(t.state, "complement transitions take no triggers")
	}
	if t.complement != nil {
		return configurationError(t.state, "unguarded complement already defined")
	}
	tr := newTransition(KindComplement, t.state, r)
	if !tr.guarded() {
		if len(t.complementGuarded) > 0 {
			return configurationError(t.state, "cannot mix guarded and unguarded complements")
		}
		t.complement = tr
		return nil
	}
	t.complementGuarded = append(t.complementGuarded, tr)
	return nil
}

// SetTimeout registers the state's timeout transition. The guard, if any, is
// evaluated when the timer fires. A false guard lets the timer lapse: it is
// not rearmed until the next committed transition, so the state will not
// time out again on its own.
func (t *Table[S, E, L, G]) SetTimeout(after time.Duration, r Rule[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.timeout != nil {
		return configurationError(t.state, "timeout already defined")
	}
	if after <= 0 {
		return configurationError(t.state, "timeout must be positive, got %s", after)
	}
	if len(r.Events) != 0 {
		return configurationError(t.state, "timeout transitions take no triggers")
	}
	tr := newTransition(KindTimeout, t.state, r)
	tr.After = after
	t.timeout = tr
	return nil
}

// AddEntry appends an entry action, run when the state is entered and guard
// is nil or true
func (t *Table[S, E, L, G]) AddEntry(guard Guard[S, E, L, G], action Action[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if action == nil {
		return configurationError(t.state, "entry action is required")
	}
	t.entry = append(t.entry, ExecutableAction[S, E, L, G]{Guard: guard, Action: action})
	return nil
}

// AddExit appends an exit action, run when the state is left and guard is
// nil or true
func (t *Table[S, E, L, G]) AddExit(guard Guard[S, E, L, G], action Action[S, E, L, G]) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if action == nil {
		return configurationError(t.state, "exit action is required")
	}
	t.exit = append(t.exit, ExecutableAction[S, E, L, G]{Guard: guard, Action: action})
	return nil
}

// SetLocalContext sets the factory materializing the state's local context.
// It is called once per machine.
func (t *Table[S, E, L, G]) SetLocalContext(factory func() L) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.localContext != nil {
		return configurationError(t.state, "local context already defined")
	}
	t.localContext = factory
	return nil
}

// Timeout returns the timeout transition, if any
func (t *Table[S, E, L, G]) Timeout() (*Transition[S, E, L, G], bool) {
	return t.timeout, t.timeout != nil
}

func (t *Table[S, E, L, G]) hasWhen(e E) bool {
	if _, ok := t.when[e]; ok {
		return true
	}
	return len(t.whenGuarded[e]) > 0
}

func (t *Table[S, E, L, G]) checkOpen() error {
	if t.frozen.Load() {
		return configurationError(t.state, "table is frozen, machines cannot be reconfigured")
	}
	return nil
}

func (t *Table[S, E, L, G]) newLocalContext() *L {
	if t.localContext == nil {
		return nil
	}
	v := t.localContext()
	return &v
}
