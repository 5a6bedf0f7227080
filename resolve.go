package tablefsm

import "errors"

// errTimeoutVetoed is returned by resolve when the timeout guard is false
var errTimeoutVetoed = errors.New("timeout guard vetoed transition")

// resolve selects the transition t fires for in, with fixed precedence:
// timeout, sequence, unguarded when, guarded when, complement. It returns the
// context the transition runs with, the table of the state it resolves to and
// the sequence cursor to apply once the step commits, or immediately when it
// fails to resolve. Only guards run here; no action has executed when resolve
// returns, and m.cursor is left untouched.
func (m *Machine[S, E, L, G]) resolve(t *Table[S, E, L, G], in input[E]) (*Context[S, E, L, G], *Table[S, E, L, G], int, error) {
	if in.timeout {
		tr := t.timeout
		if tr == nil {
			return nil, nil, -1, unknownTriggerError(t.state, in)
		}
		ctx := m.newContext(in, tr)
		if tr.guarded() && !tr.Guard(ctx) {
			return nil, nil, -1, errTimeoutVetoed
		}
		return m.selected(ctx, -1)
	}

	if seq := t.sequence; seq != nil {
		if idx := seq.Contains(in.event); idx != -1 {
			if idx != m.cursor+1 {
				return nil, nil, -1, unknownTriggerError(t.state, in)
			}
			next := idx
			if idx == len(seq.Events)-1 {
				next = -1
			}
			return m.selected(m.newContext(in, seq), next)
		}
	}

	if tr, ok := t.when[in.event]; ok {
		return m.selected(m.newContext(in, tr), -1)
	}

	for _, tr := range t.whenGuarded[in.event] {
		ctx := m.newContext(in, tr)
		if tr.Guard(ctx) {
			return m.selected(ctx, -1)
		}
	}

	if tr := t.complement; tr != nil {
		return m.selected(m.newContext(in, tr), -1)
	}
	for _, tr := range t.complementGuarded {
		ctx := m.newContext(in, tr)
		if tr.Guard(ctx) {
			return m.selected(ctx, -1)
		}
	}

	return nil, nil, -1, unknownTriggerError(t.state, in)
}

// selected looks up the table of the state ctx's transition resolves to
func (m *Machine[S, E, L, G]) selected(ctx *Context[S, E, L, G], cursor int) (*Context[S, E, L, G], *Table[S, E, L, G], int, error) {
	dest, err := m.table(ctx.Transition.Resolved())
	if err != nil {
		return nil, nil, -1, err
	}
	return ctx, dest, cursor, nil
}

// perform runs a selected transition: its own action, then, only when the
// transition has an explicit destination, the source's exit actions and the
// destination's entry actions. committed reports whether the machine now sits
// in the resolved state.
func (m *Machine[S, E, L, G]) perform(ctx *Context[S, E, L, G], dest *Table[S, E, L, G]) (committed bool, err error) {
	tr := ctx.Transition
	if err := tr.perform(ctx); err != nil {
		return false, err
	}
	if _, ok := tr.Destination(); !ok {
		return true, nil
	}

	src := m.tables[tr.Source.Ordinal()]
	for _, a := range src.exit {
		if err := a.Perform(ctx); err != nil {
			return false, err
		}
	}

	m.current = dest.state

	for _, a := range dest.entry {
		if err := a.Perform(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (m *Machine[S, E, L, G]) newContext(in input[E], tr *Transition[S, E, L, G]) *Context[S, E, L, G] {
	return &Context[S, E, L, G]{
		Event:       in.event,
		Timeout:     in.timeout,
		Transition:  tr,
		Source:      m.local(tr.Source),
		Destination: m.local(tr.Resolved()),
		Global:      m.global,
		MachineID:   m.id,
		Logger:      m.logger,
	}
}
