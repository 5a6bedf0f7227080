package tablefsm

import "fmt"

// Description is a read-only snapshot of a machine's tables, for audit and
// documentation. It cannot be turned back into a machine.
type Description struct {
	Initial string             `yaml:"initial" json:"initial"`
	States  []StateDescription `yaml:"states" json:"states"`
}

// StateDescription describes one declared state
type StateDescription struct {
	State        string                  `yaml:"state" json:"state"`
	LocalContext bool                    `yaml:"local_context,omitempty" json:"local_context,omitempty"`
	EntryActions int                     `yaml:"entry_actions,omitempty" json:"entry_actions,omitempty"`
	ExitActions  int                     `yaml:"exit_actions,omitempty" json:"exit_actions,omitempty"`
	When         []TransitionDescription `yaml:"when,omitempty" json:"when,omitempty"`
	Sequence     *TransitionDescription  `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	Otherwise    []TransitionDescription `yaml:"otherwise,omitempty" json:"otherwise,omitempty"`
	Timeout      *TransitionDescription  `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// TransitionDescription describes one transition. An empty To means stay.
type TransitionDescription struct {
	Events  []string `yaml:"events,flow,omitempty" json:"events,omitempty"`
	To      string   `yaml:"to,omitempty" json:"to,omitempty"`
	Guarded bool     `yaml:"guarded,omitempty" json:"guarded,omitempty"`
	Action  bool     `yaml:"action,omitempty" json:"action,omitempty"`
	After   string   `yaml:"after,omitempty" json:"after,omitempty"`
	Mode    string   `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// Describe returns the structure of every state declared so far, in
// declaration order
func (d *Definition[S, E, L, G]) Describe() Description {
	desc := Description{Initial: fmt.Sprint(d.initial)}
	for _, b := range d.builders {
		desc.States = append(desc.States, b.table.describe())
	}
	return desc
}

// Describe returns the structure of the machine's tables in ordinal order
func (m *Machine[S, E, L, G]) Describe() Description {
	desc := Description{Initial: fmt.Sprint(m.initial)}
	for _, t := range m.tables {
		if t != nil {
			desc.States = append(desc.States, t.describe())
		}
	}
	return desc
}

func (t *Table[S, E, L, G]) describe() StateDescription {
	sd := StateDescription{
		State:        fmt.Sprint(t.state),
		LocalContext: t.localContext != nil,
		EntryActions: len(t.entry),
		ExitActions:  len(t.exit),
	}
	for _, tr := range t.whenOrder {
		sd.When = append(sd.When, describeTransition(tr))
	}
	if t.sequence != nil {
		td := describeTransition(t.sequence)
		td.Mode = SequencePlain.String()
		if _, ok := t.sequence.Destination(); ok {
			td.Mode = SequenceReentrant.String()
		}
		sd.Sequence = &td
	}
	if t.complement != nil {
		sd.Otherwise = append(sd.Otherwise, describeTransition(t.complement))
	}
	for _, tr := range t.complementGuarded {
		sd.Otherwise = append(sd.Otherwise, describeTransition(tr))
	}
	if t.timeout != nil {
		td := describeTransition(t.timeout)
		td.After = t.timeout.After.String()
		sd.Timeout = &td
	}
	return sd
}

func describeTransition[S State, E comparable, L, G any](tr *Transition[S, E, L, G]) TransitionDescription {
	td := TransitionDescription{
		Guarded: tr.guarded(),
		Action:  tr.Action != nil,
	}
	for _, e := range tr.Events {
		td.Events = append(td.Events, fmt.Sprint(e))
	}
	if dest, ok := tr.Destination(); ok {
		td.To = fmt.Sprint(dest)
	}
	return td
}
