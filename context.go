package tablefsm

import "go.uber.org/zap"

// Context is passed to all guards and actions.
//
// Source and Destination point at the local contexts of the transition's
// source state and of the state the transition resolves to (the source itself
// for stay transitions). They are nil when that state declares no local
// context. Global is nil when the machine declares no global context.
type Context[S State, E comparable, L, G any] struct {
	Event      E    // Zero value when Timeout is set
	Timeout    bool // Fired by the state's timer rather than an external event
	Transition *Transition[S, E, L, G]

	Source      *L
	Destination *L
	Global      *G

	MachineID string
	Logger    *zap.Logger
}

// FromState returns the state the transition leaves
func (c *Context[S, E, L, G]) FromState() S {
	return c.Transition.Source
}

// ToState returns the state the machine is in once the transition completes
func (c *Context[S, E, L, G]) ToState() S {
	return c.Transition.Resolved()
}

// Initial reports whether the context belongs to the machine's initial entry
func (c *Context[S, E, L, G]) Initial() bool {
	return c.Transition.Kind == KindInitial
}
