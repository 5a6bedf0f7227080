package tablefsm

import "time"

// Guard decides whether a transition or entry/exit action applies.
// Guards must not rely on side effects: the engine evaluates each candidate's
// guard at most once per Fire, and only when that candidate is reached.
type Guard[S State, E comparable, L, G any] func(ctx *Context[S, E, L, G]) bool

// Action runs when its transition or entry/exit step fires
type Action[S State, E comparable, L, G any] func(ctx *Context[S, E, L, G]) error

// Target is an optional transition destination. The zero value stays in the
// source state without running entry or exit actions.
type Target[S State] struct {
	state S
	move  bool
}

// MoveTo targets s. Targeting the source state exits and re-enters it.
func MoveTo[S State](s S) Target[S] {
	return Target[S]{state: s, move: true}
}

// Stay keeps the machine in the source state without entry/exit actions
func Stay[S State]() Target[S] {
	return Target[S]{}
}

// State returns the destination and whether one is set
func (t Target[S]) State() (S, bool) {
	return t.state, t.move
}

// Rule is the declarative form of a transition registration
type Rule[S State, E comparable, L, G any] struct {
	Events []E
	To     Target[S]
	Guard  Guard[S, E, L, G]  // Optional
	Action Action[S, E, L, G] // Optional
}

// Transition is a registered, immutable state change rule
type Transition[S State, E comparable, L, G any] struct {
	Kind   TransitionKind
	Source S
	Target Target[S]
	Guard  Guard[S, E, L, G]
	Action Action[S, E, L, G]

	Events []E           // Triggers in declaration order (event and sequence kinds)
	After  time.Duration // Timeout kind only
}

func newTransition[S State, E comparable, L, G any](kind TransitionKind, source S, r Rule[S, E, L, G]) *Transition[S, E, L, G] {
	events := make([]E, len(r.Events))
	copy(events, r.Events)
	return &Transition[S, E, L, G]{
		Kind:   kind,
		Source: source,
		Target: r.To,
		Guard:  r.Guard,
		Action: r.Action,
		Events: events,
	}
}

func initialTransition[S State, E comparable, L, G any](s S) *Transition[S, E, L, G] {
	return &Transition[S, E, L, G]{Kind: KindInitial, Source: s, Target: MoveTo(s)}
}

// Destination returns the explicit destination, if any
func (t *Transition[S, E, L, G]) Destination() (S, bool) {
	return t.Target.State()
}

// Resolved returns the state the machine is in after the transition
func (t *Transition[S, E, L, G]) Resolved() S {
	if dest, ok := t.Target.State(); ok {
		return dest
	}
	return t.Source
}

// Contains returns the index of e in the transition's triggers, or -1
func (t *Transition[S, E, L, G]) Contains(e E) int {
	for i, ev := range t.Events {
		if ev == e {
			return i
		}
	}
	return -1
}

func (t *Transition[S, E, L, G]) guarded() bool {
	return t.Guard != nil
}

// perform runs the transition's own action, if any
func (t *Transition[S, E, L, G]) perform(ctx *Context[S, E, L, G]) error {
	if t.Action == nil {
		return nil
	}
	return t.Action(ctx)
}

// ExecutableAction pairs an optional guard with an action. Entry and exit
// lists hold these; every satisfied entry fires, not only the first.
type ExecutableAction[S State, E comparable, L, G any] struct {
	Guard  Guard[S, E, L, G]
	Action Action[S, E, L, G]
}

// Perform runs the action iff the guard is absent or true
func (a ExecutableAction[S, E, L, G]) Perform(ctx *Context[S, E, L, G]) error {
	if a.Guard != nil && !a.Guard(ctx) {
		return nil
	}
	return a.Action(ctx)
}
