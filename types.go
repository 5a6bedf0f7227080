package tablefsm

// State is the capability contract for state types: a closed, enumerable set
// with a dense zero-based ordinal. Cardinality must return the same value for
// every member, including the zero value.
type State interface {
	comparable
	Ordinal() int
	Cardinality() int
}

// TransitionKind tags the variant of a Transition
type TransitionKind int

const (
	// KindEvent is a direct or guarded "when" transition
	KindEvent TransitionKind = iota
	// KindSequence is the per-state multi-step sequence transition
	KindSequence
	// KindComplement is a catch-all fallback transition
	KindComplement
	// KindTimeout fires when the state's timer expires
	KindTimeout
	// KindInitial is the synthetic transition entering the initial state
	KindInitial
)

func (k TransitionKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSequence:
		return "sequence"
	case KindComplement:
		return "complement"
	case KindTimeout:
		return "timeout"
	case KindInitial:
		return "initial"
	default:
		return "unknown"
	}
}

// SequenceMode selects whether sequence steps run entry/exit actions
type SequenceMode int

const (
	// SequencePlain steps stay in the state without entry/exit actions
	SequencePlain SequenceMode = iota
	// SequenceReentrant steps exit and re-enter the state on every step
	SequenceReentrant
)

func (m SequenceMode) String() string {
	if m == SequenceReentrant {
		return "reentrant"
	}
	return "plain"
}

// cardinality returns the size of the state domain of S
func cardinality[S State]() int {
	var zero S
	return zero.Cardinality()
}
