// Package demo implements a keypad door on top of tablefsm
package demo

import (
	"time"

	"github.com/librescoot/tablefsm"
	"go.uber.org/zap"
)

// State of the door
type State int

const (
	Locked State = iota
	Unlocked
	Open
	Alarm
	numStates
)

func (s State) Ordinal() int   { return int(s) }
func (State) Cardinality() int { return int(numStates) }

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	case Open:
		return "open"
	case Alarm:
		return "alarm"
	default:
		return "invalid"
	}
}

// Keys besides the code digits
const (
	KeyEnter = "enter"
	KeyOpen  = "open"
	KeyClose = "close"
	KeyLock  = "lock"
	KeyReset = "reset"
)

// MaxFailures is the number of consecutive wrong keys that raise the alarm
const MaxFailures = 3

// Keypad is the local context of the locked state
type Keypad struct {
	Typed int
}

// Stats is the door-wide context
type Stats struct {
	Failures int
	Unlocks  int
}

type (
	Definition = tablefsm.Definition[State, string, Keypad, Stats]
	Machine    = tablefsm.Machine[State, string, Keypad, Stats]

	doorCtx  = tablefsm.Context[State, string, Keypad, Stats]
	doorRule = tablefsm.Rule[State, string, Keypad, Stats]
)

// Options configure the door
type Options struct {
	Code        string
	RelockAfter time.Duration
}

// NewDefinition describes the door. Configuration errors, such as a code
// repeating a digit, are reported by the definition's Validate.
func NewDefinition(opts Options) *Definition {
	code := make([]string, 0, len(opts.Code))
	for _, r := range opts.Code {
		code = append(code, string(r))
	}

	def := tablefsm.NewDefinition[State, string, Keypad, Stats]().
		GlobalContext(func() Stats { return Stats{} })

	def.State(Locked).
		LocalContext(func() Keypad { return Keypad{} }).
		OnEntry(func(c *doorCtx) error {
			c.Destination.Typed = 0
			return nil
		}).
		Sequence(code, func(c *doorCtx) error {
			c.Source.Typed = c.Transition.Contains(c.Event) + 1
			return nil
		}).
		On(doorRule{
			Events: []string{KeyEnter},
			To:     tablefsm.MoveTo(Unlocked),
			Guard: func(c *doorCtx) bool {
				return len(code) > 0 && c.Source.Typed == len(code)
			},
			Action: func(c *doorCtx) error {
				c.Global.Failures = 0
				c.Global.Unlocks++
				return nil
			},
		}).
		Otherwise(doorRule{
			To:     tablefsm.MoveTo(Alarm),
			Guard:  func(c *doorCtx) bool { return c.Global.Failures+1 >= MaxFailures },
			Action: wrongKey,
		}).
		Otherwise(doorRule{
			Guard:  func(*doorCtx) bool { return true },
			Action: wrongKey,
		})

	def.State(Unlocked).
		On(doorRule{Events: []string{KeyOpen}, To: tablefsm.MoveTo(Open)}).
		On(doorRule{Events: []string{KeyLock}, To: tablefsm.MoveTo(Locked)}).
		After(opts.RelockAfter, doorRule{
			To: tablefsm.MoveTo(Locked),
			Action: func(c *doorCtx) error {
				c.Logger.Info("relocking", zap.Duration("after", c.Transition.After))
				return nil
			},
		})

	def.State(Open).
		On(doorRule{Events: []string{KeyClose}, To: tablefsm.MoveTo(Unlocked)})

	def.State(Alarm).
		OnEntry(func(c *doorCtx) error {
			c.Logger.Warn("alarm raised", zap.Int("failures", c.Global.Failures))
			return nil
		}).
		On(doorRule{
			Events: []string{KeyReset},
			To:     tablefsm.MoveTo(Locked),
			Action: func(c *doorCtx) error {
				c.Global.Failures = 0
				return nil
			},
		})

	return def
}

func wrongKey(c *doorCtx) error {
	c.Global.Failures++
	c.Source.Typed = 0
	c.Logger.Debug("wrong key", zap.String("key", c.Event), zap.Int("failures", c.Global.Failures))
	return nil
}

// Door is a running keypad door
type Door struct {
	m *Machine
}

// NewDoor builds and starts a door
func NewDoor(opts Options, machineOpts ...tablefsm.MachineOption) (*Door, error) {
	m, err := NewDefinition(opts).Build(machineOpts...)
	if err != nil {
		return nil, err
	}
	return &Door{m: m}, nil
}

// Press submits one key
func (d *Door) Press(key string) (State, error) {
	return d.m.Fire(key)
}

// State returns the current state
func (d *Door) State() State {
	return d.m.CurrentState()
}

// OnStateChange registers fn for every state change, including timer driven ones
func (d *Door) OnStateChange(fn func(from, to State)) {
	d.m.OnStateChange(fn)
}

// Describe returns the door's structure
func (d *Door) Describe() tablefsm.Description {
	return d.m.Describe()
}

// Close stops the relock timer
func (d *Door) Close() error {
	return d.m.Close()
}
