package tablefsm

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testState int

const (
	s1 testState = iota
	s2
	s3
	numTestStates
)

func (s testState) Ordinal() int   { return int(s) }
func (testState) Cardinality() int { return int(numTestStates) }
func (s testState) String() string {
	switch s {
	case s1:
		return "s1"
	case s2:
		return "s2"
	case s3:
		return "s3"
	default:
		return "invalid"
	}
}

// local is the per-state context used in tests
type local struct {
	n int
}

// global records the order in which guards and actions ran
type global struct {
	trace []string
}

type (
	testDef     = Definition[testState, string, local, global]
	testMachine = Machine[testState, string, local, global]
	testRule    = Rule[testState, string, local, global]
	testCtx     = Context[testState, string, local, global]
	testAction  = Action[testState, string, local, global]
	testGuard   = Guard[testState, string, local, global]
)

func newTestDef() *testDef {
	return NewDefinition[testState, string, local, global]().
		GlobalContext(func() global { return global{} })
}

func buildTest(t *testing.T, def *testDef, opts ...MachineOption) *testMachine {
	t.Helper()
	opts = append([]MachineOption{WithLogger(zap.NewNop()), WithClock(clockwork.NewFakeClock())}, opts...)
	m, err := def.Build(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func record(label string) testAction {
	return func(c *testCtx) error {
		c.Global.trace = append(c.Global.trace, label)
		return nil
	}
}

func recordEvent() testAction {
	return func(c *testCtx) error {
		c.Global.trace = append(c.Global.trace, c.Event)
		return nil
	}
}

func constGuard(label string, result bool) testGuard {
	return func(c *testCtx) bool {
		c.Global.trace = append(c.Global.trace, label)
		return result
	}
}

func traceOf(m *testMachine) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.global.trace...)
}
