package tablefsm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func describedDefinition() *testDef {
	noop := func(*testCtx) error { return nil }
	yes := func(*testCtx) bool { return true }

	def := newTestDef()
	def.State(s1).
		LocalContext(func() local { return local{} }).
		OnEntry(noop).
		OnExit(noop).
		On(testRule{Events: []string{"go", "run"}, To: MoveTo(s2), Action: noop}).
		On(testRule{Events: []string{"maybe"}, To: MoveTo(s3), Guard: yes}).
		ReentrantSequence([]string{"a", "b"}, noop).
		Otherwise(testRule{})
	def.State(s2).
		After(1500*time.Millisecond, testRule{To: MoveTo(s1)})
	def.State(s3)
	return def
}

func TestDescribeDefinition(t *testing.T) {
	desc := describedDefinition().Describe()

	assert.Equal(t, "s1", desc.Initial)
	require.Len(t, desc.States, 3)

	first := desc.States[0]
	assert.Equal(t, "s1", first.State)
	assert.True(t, first.LocalContext)
	assert.Equal(t, 1, first.EntryActions)
	assert.Equal(t, 1, first.ExitActions)
	assert.Equal(t, []TransitionDescription{
		{Events: []string{"go", "run"}, To: "s2", Action: true},
		{Events: []string{"maybe"}, To: "s3", Guarded: true},
	}, first.When)
	require.NotNil(t, first.Sequence)
	assert.Equal(t, "reentrant", first.Sequence.Mode)
	assert.Equal(t, []string{"a", "b"}, first.Sequence.Events)
	assert.Equal(t, []TransitionDescription{{}}, first.Otherwise)
	assert.Nil(t, first.Timeout)

	second := desc.States[1]
	require.NotNil(t, second.Timeout)
	assert.Equal(t, "1.5s", second.Timeout.After)
	assert.Equal(t, "s1", second.Timeout.To)
}

func TestDescribeMachineMatchesDefinition(t *testing.T) {
	def := describedDefinition()
	m := buildTest(t, def)

	assert.Equal(t, def.Describe(), m.Describe())
}

func TestDescribeEncodings(t *testing.T) {
	desc := describedDefinition().Describe()

	out, err := yaml.Marshal(desc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "initial: s1")
	assert.Contains(t, string(out), "events: [go, run]")
	assert.Contains(t, string(out), "after: 1.5s")
	assert.Contains(t, string(out), "mode: reentrant")

	var back Description
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, desc, back)

	raw, err := json.Marshal(desc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"local_context":true`)
}
