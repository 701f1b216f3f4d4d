package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepState_IsTerminal(t *testing.T) {
	terminal := []StepState{StateSuccess, StateError, StateCache, StateSkipped}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
	}

	nonTerminal := []StepState{StatePending, StateRunning}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "expected %s to not be terminal", s)
	}
}

func TestStep_HasCacheKey(t *testing.T) {
	s := &Step{}
	assert.False(t, s.HasCacheKey())

	s.CacheKey = "k1"
	assert.True(t, s.HasCacheKey())
}

func TestWorkflow_StepByID(t *testing.T) {
	w := &Workflow{Steps: []*Step{
		{ID: "step1"},
		{ID: "step2"},
	}}

	assert.Same(t, w.Steps[1], w.StepByID("step2"))
	assert.Nil(t, w.StepByID("missing"))
}

func TestStep_EffectiveDependencies_DedupesAndOrders(t *testing.T) {
	s := &Step{
		DependsOn: []string{"step1", "step2", "step1"},
		Input:     InputSpec{Kind: InputFrom, Ref: "step2"},
	}
	assert.Equal(t, []string{"step1", "step2"}, s.EffectiveDependencies())
}

func TestStep_EffectiveDependencies_NoInputFrom(t *testing.T) {
	s := &Step{DependsOn: []string{"step1"}, Input: InputSpec{Kind: InputLiteral, Literal: "hi"}}
	assert.Equal(t, []string{"step1"}, s.EffectiveDependencies())
}

func TestSynthesizeID(t *testing.T) {
	assert.Equal(t, "step1", synthesizeID(1))
	assert.Equal(t, "step42", synthesizeID(42))
}
