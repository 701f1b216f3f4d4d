package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(outcomes map[string]StepOutcome) OutcomeLookup {
	return func(id string) (StepOutcome, bool) {
		o, ok := outcomes[id]
		return o, ok
	}
}

func TestEvaluateCondition_OutputContains(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionOutputContains, Field: "step1", Operator: OpContains, Value: "ok"}

	result, unknown := EvaluateCondition(w, s, lookupFrom(map[string]StepOutcome{
		"step1": {State: StateSuccess, Output: "all ok here"},
	}))
	assert.True(t, result)
	assert.False(t, unknown)
}

func TestEvaluateCondition_OutputEquals_NoMatch(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionOutputEquals, Field: "step1", Operator: OpEquals, Value: "expected"}

	result, unknown := EvaluateCondition(w, s, lookupFrom(map[string]StepOutcome{
		"step1": {State: StateSuccess, Output: "different"},
	}))
	assert.False(t, result)
	assert.False(t, unknown)
}

func TestEvaluateCondition_StatusEquals(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionStatusEquals, Field: "step1", Operator: OpEquals, Value: "error"}

	result, _ := EvaluateCondition(w, s, lookupFrom(map[string]StepOutcome{
		"step1": {State: StateError},
	}))
	assert.True(t, result)
}

func TestEvaluateCondition_ErrorContains(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionErrorContains, Field: "step1", Operator: OpContains, Value: "timeout"}

	result, _ := EvaluateCondition(w, s, lookupFrom(map[string]StepOutcome{
		"step1": {State: StateError, Error: "request timeout after 5s"},
	}))
	assert.True(t, result)
}

func TestEvaluateCondition_PreviousStepStatus(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionPreviousStepStatus, Operator: OpEquals, Value: "success"}

	result, _ := EvaluateCondition(w, s, lookupFrom(map[string]StepOutcome{
		"step1": {State: StateSuccess},
	}))
	assert.True(t, result)
}

func TestEvaluateCondition_PreviousStepStatus_FirstStepHasNoPredecessor(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}}}
	s := w.Steps[0]
	s.Condition = &Condition{Kind: ConditionPreviousStepStatus, Operator: OpEquals, Value: ""}

	result, unknown := EvaluateCondition(w, s, lookupFrom(nil))
	assert.True(t, result)
	assert.False(t, unknown)
}

func TestEvaluateCondition_UnknownFieldReportsUnknown(t *testing.T) {
	w := &Workflow{Steps: []*Step{{ID: "step1", index: 0}, {ID: "step2", index: 1}}}
	s := w.Steps[1]
	s.Condition = &Condition{Kind: ConditionOutputContains, Field: "stepGhost", Operator: OpContains, Value: "x"}

	result, unknown := EvaluateCondition(w, s, lookupFrom(nil))
	assert.False(t, result)
	assert.True(t, unknown)
}
