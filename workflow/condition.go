package workflow

import "strings"

// StepOutcome is the minimal view of a terminal step's result a Condition
// needs to evaluate: its state, recorded output, and recorded error text
// (empty if none).
type StepOutcome struct {
	State  StepState
	Output string
	Error  string
}

// OutcomeLookup resolves a step id to its terminal outcome. The executor
// satisfies this directly from its per-run state map.
type OutcomeLookup func(stepID string) (StepOutcome, bool)

// compareFns dispatches a ConditionOperator to its comparison, mirroring a
// registry-with-fallback lookup rather than a long if/else chain.
var compareFns = map[ConditionOperator]func(actual, value string) bool{
	OpEquals:      func(actual, value string) bool { return actual == value },
	OpNotEquals:   func(actual, value string) bool { return actual != value },
	OpContains:    func(actual, value string) bool { return strings.Contains(actual, value) },
	OpNotContains: func(actual, value string) bool { return !strings.Contains(actual, value) },
}

// EvaluateCondition decides whether the step carrying c should run. w and s
// give access to insertion order for PreviousStepStatus. lookup resolves
// condition-referenced steps; it is only ever called with ids already
// known to be terminal when conditions are evaluated at the right point in
// the executor's per-step procedure.
//
// unknownField is true when the condition named a step that does not
// exist in the workflow; the caller should log a warning in that case.
func EvaluateCondition(w *Workflow, s *Step, lookup OutcomeLookup) (result bool, unknownField bool) {
	c := s.Condition
	cmp, ok := compareFns[c.Operator]
	if !ok {
		return false, false
	}

	switch c.Kind {
	case ConditionOutputContains, ConditionOutputEquals:
		outcome, found := lookup(c.Field)
		if !found {
			return false, true
		}
		return cmp(outcome.Output, c.Value), false

	case ConditionStatusEquals:
		outcome, found := lookup(c.Field)
		if !found {
			return false, true
		}
		return cmp(string(outcome.State), c.Value), false

	case ConditionErrorContains:
		outcome, found := lookup(c.Field)
		if !found {
			return false, true
		}
		return cmp(outcome.Error, c.Value), false

	case ConditionPreviousStepStatus:
		if s.index == 0 {
			return cmp("", c.Value), false
		}
		prev := w.Steps[s.index-1]
		outcome, found := lookup(prev.ID)
		if !found {
			return cmp("", c.Value), false
		}
		return cmp(string(outcome.State), c.Value), false

	default:
		return false, false
	}
}
