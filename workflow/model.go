package workflow

import "fmt"

// StepState is one of the finite set of states a step passes through.
type StepState string

const (
	StatePending StepState = "pending"
	StateRunning StepState = "running"
	StateSuccess StepState = "success"
	StateError   StepState = "error"
	StateCache   StepState = "cache"
	StateSkipped StepState = "skipped"
)

// IsTerminal reports whether s is one of the terminal states.
func (s StepState) IsTerminal() bool {
	switch s {
	case StateSuccess, StateError, StateCache, StateSkipped:
		return true
	default:
		return false
	}
}

// InputKind distinguishes the three ways a step's input may be derived.
type InputKind int

const (
	InputNone InputKind = iota
	InputLiteral
	InputFrom
)

// InputSpec describes how a step's input is resolved before invocation.
type InputSpec struct {
	Kind    InputKind
	Literal string // valid when Kind == InputLiteral
	Ref     string // step id; valid when Kind == InputFrom
}

// ConditionKind names the kind of comparison a Condition performs.
type ConditionKind string

const (
	ConditionOutputContains    ConditionKind = "OutputContains"
	ConditionOutputEquals      ConditionKind = "OutputEquals"
	ConditionStatusEquals      ConditionKind = "StatusEquals"
	ConditionErrorContains     ConditionKind = "ErrorContains"
	ConditionPreviousStepStatus ConditionKind = "PreviousStepStatus"
)

// ConditionOperator names the comparison applied to a Condition's value.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "Equals"
	OpNotEquals   ConditionOperator = "NotEquals"
	OpContains    ConditionOperator = "Contains"
	OpNotContains ConditionOperator = "NotContains"
)

// Condition gates whether a step executes. Field names the step the
// condition inspects; it is empty for PreviousStepStatus, which always
// inspects the step's insertion-order predecessor.
type Condition struct {
	Kind     ConditionKind
	Field    string
	Operator ConditionOperator
	Value    string
}

// InputType is an optional display/validation hint; the core never
// transcodes based on it.
type InputType string

const (
	InputTypeText  InputType = "text"
	InputTypeAudio InputType = "audio"
	InputTypeImage InputType = "image"
	InputTypeVideo InputType = "video"
	InputTypeFile  InputType = "file"
)

// Step is a single unit of work bound to a named plugin.
type Step struct {
	ID            string
	Plugin        string
	Input         InputSpec
	DependsOn     []string
	Retries       int
	RetryDelayMS  int
	CacheKey      string
	Condition     *Condition
	Description   string
	InputType     InputType

	// index is the step's 0-based position in the workflow's declared
	// order. It drives default id synthesis and PreviousStepStatus.
	index int
}

// HasCacheKey reports whether the step participates in caching.
func (s *Step) HasCacheKey() bool {
	return s.CacheKey != ""
}

// Workflow is a named, ordered list of steps.
type Workflow struct {
	Name  string
	Steps []*Step
}

// StepByID returns the step with the given id, or nil if none exists.
func (w *Workflow) StepByID(id string) *Step {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// EffectiveDependencies returns depends_on ∪ {input_from ref} for a step.
// It does not include condition-referenced steps; those are folded in by
// Graph construction once conditions have been parsed (see graph.go).
func (s *Step) EffectiveDependencies() []string {
	seen := make(map[string]struct{}, len(s.DependsOn)+1)
	out := make([]string, 0, len(s.DependsOn)+1)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, d := range s.DependsOn {
		add(d)
	}
	if s.Input.Kind == InputFrom {
		add(s.Input.Ref)
	}
	return out
}

// synthesizeID returns the default id for a step at the given 1-based
// insertion position, used when the document omits an explicit id.
func synthesizeID(position int) string {
	return fmt.Sprintf("step%d", position)
}
