package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a workflow document into its in-memory model. It
// returns a best-effort Workflow (possibly with empty/zero fields where the
// document is malformed) alongside a list of structural parse errors —
// unknown top-level keys, unknown step keys, and input/input_from
// exclusivity violations (validation rules 1-3 in the document contract).
// Reference-integrity, plugin-resolution, and cycle checks are performed
// separately by Validate, since those require the fully-built step list.
func ParseYAML(data []byte) (*Workflow, []error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, []error{fmt.Errorf("parse workflow document: %w", err)}
	}
	if len(root.Content) == 0 {
		return &Workflow{}, []error{fmt.Errorf("empty workflow document")}
	}
	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return &Workflow{}, []error{fmt.Errorf("workflow document must be a mapping")}
	}

	var errs []error

	for i := 0; i < len(docNode.Content); i += 2 {
		key := docNode.Content[i].Value
		if _, ok := recognizedDocumentFields[key]; !ok {
			errs = append(errs, fmt.Errorf("unknown top-level field %q", key))
		}
	}

	var doc documentSchema
	if err := docNode.Decode(&doc); err != nil {
		return &Workflow{}, append(errs, fmt.Errorf("decode workflow document: %w", err))
	}

	if len(doc.Steps) == 0 {
		errs = append(errs, fmt.Errorf("workflow has no steps"))
	}

	stepsNode := findMappingValue(docNode, "steps")

	w := &Workflow{Name: doc.Workflow}
	for i, raw := range doc.Steps {
		position := i + 1
		id := synthesizeID(position)

		if stepsNode != nil && i < len(stepsNode.Content) {
			errs = append(errs, unknownStepFields(stepsNode.Content[i], id)...)
		}

		if raw.Run == "" {
			errs = append(errs, fmt.Errorf("step %s: missing required field %q", id, "run"))
		}

		step := &Step{
			ID:          id,
			Plugin:      raw.Run,
			DependsOn:   raw.DependsOn,
			CacheKey:    raw.CacheKey,
			Description: raw.Description,
			InputType:   InputType(raw.InputType),
			index:       i,
		}

		switch {
		case raw.Input != nil && raw.InputFrom != nil:
			errs = append(errs, fmt.Errorf("step %s: at most one of %q and %q may be set", id, "input", "input_from"))
			step.Input = InputSpec{Kind: InputLiteral, Literal: *raw.Input}
		case raw.Input != nil:
			step.Input = InputSpec{Kind: InputLiteral, Literal: *raw.Input}
		case raw.InputFrom != nil:
			step.Input = InputSpec{Kind: InputFrom, Ref: *raw.InputFrom}
		default:
			step.Input = InputSpec{Kind: InputNone}
		}

		if raw.Retries != nil {
			if *raw.Retries < 0 {
				errs = append(errs, fmt.Errorf("step %s: retries must be >= 0, got %d", id, *raw.Retries))
			}
			step.Retries = *raw.Retries
		}
		if raw.RetryDelay != nil {
			if *raw.RetryDelay < 0 {
				errs = append(errs, fmt.Errorf("step %s: retry_delay must be >= 0, got %d", id, *raw.RetryDelay))
			}
			step.RetryDelayMS = *raw.RetryDelay
		}

		if raw.Condition != nil {
			cond, condErrs := buildCondition(id, raw.Condition)
			step.Condition = cond
			errs = append(errs, condErrs...)
		}

		w.Steps = append(w.Steps, step)
	}

	return w, errs
}

func buildCondition(stepID string, c *conditionSchema) (*Condition, []error) {
	var errs []error
	kind := ConditionKind(c.ConditionType)
	switch kind {
	case ConditionOutputContains, ConditionOutputEquals, ConditionStatusEquals,
		ConditionErrorContains, ConditionPreviousStepStatus:
	default:
		errs = append(errs, fmt.Errorf("step %s: unknown condition_type %q", stepID, c.ConditionType))
	}
	op := ConditionOperator(c.Operator)
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains:
	default:
		errs = append(errs, fmt.Errorf("step %s: unknown condition operator %q", stepID, c.Operator))
	}
	return &Condition{Kind: kind, Field: c.Field, Operator: op, Value: c.Value}, errs
}

// findMappingValue returns the value node mapped to key within a mapping
// node, or nil if key is absent or node is not a mapping.
func findMappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// unknownStepFields reports every key in a step mapping node that is not
// part of the recognized step schema.
func unknownStepFields(stepNode *yaml.Node, id string) []error {
	if stepNode.Kind != yaml.MappingNode {
		return nil
	}
	var errs []error
	for i := 0; i < len(stepNode.Content); i += 2 {
		key := stepNode.Content[i].Value
		if _, ok := recognizedStepFields[key]; !ok {
			errs = append(errs, fmt.Errorf("step %s: unknown field %q", id, key))
		}
	}
	return errs
}
