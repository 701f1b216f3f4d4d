package workflow

import "fmt"

// PluginResolver reports whether a plugin name is loaded. It is satisfied
// by *pluginhost.Host; kept as an interface here so this package does not
// import pluginhost.
type PluginResolver interface {
	Has(name string) bool
}

// Validate runs every validation rule against w and returns the full set
// of failures; it does not stop at the first error. A nil or empty slice
// means w is safe to hand to an Executor. resolver may be nil, in which
// case plugin-resolution (rule 6) is skipped — callers that already
// checked plugin availability elsewhere may pass nil.
func Validate(w *Workflow, resolver PluginResolver) []error {
	var errs []error

	if len(w.Steps) == 0 {
		errs = append(errs, fmt.Errorf("workflow has no steps"))
		return errs
	}

	ids := make(map[string]int, len(w.Steps))
	for _, s := range w.Steps {
		if prev, ok := ids[s.ID]; ok {
			errs = append(errs, fmt.Errorf("duplicate step id %q (positions %d and %d)", s.ID, prev+1, s.index+1))
			continue
		}
		ids[s.ID] = s.index
	}

	for _, s := range w.Steps {
		if s.Plugin == "" {
			errs = append(errs, fmt.Errorf("step %s: missing required field %q", s.ID, "run"))
		} else if resolver != nil && !resolver.Has(s.Plugin) {
			errs = append(errs, fmt.Errorf("step %s: plugin %q not found in plugin host", s.ID, s.Plugin))
		}

		if s.Input.Kind == InputFrom {
			if _, ok := ids[s.Input.Ref]; !ok {
				errs = append(errs, fmt.Errorf("step %s: input_from references undefined step %q", s.ID, s.Input.Ref))
			}
		}

		for _, dep := range s.DependsOn {
			if _, ok := ids[dep]; !ok {
				errs = append(errs, fmt.Errorf("step %s: depends_on references undefined step %q", s.ID, dep))
			}
		}

		if s.Retries < 0 {
			errs = append(errs, fmt.Errorf("step %s: retries must be >= 0", s.ID))
		}
		if s.RetryDelayMS < 0 {
			errs = append(errs, fmt.Errorf("step %s: retry_delay must be >= 0", s.ID))
		}

		if s.Condition != nil {
			errs = append(errs, validateCondition(s, ids)...)
		}
	}

	if cycle := detectCycle(w); cycle != nil {
		errs = append(errs, fmt.Errorf("dependency cycle detected: %s", formatCycle(cycle)))
	}

	return errs
}

func validateCondition(s *Step, ids map[string]int) []error {
	c := s.Condition
	var errs []error
	switch c.Kind {
	case ConditionOutputContains, ConditionOutputEquals, ConditionStatusEquals, ConditionErrorContains:
		if c.Field == "" {
			errs = append(errs, fmt.Errorf("step %s: condition %s requires a field", s.ID, c.Kind))
			break
		}
		if _, ok := ids[c.Field]; !ok {
			// Not a hard validation error: per the condition-gate edge
			// cases, an unknown field evaluates false at run time with a
			// warning rather than failing validation.
		}
	case ConditionPreviousStepStatus:
		// Field is unused; the predecessor is determined by insertion order.
	default:
		errs = append(errs, fmt.Errorf("step %s: unknown condition kind %q", s.ID, c.Kind))
	}
	switch c.Operator {
	case OpEquals, OpNotEquals, OpContains, OpNotContains:
	default:
		errs = append(errs, fmt.Errorf("step %s: unknown condition operator %q", s.ID, c.Operator))
	}
	return errs
}

func formatCycle(cycle []string) string {
	out := cycle[0]
	for _, id := range cycle[1:] {
		out += " -> " + id
	}
	return out
}
