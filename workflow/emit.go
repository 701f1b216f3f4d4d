package workflow

import "gopkg.in/yaml.v3"

// Emit serializes w back into the workflow document YAML format. Combined
// with ParseYAML, it satisfies the round-trip law for every field the
// document format carries (ids, plugin, input spec, deps, retries,
// cache_key, description, condition) — ids are positional and therefore
// always reproduce identically since they are never read from the
// document in the first place.
func Emit(w *Workflow) ([]byte, error) {
	doc := documentSchema{Workflow: w.Name}
	for _, s := range w.Steps {
		raw := stepSchema{
			Run:         s.Plugin,
			DependsOn:   s.DependsOn,
			CacheKey:    s.CacheKey,
			Description: s.Description,
			InputType:   string(s.InputType),
		}
		switch s.Input.Kind {
		case InputLiteral:
			v := s.Input.Literal
			raw.Input = &v
		case InputFrom:
			v := s.Input.Ref
			raw.InputFrom = &v
		}
		if s.Retries != 0 {
			r := s.Retries
			raw.Retries = &r
		}
		if s.RetryDelayMS != 0 {
			d := s.RetryDelayMS
			raw.RetryDelay = &d
		}
		if s.Condition != nil {
			raw.Condition = &conditionSchema{
				ConditionType: string(s.Condition.Kind),
				Field:         s.Condition.Field,
				Operator:      string(s.Condition.Operator),
				Value:         s.Condition.Value,
			}
		}
		doc.Steps = append(doc.Steps, raw)
	}
	return yaml.Marshal(doc)
}
