package workflow

// Graph is the dependency DAG built from a workflow's steps, with each
// step's effective dependency set widened by any condition it carries
// (Design Notes: conditions can implicitly widen the effective dependency
// set; effective dependencies are computed once, after parsing conditions,
// and used for both layering and gating).
type Graph struct {
	workflow *Workflow
	deps     map[string][]string // step id -> effective dependency ids
	layers   [][]string          // layer index -> step ids, insertion order within layer
}

// BuildGraph computes the effective dependency set for every step and
// partitions the steps into layers by Kahn's algorithm: layer 0 holds
// steps with no dependencies; layer k+1 holds steps whose dependencies are
// all satisfied by layers <= k. Ties within a layer are insertion order.
//
// BuildGraph does not itself fail on a cycle; callers should run Validate
// first. If a cycle is present, the steps participating in it are simply
// never assigned a layer.
func BuildGraph(w *Workflow) *Graph {
	g := &Graph{
		workflow: w,
		deps:     make(map[string][]string, len(w.Steps)),
	}
	for _, s := range w.Steps {
		g.deps[s.ID] = effectiveDependencies(w, s)
	}
	g.layers = kahnLayers(w, g.deps)
	return g
}

// effectiveDependencies returns depends_on ∪ {input_from ref} ∪
// {condition-referenced step, if any} for s.
func effectiveDependencies(w *Workflow, s *Step) []string {
	base := s.EffectiveDependencies()
	if s.Condition == nil {
		return base
	}

	var extra string
	switch s.Condition.Kind {
	case ConditionOutputContains, ConditionOutputEquals, ConditionStatusEquals, ConditionErrorContains:
		extra = s.Condition.Field
	case ConditionPreviousStepStatus:
		if s.index > 0 {
			extra = w.Steps[s.index-1].ID
		}
	}
	if extra == "" {
		return base
	}
	if w.StepByID(extra) == nil {
		// Unknown field: not a real dependency, evaluated false at run time.
		return base
	}
	for _, id := range base {
		if id == extra {
			return base
		}
	}
	out := make([]string, len(base), len(base)+1)
	copy(out, base)
	return append(out, extra)
}

// kahnLayers assigns each step to the earliest layer whose index exceeds
// every dependency's layer, iterating until fixpoint or no progress (the
// latter indicating a cycle, in which case unassigned steps are omitted).
func kahnLayers(w *Workflow, deps map[string][]string) [][]string {
	layerOf := make(map[string]int, len(w.Steps))
	remaining := len(w.Steps)

	for remaining > 0 {
		progressed := false
		for _, s := range w.Steps {
			if _, done := layerOf[s.ID]; done {
				continue
			}
			maxDepLayer := -1
			ready := true
			for _, d := range deps[s.ID] {
				dl, ok := layerOf[d]
				if !ok {
					ready = false
					break
				}
				if dl > maxDepLayer {
					maxDepLayer = dl
				}
			}
			if !ready {
				continue
			}
			layerOf[s.ID] = maxDepLayer + 1
			remaining--
			progressed = true
		}
		if !progressed {
			break // cycle: leave remaining steps unassigned
		}
	}

	maxLayer := -1
	for _, l := range layerOf {
		if l > maxLayer {
			maxLayer = l
		}
	}
	if maxLayer < 0 {
		return nil
	}
	layers := make([][]string, maxLayer+1)
	for _, s := range w.Steps {
		if l, ok := layerOf[s.ID]; ok {
			layers[l] = append(layers[l], s.ID)
		}
	}
	return layers
}

// Layers returns the computed layer partition, outermost index first.
func (g *Graph) Layers() [][]string {
	return g.layers
}

// Dependencies returns the effective dependency ids for a step.
func (g *Graph) Dependencies(stepID string) []string {
	return g.deps[stepID]
}

// detectCycle performs a DFS cycle search over effective dependencies and
// returns one offending cycle (as a slice of step ids, first repeated
// last) or nil if the graph is acyclic.
func detectCycle(w *Workflow) []string {
	deps := make(map[string][]string, len(w.Steps))
	for _, s := range w.Steps {
		deps[s.ID] = effectiveDependencies(w, s)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(w.Steps))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		switch state[id] {
		case visiting:
			// Found the back-edge; slice the stack from its first
			// occurrence of id to produce a minimal cycle.
			for i, s := range stack {
				if s == id {
					cycle := append([]string{}, stack[i:]...)
					return append(cycle, id)
				}
			}
			return []string{id, id}
		case done:
			return nil
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, d := range deps[id] {
			if cycle := visit(d); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, s := range w.Steps {
		if state[s.ID] == unvisited {
			if cycle := visit(s.ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
