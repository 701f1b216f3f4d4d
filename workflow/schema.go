package workflow

// documentSchema and stepSchema mirror the YAML wire format exactly as
// named in the workflow document contract: top-level `workflow` + `steps`,
// and per-step `run`/`input`/`input_from`/`depends_on`/`retries`/
// `retry_delay`/`cache_key`/`description`/`input_type`/`condition`.
//
// Step ids are never read from the document — they are always synthesized
// as step1, step2, ... in insertion order. Unmarshal to stepSchema happens
// through yaml.Node so unknown-field detection in parse.go can report
// every offending key, not just the first.

type documentSchema struct {
	Workflow string       `yaml:"workflow"`
	Steps    []stepSchema `yaml:"steps"`
}

type stepSchema struct {
	Run         string            `yaml:"run"`
	Input       *string           `yaml:"input"`
	InputFrom   *string           `yaml:"input_from"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Retries     *int              `yaml:"retries"`
	RetryDelay  *int              `yaml:"retry_delay"`
	CacheKey    string            `yaml:"cache_key"`
	Description string            `yaml:"description"`
	InputType   string            `yaml:"input_type"`
	Condition   *conditionSchema  `yaml:"condition"`
}

type conditionSchema struct {
	ConditionType string `yaml:"condition_type"`
	Field         string `yaml:"field"`
	Operator      string `yaml:"operator"`
	Value         string `yaml:"value"`
}

var recognizedStepFields = map[string]struct{}{
	"run": {}, "input": {}, "input_from": {}, "depends_on": {},
	"retries": {}, "retry_delay": {}, "cache_key": {}, "description": {},
	"input_type": {}, "condition": {},
}

var recognizedDocumentFields = map[string]struct{}{
	"workflow": {}, "steps": {},
}
