package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitThenParse_RoundTrip(t *testing.T) {
	original := mustParse(t, `
workflow: pipeline
steps:
  - run: fetcher
    input: "https://example.test"
    description: "fetch"
  - run: transformer
    input_from: step1
    depends_on: [step1]
    retries: 2
    retry_delay: 500
    cache_key: "transform-v1"
  - run: notifier
    condition:
      condition_type: StatusEquals
      field: step2
      operator: Equals
      value: success
`)

	data, err := Emit(original)
	require.NoError(t, err)

	reparsed, errs := ParseYAML(data)
	require.Empty(t, errs)
	require.Len(t, reparsed.Steps, len(original.Steps))

	for i := range original.Steps {
		want := original.Steps[i]
		got := reparsed.Steps[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Plugin, got.Plugin)
		assert.Equal(t, want.Input, got.Input)
		assert.Equal(t, want.DependsOn, got.DependsOn)
		assert.Equal(t, want.Retries, got.Retries)
		assert.Equal(t, want.RetryDelayMS, got.RetryDelayMS)
		assert.Equal(t, want.CacheKey, got.CacheKey)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Condition, got.Condition)
	}
}
