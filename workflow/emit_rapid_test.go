package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Any workflow built purely from random literal-input, dependency-free
// steps survives an Emit/ParseYAML round trip with every field intact —
// ids are positional, so they always reproduce identically too.
func TestProperty_EmitParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "stepCount")

		w := &Workflow{Name: rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(rt, "workflowName")}
		for i := 0; i < n; i++ {
			s := &Step{
				ID:          synthesizeID(i + 1),
				Plugin:      rapid.StringMatching(`[a-z][a-z0-9_]{0,15}`).Draw(rt, "plugin"),
				Input:       InputSpec{Kind: InputLiteral, Literal: rapid.String().Draw(rt, "literal")},
				CacheKey:    rapid.StringMatching(`[a-z0-9-]{0,15}`).Draw(rt, "cacheKey"),
				Description: rapid.StringMatching(`[a-zA-Z0-9 ]{0,40}`).Draw(rt, "description"),
				Retries:     rapid.IntRange(0, 5).Draw(rt, "retries"),
				index:       i,
			}
			w.Steps = append(w.Steps, s)
		}

		data, err := Emit(w)
		require.NoError(t, err)

		reparsed, errs := ParseYAML(data)
		require.Empty(t, errs)
		require.Len(t, reparsed.Steps, len(w.Steps))

		for i, want := range w.Steps {
			got := reparsed.Steps[i]
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Plugin, got.Plugin)
			assert.Equal(t, want.Input, got.Input)
			assert.Equal(t, want.CacheKey, got.CacheKey)
			assert.Equal(t, want.Description, got.Description)
			assert.Equal(t, want.Retries, got.Retries)
		}
	})
}
