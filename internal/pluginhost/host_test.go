package pluginhost

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/abendrothj/lao/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gatherMetric returns the current value of the first sample of the named
// counter/gauge registered against the default Prometheus registry.
func gatherMetric(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.NotEmpty(t, f.Metric)
		m := f.Metric[0]
		if m.Counter != nil {
			return m.Counter.GetValue()
		}
		if m.Gauge != nil {
			return m.Gauge.GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewHost_NilLoggerDefaultsToNop(t *testing.T) {
	h := NewHost(nil, nil)
	require.NotNil(t, h)
	assert.False(t, h.Has("anything"))
}

// Candidate files that are not real shared libraries fail to load, with the
// cgo loader and the non-cgo stub alike; LoadFromDirectory must record that
// as a warning per file rather than returning an error, so the rest of the
// host keeps working.
func TestHost_LoadFromDirectory_RecordsWarningsOnLoadFailure(t *testing.T) {
	dir := t.TempDir()
	ext := sharedLibraryExtension()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha"+ext), []byte("not a real shared library"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta"+ext), []byte("not a real shared library"), 0o644))

	h := NewHost(zaptest.NewLogger(t), nil)
	warnings, err := h.LoadFromDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	assert.Empty(t, h.List())
}

// LoadFromDirectory must feed its metrics Collector: a load failure is
// counted and the final loaded-plugin gauge reflects the successful set,
// which here is empty since the only candidate is not a real shared library.
func TestHost_LoadFromDirectory_RecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	ext := sharedLibraryExtension()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha"+ext), []byte("not a real shared library"), 0o644))

	collector := metrics.NewCollector("pluginhost_test_metrics", zaptest.NewLogger(t))
	h := NewHost(zaptest.NewLogger(t), collector)
	_, err := h.LoadFromDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, float64(1), gatherMetric(t, "pluginhost_test_metrics_plugin_load_failures_total"))
	assert.Equal(t, float64(0), gatherMetric(t, "pluginhost_test_metrics_plugins_loaded"))
}

func TestHost_LoadFromDirectory_NonExistentDirReturnsError(t *testing.T) {
	h := NewHost(zaptest.NewLogger(t), nil)
	_, err := h.LoadFromDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHost_GetAndHas_UnknownPlugin(t *testing.T) {
	h := NewHost(zaptest.NewLogger(t), nil)
	assert.False(t, h.Has("ghost"))
	_, ok := h.Get("ghost")
	assert.False(t, ok)
}

func TestHost_Run_UnknownPluginReturnsErrPluginNotFound(t *testing.T) {
	h := NewHost(zaptest.NewLogger(t), nil)
	_, err := h.Run(context.Background(), "ghost", "input")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPluginNotFound)
}

func TestHost_UnloadAll_EmptyHostIsNoop(t *testing.T) {
	h := NewHost(zaptest.NewLogger(t), nil)
	assert.NoError(t, h.UnloadAll())
}

func TestHost_List_EmptyHost(t *testing.T) {
	h := NewHost(zaptest.NewLogger(t), nil)
	assert.Empty(t, h.List())
}

func TestLoadWarning_Error(t *testing.T) {
	w := LoadWarning{Path: "/plugins/alpha.so", Err: ErrUnsupportedVTableVersion}
	assert.Contains(t, w.Error(), "/plugins/alpha.so")
	assert.Contains(t, w.Error(), "unsupported vtable version")
}
