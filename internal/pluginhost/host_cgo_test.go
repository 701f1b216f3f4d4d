//go:build cgo && (linux || darwin)

package pluginhost

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// compileFixture compiles testdata/fixture/fixture.c into dir under the
// platform's shared-library extension, returning the output path. It
// skips the test if no C compiler is available, rather than failing —
// this exercise's CI may not carry a toolchain.
func compileFixture(t *testing.T, dir string) string {
	t.Helper()

	cc, err := exec.LookPath("cc")
	if err != nil {
		cc, err = exec.LookPath("gcc")
	}
	if err != nil {
		t.Skip("no C compiler available, skipping cgo fixture test")
	}

	src, err := filepath.Abs(filepath.Join("testdata", "fixture", "fixture.c"))
	require.NoError(t, err)

	out := filepath.Join(dir, "fixture"+sharedLibraryExtension())
	shared := "-shared"
	if runtime.GOOS == "darwin" {
		shared = "-dynamiclib"
	}

	cmd := exec.Command(cc, shared, "-fPIC", "-o", out, src)
	output, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "compiling fixture plugin: %s", output)

	return out
}

// This is the one test in the tree that exercises the real dlopen/dlsym
// vtable-marshaling path in vtable_unix.go end to end with a library that
// actually loads; host_test.go only hands the loader files that fail to open.
func TestHost_LoadFromDirectory_RealFixturePlugin(t *testing.T) {
	dir := t.TempDir()
	compileFixture(t, dir)

	h := NewHost(zaptest.NewLogger(t), nil)
	warnings, err := h.LoadFromDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.True(t, h.Has("echo-fixture"))

	out, err := h.Run(context.Background(), "echo-fixture", "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)

	infos := h.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "echo-fixture", infos[0].Name)
	assert.Equal(t, `{"kind":"echo"}`, infos[0].Capabilities)

	require.NoError(t, h.UnloadAll())
	assert.False(t, h.Has("echo-fixture"))
}

// TestHost_LoadFromDirectory_RealFixturePlugin_DuplicateIsShadowed loads
// the same fixture twice under different filenames to exercise the
// first-wins duplicate-name path against a real loaded library rather
// than the stub.
func TestHost_LoadFromDirectory_RealFixturePlugin_DuplicateIsShadowed(t *testing.T) {
	dir := t.TempDir()
	first := compileFixture(t, dir)

	second := filepath.Join(dir, "fixture-copy"+sharedLibraryExtension())
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(second, data, 0o755))

	h := NewHost(zaptest.NewLogger(t), nil)
	warnings, err := h.LoadFromDirectory(dir)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "duplicate plugin name")

	infos := h.List()
	require.Len(t, infos, 1)
	assert.Len(t, infos[0].Shadowed, 1)
}
