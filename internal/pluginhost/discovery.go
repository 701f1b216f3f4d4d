package pluginhost

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// sharedLibraryExtension returns the platform's native shared-library
// file extension.
func sharedLibraryExtension() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// candidateLibraries scans dir non-recursively for files matching the
// platform's shared-library extension, in directory order.
func candidateLibraries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext := sharedLibraryExtension()
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// manifest is the optional plugin.yaml sidecar a library may ship beside
// it, supplementing the vtable-declared name with documentation the core
// never enforces (metadata is advisory, per the host contract).
type manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
}

// loadManifest reads the sidecar manifest for a library path, if present.
// A missing or unreadable manifest is not an error: the vtable-declared
// name is always authoritative.
func loadManifest(libraryPath string) *manifest {
	sidecar := strings.TrimSuffix(libraryPath, filepath.Ext(libraryPath)) + ".plugin.yaml"
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return nil
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}
