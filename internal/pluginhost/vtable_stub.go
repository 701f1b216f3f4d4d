//go:build !cgo || (!linux && !darwin)

package pluginhost

import "fmt"

// nativeLibrary is the non-cgo fallback. Native shared-library loading
// requires cgo and a dlopen-capable platform; builds without either can
// still compile and run the rest of the host (discovery, registry,
// validation of warnings) but every openLibrary call fails, matching the
// "file failed to load" warning path rather than refusing to build.
type nativeLibrary struct{}

func openLibrary(path string) (*nativeLibrary, error) {
	return nil, fmt.Errorf("native plugin loading requires cgo on a dlopen-capable platform")
}

func (l *nativeLibrary) version() uint32          { return 0 }
func (l *nativeLibrary) name() string             { return "" }
func (l *nativeLibrary) run(string) (string, error) {
	return "", fmt.Errorf("native plugin loading unavailable in this build")
}
func (l *nativeLibrary) metadataJSON() string     { return "" }
func (l *nativeLibrary) capabilitiesJSON() string { return "" }
func (l *nativeLibrary) close() error             { return nil }
