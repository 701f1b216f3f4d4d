package pluginhost

import "errors"

// ErrPluginNotFound is returned when a caller asks for a plugin name the
// host never loaded.
var ErrPluginNotFound = errors.New("pluginhost: plugin not found")

// errPluginReturnedNull is the step-local error surfaced when a plugin's
// run function returns a null output pointer.
var errPluginReturnedNull = errors.New("plugin returned null")

// ErrUnsupportedVTableVersion is recorded as a load warning when a library
// declares a vtable version other than the one this host understands.
var ErrUnsupportedVTableVersion = errors.New("pluginhost: unsupported vtable version")

// LoadWarning is a non-fatal failure encountered while scanning a plugins
// directory: the offending file and why it was skipped.
type LoadWarning struct {
	Path string
	Err  error
}

func (w LoadWarning) Error() string {
	return w.Path + ": " + w.Err.Error()
}
