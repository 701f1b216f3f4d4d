package pluginhost

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/abendrothj/lao/internal/metrics"
	"go.uber.org/zap"
)

const supportedVTableVersion = 1

// Handle is an opaque, borrowed reference to a loaded plugin, returned by
// Host.Get. It is only valid for the lifetime of the Host that produced
// it.
type Handle struct {
	name string
}

// Host discovers, loads, and invokes native plugin shared libraries. It is
// read-mostly after LoadFromDirectory: concurrent Get and Run calls are
// permitted without external synchronization.
type Host struct {
	logger  *zap.Logger
	metrics *metrics.Collector

	mu        sync.RWMutex
	plugins   map[string]*loadedPlugin
	loadOrder []string // names, in the order they were successfully loaded
}

// NewHost constructs an empty Host. Call LoadFromDirectory to populate it.
// collector may be nil; every Collector method tolerates a nil receiver.
func NewHost(logger *zap.Logger, collector *metrics.Collector) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		logger:  logger.With(zap.String("component", "pluginhost")),
		metrics: collector,
		plugins: make(map[string]*loadedPlugin),
	}
}

// LoadFromDirectory scans path non-recursively for shared libraries,
// loads each, and resolves its vtable. Failures are recorded as warnings
// and do not stop the scan; the returned error is non-nil only when the
// directory itself cannot be read.
func (h *Host) LoadFromDirectory(path string) ([]LoadWarning, error) {
	files, err := candidateLibraries(path)
	if err != nil {
		return nil, fmt.Errorf("scan plugins directory %s: %w", path, err)
	}

	var warnings []LoadWarning
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, file := range files {
		lib, err := openLibrary(file)
		if err != nil {
			h.logger.Warn("failed to load plugin library", zap.String("path", file), zap.Error(err))
			warnings = append(warnings, LoadWarning{Path: file, Err: err})
			h.metrics.RecordPluginLoadFailure()
			continue
		}

		if lib.version() != supportedVTableVersion {
			h.logger.Warn("unsupported plugin vtable version",
				zap.String("path", file), zap.Uint32("version", lib.version()))
			warnings = append(warnings, LoadWarning{Path: file, Err: ErrUnsupportedVTableVersion})
			_ = lib.close()
			h.metrics.RecordPluginLoadFailure()
			continue
		}

		name := lib.name()
		if name == "" {
			h.logger.Warn("plugin declared empty name", zap.String("path", file))
			warnings = append(warnings, LoadWarning{Path: file, Err: fmt.Errorf("plugin name() returned empty string")})
			_ = lib.close()
			h.metrics.RecordPluginLoadFailure()
			continue
		}

		if existing, ok := h.plugins[name]; ok {
			h.logger.Warn("duplicate plugin name, first-wins",
				zap.String("name", name), zap.String("kept", existing.info.Path), zap.String("rejected", file))
			existing.info.Shadowed = append(existing.info.Shadowed, file)
			warnings = append(warnings, LoadWarning{Path: file, Err: fmt.Errorf("duplicate plugin name %q, first-wins", name)})
			_ = lib.close()
			h.metrics.RecordPluginLoadFailure()
			continue
		}

		info := PluginInfo{Name: name, Path: file, Capabilities: lib.capabilitiesJSON()}
		if m := loadManifest(file); m != nil {
			info.Version = m.Version
			info.Description = m.Description
		}

		h.plugins[name] = &loadedPlugin{lib: lib, info: info}
		h.loadOrder = append(h.loadOrder, name)
		h.logger.Info("loaded plugin", zap.String("name", name), zap.String("path", file))
	}

	h.metrics.SetPluginsLoaded(len(h.plugins))
	return warnings, nil
}

// Has reports whether name resolved to a loaded plugin. It satisfies
// workflow.PluginResolver.
func (h *Host) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.plugins[name]
	return ok
}

// Get performs a case-sensitive by-name lookup.
func (h *Host) Get(name string) (*Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.plugins[name]; !ok {
		return nil, false
	}
	return &Handle{name: name}, true
}

// List returns every loaded plugin's advisory info, sorted by name.
func (h *Host) List() []PluginInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PluginInfo, 0, len(h.plugins))
	for _, p := range h.plugins {
		out = append(out, p.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunHandle invokes the plugin behind handle with input, copying the
// returned string out of the plugin's buffer and releasing the buffer
// through the vtable before returning. It blocks the calling goroutine.
func (h *Host) RunHandle(ctx context.Context, handle *Handle, input string) (string, error) {
	h.mu.RLock()
	p, ok := h.plugins[handle.name]
	h.mu.RUnlock()
	if !ok {
		return "", ErrPluginNotFound
	}
	return p.lib.run(input)
}

// Run resolves name and invokes it, satisfying workflow.PluginRunner for
// callers that would rather address plugins by name than by Handle.
func (h *Host) Run(ctx context.Context, name, input string) (string, error) {
	handle, ok := h.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return h.RunHandle(ctx, handle, input)
}

// UnloadAll releases every loaded library in reverse load order.
func (h *Host) UnloadAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for i := len(h.loadOrder) - 1; i >= 0; i-- {
		name := h.loadOrder[i]
		p, ok := h.plugins[name]
		if !ok {
			continue
		}
		if err := p.lib.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(h.plugins, name)
	}
	h.loadOrder = nil
	return firstErr
}
