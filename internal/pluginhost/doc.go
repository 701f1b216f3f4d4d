// Package pluginhost discovers native plugin shared libraries in a
// directory, loads and binds each to its exported C vtable, and exposes a
// by-name lookup for safe, lifetime-correct invocation.
//
// Loading happens once, at startup, via Host.LoadFromDirectory. Individual
// library failures (open error, missing symbol, unsupported vtable
// version) are recorded as warnings and do not prevent the host from
// loading the rest of the directory. Invocation copies strings across the
// ABI boundary and releases plugin-owned output buffers through the
// vtable's own free function; no pointer returned by a plugin is retained
// past the call that produced it.
package pluginhost
