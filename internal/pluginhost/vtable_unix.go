//go:build cgo && (linux || darwin)

package pluginhost

/*
#include <dlfcn.h>
#include <stdlib.h>
#include <stdint.h>

typedef struct {
	uint32_t version;
	const char* (*name)(void);
	char* (*run)(const char* input);
	void (*free_output)(char* output);
	size_t (*run_with_buffer)(const char* input, char* buf, size_t len);
	const char* (*get_metadata)(void);
	int (*validate_input)(const char* input);
	const char* (*get_capabilities)(void);
} lao_plugin_vtable;

typedef lao_plugin_vtable* (*lao_vtable_fn)(void);

static void* lao_dlopen(const char* path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void* lao_dlsym(void* handle, const char* symbol) {
	return dlsym(handle, symbol);
}

static int lao_dlclose(void* handle) {
	return dlclose(handle);
}

static lao_plugin_vtable* lao_call_vtable_fn(void* fn) {
	return ((lao_vtable_fn)fn)();
}

static const char* lao_call_name(lao_plugin_vtable* vt) {
	return vt->name();
}

static char* lao_call_run(lao_plugin_vtable* vt, const char* input) {
	return vt->run(input);
}

static void lao_call_free_output(lao_plugin_vtable* vt, char* output) {
	vt->free_output(output);
}

static const char* lao_call_get_metadata(lao_plugin_vtable* vt) {
	if (vt->get_metadata == 0) {
		return 0;
	}
	return vt->get_metadata();
}

static const char* lao_call_get_capabilities(lao_plugin_vtable* vt) {
	if (vt->get_capabilities == 0) {
		return 0;
	}
	return vt->get_capabilities();
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// nativeLibrary wraps a dlopen'd shared library and its resolved vtable.
// A handle is only ever touched from the goroutine that owns its Host,
// except for run, which the host contract explicitly permits to be called
// concurrently unless the plugin declares itself single-threaded.
type nativeLibrary struct {
	handle unsafe.Pointer
	vtable *C.lao_plugin_vtable
}

func openLibrary(path string) (*nativeLibrary, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.lao_dlopen(cpath)
	if handle == nil {
		return nil, fmt.Errorf("dlopen failed")
	}

	symName := C.CString("plugin_vtable")
	defer C.free(unsafe.Pointer(symName))

	sym := C.lao_dlsym(handle, symName)
	if sym == nil {
		C.lao_dlclose(handle)
		return nil, fmt.Errorf("symbol %q not found", "plugin_vtable")
	}

	vt := C.lao_call_vtable_fn(sym)
	if vt == nil {
		C.lao_dlclose(handle)
		return nil, fmt.Errorf("plugin_vtable() returned null")
	}

	return &nativeLibrary{handle: handle, vtable: vt}, nil
}

func (l *nativeLibrary) version() uint32 {
	return uint32(l.vtable.version)
}

func (l *nativeLibrary) name() string {
	cstr := C.lao_call_name(l.vtable)
	if cstr == nil {
		return ""
	}
	return C.GoString(cstr)
}

func (l *nativeLibrary) run(input string) (string, error) {
	cinput := C.CString(input)
	defer C.free(unsafe.Pointer(cinput))

	coutput := C.lao_call_run(l.vtable, cinput)
	if coutput == nil {
		return "", errPluginReturnedNull
	}
	out := C.GoString(coutput)
	C.lao_call_free_output(l.vtable, coutput)
	return out, nil
}

func (l *nativeLibrary) metadataJSON() string {
	cstr := C.lao_call_get_metadata(l.vtable)
	if cstr == nil {
		return ""
	}
	return C.GoString(cstr)
}

func (l *nativeLibrary) capabilitiesJSON() string {
	cstr := C.lao_call_get_capabilities(l.vtable)
	if cstr == nil {
		return ""
	}
	return C.GoString(cstr)
}

func (l *nativeLibrary) close() error {
	if C.lao_dlclose(l.handle) != 0 {
		return fmt.Errorf("dlclose failed")
	}
	return nil
}
