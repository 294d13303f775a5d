// Command libpywire is the c-shared build of the embedding host. Build it
// with
//
//	go build -buildmode=c-shared -o libpywire_shell.so ./cmd/libpywire
//
// and drive it from the controller process over ctypes/FFI. The exported
// surface and its status codes are documented on the shell package.
package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*pw_event_callback)(const char*);

typedef struct {
	const char* title;
	const char* url;
	uint32_t width;
	uint32_t height;
	pw_event_callback on_event;
} pw_init_params;

static void pw_invoke_event_callback(pw_event_callback cb, const char* payload) {
	if (cb != NULL) {
		cb(payload);
	}
}
*/
import "C"

import (
	"unsafe"

	shell "github.com/pywire/pywire-shell"
)

// onEvent is the controller's outbound callback. Written once during
// pw_start_app, before the UI loop can deliver anything.
var onEvent C.pw_event_callback

// cVersion is allocated once and never freed; controllers may hold the
// pointer for the process lifetime.
var cVersion = C.CString(shell.Version)

//export pw_execute_javascript
func pw_execute_javascript(script *C.char) C.int32_t {
	if script == nil {
		return C.int32_t(shell.StatusInvalidArgument)
	}
	return C.int32_t(shell.ExecuteScript(C.GoString(script)))
}

//export pw_set_title
func pw_set_title(title *C.char) C.int32_t {
	if title == nil {
		return C.int32_t(shell.StatusInvalidArgument)
	}
	return C.int32_t(shell.SetTitle(C.GoString(title)))
}

//export pw_resize_window
func pw_resize_window(width, height C.uint32_t) C.int32_t {
	return C.int32_t(shell.ResizeWindow(uint32(width), uint32(height)))
}

//export pw_version
func pw_version() *C.char {
	return cVersion
}

//export pw_start_app
func pw_start_app(params C.pw_init_params) C.int32_t {
	cfg := shell.Config{
		Width:  uint32(params.width),
		Height: uint32(params.height),
	}
	if params.title != nil {
		cfg.Title = C.GoString(params.title)
	}
	if params.url != nil {
		cfg.URL = C.GoString(params.url)
	}
	if params.on_event != nil {
		onEvent = params.on_event
		cfg.OnMessage = deliverEvent
	}
	return C.int32_t(shell.StartApp(cfg))
}

// deliverEvent hands one payload to the controller. It runs on the UI
// thread inside the engine's message path; the C string only lives for
// the duration of the call.
func deliverEvent(payload string) {
	cp := C.CString(payload)
	defer C.free(unsafe.Pointer(cp))
	C.pw_invoke_event_callback(onEvent, cp)
}

func main() {}
