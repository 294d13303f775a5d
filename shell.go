// Package shell is an embedding host for an opaque web engine: it opens a
// single on-screen window, drives the engine cooperatively on a dedicated
// UI thread, and exposes a small controller-facing surface for injecting
// script and window commands from other threads.
//
// The controller calls StartApp once from a thread it dedicates to the UI
// loop; ExecuteScript, SetTitle and ResizeWindow may then be called from
// any thread and are delivered to the loop through an internal mailbox.
// Messages emitted by page script through the reserved console prefix are
// forwarded to the controller's OnMessage callback.
package shell

import (
	"log"
	"runtime"
	"sync/atomic"
	"unicode/utf8"

	"github.com/pywire/pywire-shell/internal/ffi"
	"github.com/pywire/pywire-shell/internal/mailbox"
)

// Version is the build identifier reported to controllers.
const Version = "0.2.0"

// MessagePrefix marks console lines that carry a controller-bound payload.
// Page script emits them as console.log("PW_MSG:" + payload); the prefix is
// stripped before the payload reaches the OnMessage callback.
const MessagePrefix = "PW_MSG:"

// publishedSender is the process-wide mailbox slot. It is published exactly
// once by StartApp; controller-facing functions fail with StatusNotReady
// until then. It intentionally stays published after the loop exits so late
// posts fail with StatusSendFailed rather than StatusNotReady.
var publishedSender atomic.Pointer[mailbox.Sender]

// ExecuteScript queues script for asynchronous evaluation in the page.
// The evaluation result is discarded.
//
// Statuses: StatusOK; StatusInvalidArgument for invalid UTF-8;
// StatusNotReady before StartApp has published the mailbox;
// StatusSendFailed after the UI loop has shut down.
func ExecuteScript(script string) int32 {
	if !utf8.ValidString(script) {
		return StatusInvalidArgument
	}
	return post(cmdExecuteScript{script: script})
}

// SetTitle asks the UI loop to retitle the window.
//
// Statuses: same scheme as ExecuteScript.
func SetTitle(title string) int32 {
	if !utf8.ValidString(title) {
		return StatusInvalidArgument
	}
	return post(cmdSetTitle{title: title})
}

// ResizeWindow asks the UI loop to resize the window to the given logical
// size.
//
// Statuses: StatusOK; StatusNotReady before mailbox publication;
// StatusSendFailed after shutdown. There is no pointer argument to
// validate, so StatusInvalidArgument is never returned.
func ResizeWindow(width, height uint32) int32 {
	return post(cmdResize{width: width, height: height})
}

func post(cmd any) int32 {
	s := publishedSender.Load()
	if s == nil {
		return StatusNotReady
	}
	if err := s.Post(cmd); err != nil {
		return StatusSendFailed
	}
	return StatusOK
}

// StartApp runs the entire UI loop on the calling thread and does not
// return until the window is closed or a fatal error occurs. It performs
// the one-time process setup: host config load, resource path validation,
// mailbox publication and callback registration, engine library load.
//
// Statuses: StatusOK on clean shutdown; StatusInternalError for any fatal
// fault (missing resources, GPU or engine construction failure, a second
// StartApp call, or a recovered internal panic).
func StartApp(cfg Config) (status int32) {
	// The boundary converts any internal fault into a status instead of
	// taking the embedding process down.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[shell] fatal: %v", r)
			status = StatusInternalError
		}
	}()

	// The loop, both GL contexts and the engine are thread-affine.
	runtime.LockOSThread()

	host := loadHostConfig()
	resources, err := resolveResourcesPath(host)
	if err != nil {
		log.Printf("[shell] %v", err)
		return StatusInternalError
	}

	lib, err := ffi.Load(host.EnginePath)
	if err != nil {
		log.Printf("[shell] %v", err)
		return StatusInternalError
	}
	if !host.Quiet {
		log.Printf("[shell] host %s, engine %s", Version, lib.Version())
	}

	platform, err := newGLFWPlatform()
	if err != nil {
		log.Printf("[shell] %v", err)
		return StatusInternalError
	}
	defer platform.Terminate()

	box := mailbox.New(platform.Wake)
	if !publishedSender.CompareAndSwap(nil, box.Sender()) {
		// A previous StartApp in this process already owns the slot.
		box.Close()
		log.Println("[shell] StartApp called more than once")
		return StatusInternalError
	}
	defer box.Close()

	app := newAppState(cfg, host, platform, box, lib.NewEngine)
	app.resourcesPath = resources
	if err := app.run(); err != nil {
		log.Printf("[shell] %v", err)
		return StatusInternalError
	}
	return StatusOK
}
