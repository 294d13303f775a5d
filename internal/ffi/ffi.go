// Package ffi binds the opaque web engine shared library via purego.
//
// The engine is loaded with dlopen/LoadLibrary at startup and driven through
// a small C ABI. No CGo is required on the host side, which keeps
// cross-compilation working. Exactly one engine instance per process is
// supported; the callback trampolines below route engine notifications to
// the delegate registered at view construction.
package ffi

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/pywire/pywire-shell/internal/engine"
)

var (
	libHandle uintptr
	libPath   string
	libOnce   sync.Once
	libErr    error
)

// Engine library function pointers (populated by registerFunctions).
var (
	fnEngineInit          func(resourcesDir string) int32
	fnEngineInstallCrypto func() int32
	fnEngineSetCallbacks  func(console, frameReady, loadStatus, wake uintptr)
	fnEngineCreate        func() uintptr
	fnEnginePump          func(h uintptr)
	fnEngineShutdown      func(h uintptr)
	fnEngineVersion       func() uintptr

	fnViewCreate      func(h uintptr, url string, scale float32) uintptr
	fnViewShow        func(v uintptr)
	fnViewFocus       func(v uintptr)
	fnViewPaint       func(v uintptr)
	fnViewResize      func(v uintptr, width, height int32)
	fnViewSetScale    func(v uintptr, scale float32)
	fnViewMouseMove   func(v uintptr, x, y float32)
	fnViewMouseButton func(v uintptr, action, button int32, x, y float32)
	fnViewWheel       func(v uintptr, dx, dy float64, mode int32, x, y float32)
	fnViewKey         func(v uintptr, key, code string, state int32, mods uint32)
	fnViewEval        func(v uintptr, script string)
)

// Library is a loaded engine shared library.
type Library struct {
	handle uintptr
	path   string
}

// Load locates and loads the engine library. An empty explicitPath falls
// back to the discovery chain in locate.go. Load is idempotent; the first
// successful load wins for the process lifetime.
func Load(explicitPath string) (*Library, error) {
	libOnce.Do(func() {
		path := explicitPath
		if path == "" {
			path = locateLibrary()
		}
		log.Printf("[ffi] loading engine library from %s", path)
		libHandle, libErr = openLibrary(path)
		if libErr != nil {
			libErr = fmt.Errorf("ffi: load engine library %s: %w", path, libErr)
			return
		}
		libPath = path
		registerFunctions()
	})
	if libErr != nil {
		return nil, libErr
	}
	return &Library{handle: libHandle, path: libPath}, nil
}

func registerFunctions() {
	purego.RegisterLibFunc(&fnEngineInit, libHandle, "pw_engine_init")
	purego.RegisterLibFunc(&fnEngineInstallCrypto, libHandle, "pw_engine_install_crypto")
	purego.RegisterLibFunc(&fnEngineSetCallbacks, libHandle, "pw_engine_set_callbacks")
	purego.RegisterLibFunc(&fnEngineCreate, libHandle, "pw_engine_create")
	purego.RegisterLibFunc(&fnEnginePump, libHandle, "pw_engine_pump")
	purego.RegisterLibFunc(&fnEngineShutdown, libHandle, "pw_engine_shutdown")
	purego.RegisterLibFunc(&fnEngineVersion, libHandle, "pw_engine_version")

	purego.RegisterLibFunc(&fnViewCreate, libHandle, "pw_view_create")
	purego.RegisterLibFunc(&fnViewShow, libHandle, "pw_view_show")
	purego.RegisterLibFunc(&fnViewFocus, libHandle, "pw_view_focus")
	purego.RegisterLibFunc(&fnViewPaint, libHandle, "pw_view_paint")
	purego.RegisterLibFunc(&fnViewResize, libHandle, "pw_view_resize")
	purego.RegisterLibFunc(&fnViewSetScale, libHandle, "pw_view_set_scale")
	purego.RegisterLibFunc(&fnViewMouseMove, libHandle, "pw_view_mouse_move")
	purego.RegisterLibFunc(&fnViewMouseButton, libHandle, "pw_view_mouse_button")
	purego.RegisterLibFunc(&fnViewWheel, libHandle, "pw_view_wheel")
	purego.RegisterLibFunc(&fnViewKey, libHandle, "pw_view_key")
	purego.RegisterLibFunc(&fnViewEval, libHandle, "pw_view_eval")
}

// Version reports the engine library's own version string.
func (l *Library) Version() string {
	return goString(fnEngineVersion())
}

// ============================================================================
// Callback trampolines
// ============================================================================

// One engine per process, so the delegate and waker live in package slots.
// They are written on the UI thread before the engine can fire anything.
var (
	activeDelegate engine.ViewDelegate
	activeWaker    func()

	callbackOnce sync.Once
	consolePtr   uintptr
	framePtr     uintptr
	loadPtr      uintptr
	wakePtr      uintptr
)

func consoleTrampoline(level int32, message uintptr) uintptr {
	if activeDelegate != nil {
		activeDelegate.OnConsoleMessage(engine.LogLevel(level), goString(message))
	}
	return 0
}

func frameReadyTrampoline() uintptr {
	if activeDelegate != nil {
		activeDelegate.OnNewFrameReady()
	}
	return 0
}

func loadStatusTrampoline(status int32) uintptr {
	if activeDelegate != nil {
		activeDelegate.OnLoadStatusChanged(engine.LoadStatus(status))
	}
	return 0
}

func wakeTrampoline() uintptr {
	if activeWaker != nil {
		activeWaker()
	}
	return 0
}

// ============================================================================
// engine.Engine implementation
// ============================================================================

type engineHandle struct {
	lib *Library
	h   uintptr
}

// NewEngine performs the engine's one-time global setup and constructs the
// instance. Must be called on the thread that will pump it.
func (l *Library) NewEngine(cfg engine.Config) (engine.Engine, error) {
	if rc := fnEngineInit(cfg.ResourcesPath); rc != 0 {
		return nil, fmt.Errorf("ffi: pw_engine_init failed with status %d", rc)
	}
	switch rc := fnEngineInstallCrypto(); rc {
	case 0:
	case 1:
		// A previous host in this process already installed one.
		log.Println("[ffi] crypto provider already installed")
	default:
		return nil, fmt.Errorf("ffi: pw_engine_install_crypto failed with status %d", rc)
	}

	activeWaker = cfg.Waker
	callbackOnce.Do(func() {
		consolePtr = purego.NewCallback(consoleTrampoline)
		framePtr = purego.NewCallback(frameReadyTrampoline)
		loadPtr = purego.NewCallback(loadStatusTrampoline)
		wakePtr = purego.NewCallback(wakeTrampoline)
	})
	fnEngineSetCallbacks(consolePtr, framePtr, loadPtr, wakePtr)

	h := fnEngineCreate()
	if h == 0 {
		return nil, fmt.Errorf("ffi: pw_engine_create returned null handle")
	}
	return &engineHandle{lib: l, h: h}, nil
}

func (e *engineHandle) NewView(cfg engine.ViewConfig) (engine.View, error) {
	// The delegate must be routable before the view exists: view creation
	// already starts the load and can emit console output.
	activeDelegate = cfg.Delegate
	v := fnViewCreate(e.h, cfg.URL, float32(cfg.ScaleFactor))
	if v == 0 {
		return nil, fmt.Errorf("ffi: pw_view_create returned null handle for %q", cfg.URL)
	}
	return &viewHandle{v: v}, nil
}

func (e *engineHandle) Pump() { fnEnginePump(e.h) }

func (e *engineHandle) Shutdown() {
	fnEngineShutdown(e.h)
	activeDelegate = nil
	activeWaker = nil
}

// ============================================================================
// engine.View implementation
// ============================================================================

type viewHandle struct {
	v uintptr
}

func (v *viewHandle) Paint() { fnViewPaint(v.v) }

func (v *viewHandle) Resize(width, height int) {
	fnViewResize(v.v, int32(width), int32(height))
}

func (v *viewHandle) SetScaleFactor(f float64) { fnViewSetScale(v.v, float32(f)) }

func (v *viewHandle) SendInput(ev engine.InputEvent) {
	switch e := ev.(type) {
	case engine.MouseMoveEvent:
		fnViewMouseMove(v.v, e.X, e.Y)
	case engine.MouseButtonEvent:
		fnViewMouseButton(v.v, int32(e.Action), int32(e.Button), e.X, e.Y)
	case engine.WheelEvent:
		fnViewWheel(v.v, e.DeltaX, e.DeltaY, int32(e.Mode), e.X, e.Y)
	case engine.KeyEvent:
		fnViewKey(v.v, e.Key, e.Code, int32(e.State), uint32(e.Modifiers))
	}
}

func (v *viewHandle) EvaluateScript(script string) { fnViewEval(v.v, script) }

func (v *viewHandle) Show()  { fnViewShow(v.v) }
func (v *viewHandle) Focus() { fnViewFocus(v.v) }

// ============================================================================
// String helpers
// ============================================================================

// goString copies a NUL-terminated C string into a Go string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var length int
	for {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(length)))
		if b == 0 {
			break
		}
		length++
		if length > 1<<20 { // safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	buf := make([]byte, length)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length))
	return string(buf)
}
