package shell

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLFW-backed windowing. GLFW is thread-affine: every call below except
// PostEmptyEvent must happen on the thread that called glfw.Init, which is
// the thread StartApp locked for the UI loop.

type glfwPlatform struct{}

func newGLFWPlatform() (*glfwPlatform, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("shell: glfw init: %w", err)
	}
	return &glfwPlatform{}, nil
}

func (p *glfwPlatform) WaitEvents() { glfw.WaitEvents() }
func (p *glfwPlatform) Wake()       { glfw.PostEmptyEvent() }
func (p *glfwPlatform) Terminate()  { glfw.Terminate() }

func (p *glfwPlatform) CreateWindow(title string, width, height uint32) (hostWindow, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)

	win, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("shell: create window: %w", err)
	}
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("shell: load GL functions: %w", err)
	}
	glfw.SwapInterval(1)
	forceSRGBColorSpace(win)

	gw := &glfwWindow{win: win}
	gw.installCallbacks()
	return gw, nil
}

type glfwWindow struct {
	win     *glfw.Window
	handler func(windowEvent)

	lastMods      rawModifiers
	redrawPending atomic.Bool
}

func (w *glfwWindow) SetTitle(title string) { w.win.SetTitle(title) }

func (w *glfwWindow) RequestSize(width, height uint32) {
	w.win.SetSize(int(width), int(height))
}

func (w *glfwWindow) RequestRedraw() {
	w.redrawPending.Store(true)
	glfw.PostEmptyEvent()
}

func (w *glfwWindow) ConsumeRedrawRequest() bool {
	return w.redrawPending.Swap(false)
}

func (w *glfwWindow) RequestClose()     { w.win.SetShouldClose(true) }
func (w *glfwWindow) ShouldClose() bool { return w.win.ShouldClose() }

func (w *glfwWindow) InnerSize() (int, int) { return w.win.GetFramebufferSize() }

func (w *glfwWindow) Scale() float64 {
	sx, _ := w.win.GetContentScale()
	return float64(sx)
}

func (w *glfwWindow) SetEventHandler(handler func(windowEvent)) { w.handler = handler }

func (w *glfwWindow) CreateRenderContexts() (swapSurface, renderTarget, error) {
	width, height := w.InnerSize()
	target, err := newOffscreenTarget(w.win, width, height)
	if err != nil {
		return nil, nil, err
	}
	return newWindowSurface(w.win, target, width, height), target, nil
}

func (w *glfwWindow) emit(ev windowEvent) {
	if w.handler != nil {
		w.handler(ev)
	}
}

// syncMods emits a modifier-change event when the per-event modifier state
// GLFW reports differs from the last observed set. GLFW has no dedicated
// modifier event, so the change is derived here.
func (w *glfwWindow) syncMods(mods glfw.ModifierKey) {
	raw := translateGLFWModifiers(mods)
	if raw != w.lastMods {
		w.lastMods = raw
		w.emit(eventModifiersChanged{mods: raw})
	}
}

func (w *glfwWindow) installCallbacks() {
	w.win.SetCloseCallback(func(_ *glfw.Window) {
		w.emit(eventCloseRequested{})
	})
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.emit(eventResized{width: width, height: height})
	})
	w.win.SetContentScaleCallback(func(_ *glfw.Window, sx, _ float32) {
		w.emit(eventScaleChanged{scale: float64(sx)})
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		// GLFW reports screen coordinates; the engine wants physical
		// pixels.
		s := w.Scale()
		w.emit(eventCursorMoved{x: float32(x * s), y: float32(y * s)})
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		w.syncMods(mods)
		if action == glfw.Repeat {
			return
		}
		w.emit(eventMouseButton{
			button: translateGLFWButton(button),
			down:   action == glfw.Press,
		})
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		w.emit(eventScroll{deltaX: dx, deltaY: dy, lineUnits: true})
	})
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		w.syncMods(mods)
		name, code := semanticKey(key, scancode)
		if name == "" {
			return
		}
		w.emit(eventKey{key: name, code: code, down: action != glfw.Release})
	})
	w.win.SetRefreshCallback(func(_ *glfw.Window) {
		w.emit(eventRedrawRequested{})
	})
}

func translateGLFWButton(b glfw.MouseButton) rawMouseButton {
	switch b {
	case glfw.MouseButtonRight:
		return rawButtonRight
	case glfw.MouseButtonMiddle:
		return rawButtonMiddle
	case glfw.MouseButton4:
		return rawButtonBack
	case glfw.MouseButton5:
		return rawButtonForward
	default:
		return rawButtonLeft
	}
}

func translateGLFWModifiers(m glfw.ModifierKey) rawModifiers {
	var out rawModifiers
	if m&glfw.ModShift != 0 {
		out |= rawModShift
	}
	if m&glfw.ModControl != 0 {
		out |= rawModControl
	}
	if m&glfw.ModAlt != 0 {
		out |= rawModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= rawModSuper
	}
	return out
}

// semanticKey maps a GLFW key to the engine's semantic key value and
// positional code. Printable keys defer to GLFW's layout-aware name;
// the low-level scancode tables live in the engine, not here.
func semanticKey(key glfw.Key, scancode int) (name, code string) {
	switch key {
	case glfw.KeyEnter:
		return "Enter", "Enter"
	case glfw.KeyEscape:
		return "Escape", "Escape"
	case glfw.KeyBackspace:
		return "Backspace", "Backspace"
	case glfw.KeyTab:
		return "Tab", "Tab"
	case glfw.KeySpace:
		return " ", "Space"
	case glfw.KeyDelete:
		return "Delete", "Delete"
	case glfw.KeyLeft:
		return "ArrowLeft", "ArrowLeft"
	case glfw.KeyRight:
		return "ArrowRight", "ArrowRight"
	case glfw.KeyUp:
		return "ArrowUp", "ArrowUp"
	case glfw.KeyDown:
		return "ArrowDown", "ArrowDown"
	case glfw.KeyHome:
		return "Home", "Home"
	case glfw.KeyEnd:
		return "End", "End"
	case glfw.KeyPageUp:
		return "PageUp", "PageUp"
	case glfw.KeyPageDown:
		return "PageDown", "PageDown"
	case glfw.KeyLeftShift, glfw.KeyRightShift:
		return "Shift", ""
	case glfw.KeyLeftControl, glfw.KeyRightControl:
		return "Control", ""
	case glfw.KeyLeftAlt, glfw.KeyRightAlt:
		return "Alt", ""
	case glfw.KeyLeftSuper, glfw.KeyRightSuper:
		return "Meta", ""
	}
	if n := glfw.GetKeyName(key, scancode); n != "" {
		return n, ""
	}
	return "", ""
}
