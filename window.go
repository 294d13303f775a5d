package shell

// The window layer isolates the UI loop from the concrete windowing
// backend. The production backend is GLFW; tests drive the loop through an
// in-memory fake implementing the same interfaces.

// platform owns windowing global state: init, idle parking, cross-thread
// wake and teardown.
type platform interface {
	// CreateWindow opens the single host window at a logical size.
	CreateWindow(title string, width, height uint32) (hostWindow, error)

	// WaitEvents parks the calling thread until an OS event or a Wake
	// arrives, dispatching window events through the installed handler.
	WaitEvents()

	// Wake unparks WaitEvents. Safe to call from any thread.
	Wake()

	// Terminate releases windowing resources.
	Terminate()
}

// hostWindow is the single on-screen window.
type hostWindow interface {
	SetTitle(title string)

	// RequestSize asks the OS to resize the window to a logical size.
	// The actual resize arrives later as an eventResized.
	RequestSize(width, height uint32)

	// RequestRedraw schedules an eventRedrawRequested. Safe to call from
	// any thread.
	RequestRedraw()

	// ConsumeRedrawRequest reports and clears a pending RequestRedraw.
	ConsumeRedrawRequest() bool

	RequestClose()
	ShouldClose() bool

	// InnerSize is the current framebuffer size in physical pixels.
	InnerSize() (width, height int)

	// Scale is the device pixel ratio.
	Scale() float64

	// SetEventHandler installs the loop's event callback. Events are
	// only delivered on the UI thread, from inside WaitEvents.
	SetEventHandler(handler func(windowEvent))

	// CreateRenderContexts builds the visible swap surface and the
	// offscreen render target for this window.
	CreateRenderContexts() (swapSurface, renderTarget, error)
}

// Window events, delivered by the platform backend on the UI thread.
// Coordinates and sizes are in physical pixels.

type windowEvent interface {
	isWindowEvent()
}

type eventCloseRequested struct{}

type eventResized struct {
	width, height int
}

type eventScaleChanged struct {
	scale float64
}

type eventCursorMoved struct {
	x, y float32
}

type eventMouseButton struct {
	button rawMouseButton
	down   bool
}

type eventModifiersChanged struct {
	mods rawModifiers
}

type eventKey struct {
	// key is the semantic value ("a", "Enter"); code the positional one.
	key, code string
	down      bool
}

type eventScroll struct {
	deltaX, deltaY float64
	// lineUnits is true when the deltas are in scroll lines rather than
	// pixels.
	lineUnits bool
}

type eventRedrawRequested struct{}

func (eventCloseRequested) isWindowEvent()   {}
func (eventResized) isWindowEvent()          {}
func (eventScaleChanged) isWindowEvent()     {}
func (eventCursorMoved) isWindowEvent()      {}
func (eventMouseButton) isWindowEvent()      {}
func (eventModifiersChanged) isWindowEvent() {}
func (eventKey) isWindowEvent()              {}
func (eventScroll) isWindowEvent()           {}
func (eventRedrawRequested) isWindowEvent()  {}

// rawMouseButton is the backend's button identifier, before translation
// into the engine vocabulary.
type rawMouseButton int

const (
	rawButtonLeft rawMouseButton = iota
	rawButtonRight
	rawButtonMiddle
	rawButtonBack
	rawButtonForward
)

// rawModifiers is the backend's modifier bitmask, before translation.
type rawModifiers uint32

const (
	rawModShift rawModifiers = 1 << iota
	rawModControl
	rawModAlt
	rawModSuper
)
