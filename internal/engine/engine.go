// Package engine defines the host-side view of the embedded web engine.
//
// The engine itself is an opaque native component loaded at startup. This
// package only describes what the shell consumes: a cooperatively pumped
// engine instance, a single content view, and the delegate callbacks the
// engine fires back into the host.
package engine

// Config carries the one-time engine construction parameters.
type Config struct {
	// ResourcesPath is the directory the engine reads its static resource
	// files from. It must exist before the engine is built.
	ResourcesPath string

	// Waker is invoked by the engine, possibly from one of its internal
	// threads, whenever it has pending work and the host loop should pump
	// it again. It must be safe to call from any thread.
	Waker func()
}

// ViewConfig carries the construction parameters for the engine's single
// content view.
type ViewConfig struct {
	// URL is the initial page to load. Callers are expected to have
	// normalized it already; the engine receives it verbatim.
	URL string

	// ScaleFactor is the device pixel ratio of the hosting window.
	ScaleFactor float64

	// Delegate receives the engine's notifications. All delegate methods
	// are invoked on the thread that pumps the engine, except
	// OnNewFrameReady which may fire from engine-internal threads.
	Delegate ViewDelegate
}

// Engine is one opaque engine instance. All methods except construction
// must be called from the thread that owns the UI loop.
type Engine interface {
	// NewView builds the engine's content view. Only one view per engine
	// is supported.
	NewView(cfg ViewConfig) (View, error)

	// Pump drives the engine's internal scheduler forward by one step,
	// processing pending script, layout and network work without blocking.
	Pump()

	// Shutdown releases the engine. No other method may be called after.
	Shutdown()
}

// View is the engine's handle for one loaded page.
type View interface {
	// Paint renders the view's current frame into whatever render target
	// is bound on the current GL context.
	Paint()

	// Resize sets the view's size in physical pixels.
	Resize(width, height int)

	// SetScaleFactor updates the device pixel ratio.
	SetScaleFactor(f float64)

	// SendInput forwards one semantic input event.
	SendInput(ev InputEvent)

	// EvaluateScript queues script for asynchronous evaluation. The
	// result is discarded.
	EvaluateScript(script string)

	// Show makes the view visible and Focus gives it input focus.
	Show()
	Focus()
}

// ViewDelegate is the capability interface the host implements to receive
// engine notifications.
type ViewDelegate interface {
	// OnConsoleMessage delivers one console log line.
	OnConsoleMessage(level LogLevel, message string)

	// OnNewFrameReady signals that the engine produced a frame since the
	// last repaint. May fire from engine-internal threads.
	OnNewFrameReady()

	// OnLoadStatusChanged reports page load progress.
	OnLoadStatusChanged(status LoadStatus)
}

// LogLevel classifies engine console output.
type LogLevel int32

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogWarn:
		return "warn"
	case LogError:
		return "error"
	}
	return "unknown"
}

// LoadStatus reports content view load progress.
type LoadStatus int32

const (
	LoadStarted LoadStatus = iota
	LoadHeadParsed
	LoadComplete
)

func (s LoadStatus) String() string {
	switch s {
	case LoadStarted:
		return "started"
	case LoadHeadParsed:
		return "head-parsed"
	case LoadComplete:
		return "complete"
	}
	return "unknown"
}
