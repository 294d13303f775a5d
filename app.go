package shell

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/pywire/pywire-shell/internal/engine"
	"github.com/pywire/pywire-shell/internal/mailbox"
)

// appState is the single mutable record of the UI thread. It owns the
// window, both render contexts, the engine instance and its view; nothing
// here is ever touched from another thread. Cross-thread traffic arrives
// only through the mailbox and leaves only through the OnMessage callback.
type appState struct {
	phase phase

	cfg  Config
	host HostConfig

	platform      platform
	box           *mailbox.Mailbox
	sender        *mailbox.Sender
	resourcesPath string

	// newEngine builds the engine; injected so tests can supply a fake.
	newEngine func(engine.Config) (engine.Engine, error)

	window  hostWindow
	surface swapSurface
	target  renderTarget
	eng     engine.Engine
	view    engine.View

	// needsRepaint is set by the engine's new-frame notification, which
	// may fire from engine-internal threads, and cleared only by the
	// next repaint.
	needsRepaint atomic.Bool

	lastPointerX, lastPointerY float32
	modifiers                  engine.Modifiers

	fatal error
}

type phase int

const (
	phaseUninitialized phase = iota
	phaseWindowReady
	phaseRunning
	phaseShuttingDown
)

func newAppState(cfg Config, host HostConfig, p platform, box *mailbox.Mailbox, newEngine func(engine.Config) (engine.Engine, error)) *appState {
	return &appState{
		cfg:       cfg.withDefaults(),
		host:      host,
		platform:  p,
		box:       box,
		sender:    box.Sender(),
		newEngine: newEngine,
	}
}

// run executes the UI loop to completion on the calling thread.
func (a *appState) run() error {
	if err := a.resume(); err != nil {
		return err
	}
	for a.phase != phaseShuttingDown {
		a.platform.WaitEvents()
		if a.window != nil && a.window.ConsumeRedrawRequest() {
			a.handleWindowEvent(eventRedrawRequested{})
		}
		for a.phase != phaseShuttingDown {
			cmd, ok := a.box.TryNext()
			if !ok {
				break
			}
			a.handleCommand(cmd)
		}
		if a.fatal != nil {
			a.shutdown()
			return a.fatal
		}
		if a.window != nil && a.window.ShouldClose() {
			a.phase = phaseShuttingDown
		}
	}
	a.shutdown()
	return nil
}

// resume performs the one-shot Uninitialized -> WindowReady transition:
// window, both render contexts, engine and content view. A repeat
// activation is a no-op.
func (a *appState) resume() error {
	if a.window != nil {
		return nil
	}

	win, err := a.platform.CreateWindow(a.cfg.Title, a.cfg.Width, a.cfg.Height)
	if err != nil {
		return err
	}
	a.window = win
	win.SetEventHandler(a.handleWindowEvent)

	surface, target, err := win.CreateRenderContexts()
	if err != nil {
		return err
	}
	a.surface = surface
	a.target = target
	if err := surface.MakeCurrent(); err != nil {
		return fmt.Errorf("shell: make window context current: %w", err)
	}

	eng, err := a.newEngine(engine.Config{
		ResourcesPath: a.resourcesPath,
		Waker: func() {
			// May fire from engine-internal threads; Post is the only
			// safe crossing back into the loop.
			_ = a.sender.Post(cmdWake{})
		},
	})
	if err != nil {
		return fmt.Errorf("shell: build engine: %w", err)
	}
	a.eng = eng

	view, err := eng.NewView(engine.ViewConfig{
		URL:         a.cfg.URL,
		ScaleFactor: win.Scale(),
		Delegate:    a,
	})
	if err != nil {
		return fmt.Errorf("shell: build view: %w", err)
	}
	a.view = view
	view.Show()
	view.Focus()

	a.phase = phaseWindowReady
	if !a.host.Quiet {
		log.Printf("[shell] window ready: %q %dx%d -> %s", a.cfg.Title, a.cfg.Width, a.cfg.Height, a.cfg.URL)
	}

	// Kick off the initial load, then ask for a first paint.
	a.pumpEngine()
	win.RequestRedraw()
	a.phase = phaseRunning
	return nil
}

// handleWindowEvent applies one OS window event, then pumps the engine.
// Pump-after-every-event is the engine's driving contract: it performs no
// background ticking of its own.
func (a *appState) handleWindowEvent(ev windowEvent) {
	// Once shutting down (close requested, or a fatal GPU error), later
	// events delivered inside the same WaitEvents call are dropped: the
	// render contexts may no longer be in a usable state.
	if a.phase == phaseShuttingDown {
		return
	}
	switch e := ev.(type) {
	case eventCloseRequested:
		a.phase = phaseShuttingDown
		return
	case eventResized:
		if a.surface != nil {
			a.surface.Resize(e.width, e.height)
		}
		if a.target != nil {
			a.target.Resize(e.width, e.height)
		}
		if a.view != nil {
			a.view.Resize(e.width, e.height)
		}
	case eventScaleChanged:
		if a.view != nil {
			a.view.SetScaleFactor(e.scale)
		}
	case eventCursorMoved:
		a.lastPointerX, a.lastPointerY = e.x, e.y
		a.sendInput(buildMouseMove(e.x, e.y))
	case eventMouseButton:
		a.sendInput(buildMouseButton(e, a.lastPointerX, a.lastPointerY))
	case eventModifiersChanged:
		a.modifiers = translateModifiers(e.mods)
	case eventKey:
		a.sendInput(buildKey(e, a.modifiers))
	case eventScroll:
		a.sendInput(buildWheel(e, a.host.ScrollLineSize, a.lastPointerX, a.lastPointerY))
	case eventRedrawRequested:
		// Repaint directly and clear the frame signal so the pump below
		// does not immediately paint the same frame a second time.
		a.needsRepaint.Store(false)
		a.repaintOrFail()
	}
	if a.phase == phaseShuttingDown {
		return
	}
	a.pumpEngine()
}

// handleCommand applies one mailbox command, then pumps the engine.
func (a *appState) handleCommand(cmd any) {
	if a.phase == phaseShuttingDown {
		return
	}
	switch c := cmd.(type) {
	case cmdWake:
		// Nothing beyond the mandatory pump.
	case cmdExecuteScript:
		if a.view != nil {
			a.view.EvaluateScript(c.script)
		}
	case cmdSetTitle:
		if a.window != nil {
			a.window.SetTitle(c.title)
		}
	case cmdResize:
		if a.window != nil {
			a.window.RequestSize(c.width, c.height)
		}
	}
	a.pumpEngine()
}

func (a *appState) sendInput(ev engine.InputEvent) {
	if a.view != nil {
		a.view.SendInput(ev)
	}
}

// pumpEngine drives the engine one step, then repaints if (and only if)
// the engine signaled a new frame since the last repaint.
func (a *appState) pumpEngine() {
	if a.eng == nil {
		return
	}
	a.eng.Pump()
	if a.needsRepaint.Swap(false) {
		a.repaintOrFail()
	}
}

func (a *appState) repaintOrFail() {
	if err := a.repaint(); err != nil {
		// GPU faults are unrecoverable; continuing with an inconsistent
		// context state would render garbage.
		a.fatal = err
		a.phase = phaseShuttingDown
	}
}

// repaint runs the four-step bridge sequence: bind the offscreen target,
// let the engine paint into it, bind the visible surface, blit and
// present. Before the window exists it is a silent no-op.
func (a *appState) repaint() error {
	if a.phase < phaseWindowReady || a.view == nil || a.surface == nil || a.target == nil {
		return nil
	}
	if err := a.target.MakeCurrent(); err != nil {
		return fmt.Errorf("shell: make offscreen context current: %w", err)
	}
	if err := a.target.Bind(); err != nil {
		return err
	}
	a.view.Paint()

	if err := a.surface.MakeCurrent(); err != nil {
		return fmt.Errorf("shell: make window context current: %w", err)
	}
	if err := a.surface.Bind(); err != nil {
		return err
	}
	width, height := a.window.InnerSize()
	if err := a.surface.Blit(width, height); err != nil {
		return err
	}
	return a.surface.Present()
}

func (a *appState) shutdown() {
	if a.eng != nil {
		a.eng.Shutdown()
		a.eng = nil
		a.view = nil
	}
	if !a.host.Quiet {
		log.Println("[shell] loop exited")
	}
}

// ============================================================================
// engine.ViewDelegate
// ============================================================================

// OnConsoleMessage routes controller-bound payloads (reserved prefix) to
// the registered callback and logs everything else as diagnostics.
func (a *appState) OnConsoleMessage(level engine.LogLevel, message string) {
	if payload, found := strings.CutPrefix(message, MessagePrefix); found {
		if a.cfg.OnMessage != nil {
			a.cfg.OnMessage(payload)
		}
		return
	}
	if !a.host.Quiet {
		log.Printf("[shell] console %s: %s", level, message)
	}
}

// OnNewFrameReady may fire from engine-internal threads: it only touches
// the atomic flag and the thread-safe redraw request.
func (a *appState) OnNewFrameReady() {
	a.needsRepaint.Store(true)
	if a.window != nil {
		a.window.RequestRedraw()
	}
}

func (a *appState) OnLoadStatusChanged(status engine.LoadStatus) {
	if !a.host.Quiet {
		log.Printf("[shell] load status: %s", status)
	}
	if a.window != nil {
		a.window.RequestRedraw()
	}
}
