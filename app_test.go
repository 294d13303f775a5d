package shell

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pywire/pywire-shell/internal/engine"
	"github.com/pywire/pywire-shell/internal/mailbox"
)

// ============================================================================
// Fakes
// ============================================================================

type fakePlatform struct {
	window     *fakeWindow
	steps      []func()
	wakes      atomic.Int64
	terminated bool
}

func (p *fakePlatform) CreateWindow(title string, width, height uint32) (hostWindow, error) {
	w := p.window
	w.title = title
	w.width = int(float64(width) * w.scale)
	w.height = int(float64(height) * w.scale)
	return w, nil
}

// WaitEvents runs the next scripted step; once the script is exhausted it
// closes the window so run() terminates.
func (p *fakePlatform) WaitEvents() {
	if len(p.steps) > 0 {
		step := p.steps[0]
		p.steps = p.steps[1:]
		step()
		return
	}
	p.window.closed = true
}

func (p *fakePlatform) Wake()      { p.wakes.Add(1) }
func (p *fakePlatform) Terminate() { p.terminated = true }

type fakeWindow struct {
	title         string
	width, height int // physical px
	scale         float64
	closed        bool
	handler       func(windowEvent)
	redrawPending atomic.Bool

	requestedW, requestedH uint32
	ops                    []string

	surface *fakeSurface
	target  *fakeTarget
}

func (w *fakeWindow) SetTitle(title string) {
	w.title = title
	w.ops = append(w.ops, "title "+title)
}

func (w *fakeWindow) RequestSize(width, height uint32) {
	w.requestedW, w.requestedH = width, height
	w.ops = append(w.ops, fmt.Sprintf("resize %dx%d", width, height))
}

func (w *fakeWindow) RequestRedraw()             { w.redrawPending.Store(true) }
func (w *fakeWindow) ConsumeRedrawRequest() bool { return w.redrawPending.Swap(false) }
func (w *fakeWindow) RequestClose()              { w.closed = true }
func (w *fakeWindow) ShouldClose() bool          { return w.closed }
func (w *fakeWindow) InnerSize() (int, int)      { return w.width, w.height }
func (w *fakeWindow) Scale() float64             { return w.scale }

func (w *fakeWindow) SetEventHandler(handler func(windowEvent)) { w.handler = handler }

func (w *fakeWindow) CreateRenderContexts() (swapSurface, renderTarget, error) {
	w.surface.width, w.surface.height = w.width, w.height
	w.target.width, w.target.height = w.width, w.height
	return w.surface, w.target, nil
}

type fakeTarget struct {
	currents, binds int
	width, height   int
	bindErr         error
}

func (t *fakeTarget) MakeCurrent() error { t.currents++; return nil }
func (t *fakeTarget) Bind() error        { t.binds++; return t.bindErr }
func (t *fakeTarget) Resize(w, h int)    { t.width, t.height = w, h }

type fakeSurface struct {
	currents, binds, blits, presents int
	width, height                    int
	blitErr                          error
}

func (s *fakeSurface) MakeCurrent() error { s.currents++; return nil }
func (s *fakeSurface) Bind() error        { s.binds++; return nil }
func (s *fakeSurface) Resize(w, h int)    { s.width, s.height = w, h }

func (s *fakeSurface) Blit(w, h int) error {
	s.blits++
	return s.blitErr
}

func (s *fakeSurface) Present() error { s.presents++; return nil }

type fakeEngine struct {
	cfg       engine.Config
	view      *fakeView
	viewCfg   engine.ViewConfig
	pumps     int
	shutdowns int
	onPump    func()
}

func (e *fakeEngine) NewView(cfg engine.ViewConfig) (engine.View, error) {
	e.viewCfg = cfg
	return e.view, nil
}

func (e *fakeEngine) Pump() {
	e.pumps++
	if e.onPump != nil {
		e.onPump()
	}
}

func (e *fakeEngine) Shutdown() { e.shutdowns++ }

type fakeView struct {
	paints         int
	width, height  int
	scale          float64
	shown, focused bool
	inputs         []engine.InputEvent
	scripts        []string
}

func (v *fakeView) Paint()                         { v.paints++ }
func (v *fakeView) Resize(w, h int)                { v.width, v.height = w, h }
func (v *fakeView) SetScaleFactor(f float64)       { v.scale = f }
func (v *fakeView) SendInput(ev engine.InputEvent) { v.inputs = append(v.inputs, ev) }
func (v *fakeView) EvaluateScript(script string)   { v.scripts = append(v.scripts, script) }
func (v *fakeView) Show()                          { v.shown = true }
func (v *fakeView) Focus()                         { v.focused = true }

func newTestApp(t *testing.T, cfg Config) (*appState, *fakePlatform, *fakeEngine) {
	t.Helper()
	p := &fakePlatform{
		window: &fakeWindow{
			scale:   1,
			surface: &fakeSurface{},
			target:  &fakeTarget{},
		},
	}
	eng := &fakeEngine{view: &fakeView{}}
	box := mailbox.New(p.Wake)
	t.Cleanup(box.Close)

	app := newAppState(cfg, DefaultHostConfig(), p, box, func(ec engine.Config) (engine.Engine, error) {
		eng.cfg = ec
		return eng, nil
	})
	app.host.Quiet = true
	app.resourcesPath = t.TempDir()
	return app, p, eng
}

// ============================================================================
// State machine
// ============================================================================

func TestResumeReachesRunning(t *testing.T) {
	app, p, eng := newTestApp(t, Config{Title: "host", URL: "https://example.com/", Width: 640, Height: 480})

	if err := app.resume(); err != nil {
		t.Fatalf("resume() = %v", err)
	}
	if app.phase != phaseRunning {
		t.Fatalf("phase = %d, want phaseRunning", app.phase)
	}
	if eng.pumps != 1 {
		t.Errorf("pumps after resume = %d, want 1 (initial load kick)", eng.pumps)
	}
	if !p.window.redrawPending.Load() {
		t.Error("no first repaint requested after resume")
	}
	if !eng.view.shown || !eng.view.focused {
		t.Error("view not shown/focused after resume")
	}
	if eng.viewCfg.URL != "https://example.com/" {
		t.Errorf("view URL = %q", eng.viewCfg.URL)
	}
}

func TestResumeIsIdempotent(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	pumps := eng.pumps
	if err := app.resume(); err != nil {
		t.Fatalf("second resume() = %v", err)
	}
	if eng.pumps != pumps {
		t.Error("second activation re-initialized the app")
	}
}

func TestUnparsableURLFallsBackToBlankPage(t *testing.T) {
	app, _, eng := newTestApp(t, Config{URL: "not a url", Width: 800, Height: 600})
	if err := app.resume(); err != nil {
		t.Fatalf("resume() = %v, want startup to survive a bad URL", err)
	}
	if eng.viewCfg.URL != "about:blank" {
		t.Errorf("view URL = %q, want about:blank", eng.viewCfg.URL)
	}
}

func TestEveryEventPumpsEngine(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	base := eng.pumps

	events := []windowEvent{
		eventCursorMoved{x: 10, y: 10},
		eventModifiersChanged{mods: rawModShift},
		eventKey{key: "a", down: true},
		eventScroll{deltaX: 0, deltaY: 1, lineUnits: true},
		eventResized{width: 320, height: 200},
		eventRedrawRequested{},
	}
	for i, ev := range events {
		app.handleWindowEvent(ev)
		if eng.pumps != base+i+1 {
			t.Fatalf("after event %T: pumps = %d, want %d", ev, eng.pumps, base+i+1)
		}
	}

	commands := []any{cmdWake{}, cmdSetTitle{title: "x"}, cmdResize{width: 1, height: 1}, cmdExecuteScript{script: "1"}}
	for i, cmd := range commands {
		app.handleCommand(cmd)
		if eng.pumps != base+len(events)+i+1 {
			t.Fatalf("after command %T: pumps = %d", cmd, eng.pumps)
		}
	}
}

func TestCloseRequestSkipsPump(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	pumps := eng.pumps
	app.handleWindowEvent(eventCloseRequested{})
	if app.phase != phaseShuttingDown {
		t.Fatal("close request did not transition to shutdown")
	}
	if eng.pumps != pumps {
		t.Error("engine pumped after close request")
	}
}

func TestSetTitleChangesOnlyTitle(t *testing.T) {
	app, p, eng := newTestApp(t, Config{Title: "before", URL: "https://example.com/", Width: 640, Height: 480})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	w, h := p.window.InnerSize()

	app.handleCommand(cmdSetTitle{title: "X"})

	if p.window.title != "X" {
		t.Errorf("title = %q, want X", p.window.title)
	}
	if gw, gh := p.window.InnerSize(); gw != w || gh != h {
		t.Error("window size changed by SetTitle")
	}
	if eng.viewCfg.URL != "https://example.com/" {
		t.Error("URL changed by SetTitle")
	}
}

func TestResizePropagatesToContextsAndView(t *testing.T) {
	app, p, eng := newTestApp(t, Config{Width: 800, Height: 600})
	p.window.scale = 2
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}

	app.handleCommand(cmdResize{width: 1024, height: 768})
	if p.window.requestedW != 1024 || p.window.requestedH != 768 {
		t.Fatalf("requested size = %dx%d", p.window.requestedW, p.window.requestedH)
	}

	// The OS acknowledges with a physical-pixel resize event.
	p.window.width, p.window.height = 2048, 1536
	app.handleWindowEvent(eventResized{width: 2048, height: 1536})

	if p.window.surface.width != 2048 || p.window.surface.height != 1536 {
		t.Errorf("surface = %dx%d", p.window.surface.width, p.window.surface.height)
	}
	if p.window.target.width != 2048 || p.window.target.height != 1536 {
		t.Errorf("target = %dx%d", p.window.target.width, p.window.target.height)
	}
	if eng.view.width != 2048 || eng.view.height != 1536 {
		t.Errorf("view = %dx%d", eng.view.width, eng.view.height)
	}
}

func TestButtonEventUsesLastPointerPosition(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}

	app.handleWindowEvent(eventCursorMoved{x: 33, y: 44})
	app.handleWindowEvent(eventMouseButton{button: rawButtonLeft, down: true})

	if len(eng.view.inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(eng.view.inputs))
	}
	want := engine.MouseButtonEvent{
		Action: engine.ButtonDown,
		Button: engine.MouseLeft,
		X:      33,
		Y:      44,
	}
	if diff := cmp.Diff(want, eng.view.inputs[1]); diff != "" {
		t.Errorf("button event mismatch (-want +got):\n%s", diff)
	}
}

func TestModifierStateAttachesToKeys(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}

	app.handleWindowEvent(eventModifiersChanged{mods: rawModControl | rawModShift})
	app.handleWindowEvent(eventKey{key: "a", code: "KeyA", down: true})

	// Modifier changes are state-only, never forwarded.
	if len(eng.view.inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(eng.view.inputs))
	}
	key := eng.view.inputs[0].(engine.KeyEvent)
	if !key.Modifiers.Has(engine.ModControl | engine.ModShift) {
		t.Errorf("key modifiers = %v", key.Modifiers)
	}
}

// ============================================================================
// Pump / repaint coupling
// ============================================================================

func TestPumpRepaintsOnlyWhenFrameReady(t *testing.T) {
	app, p, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	paints := eng.view.paints
	presents := p.window.surface.presents

	// Engine signals a frame during the pump.
	eng.onPump = func() { app.OnNewFrameReady() }
	app.handleCommand(cmdWake{})
	if eng.view.paints != paints+1 || p.window.surface.presents != presents+1 {
		t.Fatalf("paints/presents = %d/%d, want one repaint", eng.view.paints, p.window.surface.presents)
	}

	// No new frame: pump must not repaint.
	eng.onPump = nil
	app.handleCommand(cmdWake{})
	if eng.view.paints != paints+1 {
		t.Error("repaint without a new-frame signal")
	}
}

func TestRepaintFlagSurvivesInterveningEvents(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	paints := eng.view.paints

	app.OnNewFrameReady()
	// The flag must survive events that do not repaint by themselves...
	app.handleWindowEvent(eventModifiersChanged{mods: rawModAlt})
	// ...and the pump after that event consumes it exactly once.
	if eng.view.paints != paints+1 {
		t.Fatalf("paints = %d, want exactly one repaint", eng.view.paints)
	}
}

func TestRepaintSequenceOrder(t *testing.T) {
	app, p, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	if err := app.repaint(); err != nil {
		t.Fatalf("repaint() = %v", err)
	}
	target, surface := p.window.target, p.window.surface
	if target.currents == 0 || target.binds == 0 {
		t.Error("offscreen target never bound")
	}
	if surface.blits != 1 || surface.presents != 1 {
		t.Errorf("blits/presents = %d/%d, want 1/1", surface.blits, surface.presents)
	}
	if eng.view.paints != 1 {
		t.Errorf("paints = %d, want 1", eng.view.paints)
	}
}

func TestRepaintIsIdempotentWithoutEngineWork(t *testing.T) {
	app, p, _ := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	if err := app.repaint(); err != nil {
		t.Fatal(err)
	}
	if err := app.repaint(); err != nil {
		t.Fatal(err)
	}
	if p.window.surface.presents != 2 {
		t.Errorf("presents = %d, want 2", p.window.surface.presents)
	}
}

func TestRepaintBeforeWindowReadyIsNoOp(t *testing.T) {
	app, _, _ := newTestApp(t, Config{})
	if err := app.repaint(); err != nil {
		t.Fatalf("repaint() before window = %v, want silent no-op", err)
	}
}

func TestGPUFaultIsFatal(t *testing.T) {
	app, p, eng := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	p.window.surface.blitErr = errors.New("context lost")

	app.needsRepaint.Store(true)
	app.handleCommand(cmdWake{})

	if app.fatal == nil {
		t.Fatal("GPU fault not recorded as fatal")
	}
	if app.phase != phaseShuttingDown {
		t.Error("GPU fault did not stop the loop")
	}

	// Events still queued behind the fault in the same WaitEvents call
	// must not touch the broken context, the engine, or the view.
	paints, pumps, title := eng.view.paints, eng.pumps, p.window.title
	app.handleWindowEvent(eventCursorMoved{x: 1, y: 1})
	app.handleWindowEvent(eventRedrawRequested{})
	app.handleCommand(cmdSetTitle{title: "after fault"})

	if eng.view.paints != paints {
		t.Error("repaint attempted after a fatal GPU error")
	}
	if eng.pumps != pumps {
		t.Error("engine pumped after a fatal GPU error")
	}
	if len(eng.view.inputs) != 0 {
		t.Error("input forwarded after a fatal GPU error")
	}
	if p.window.title != title {
		t.Error("command applied after a fatal GPU error")
	}
}

func TestRunShutsDownEngineOnGPUFault(t *testing.T) {
	app, p, eng := newTestApp(t, Config{})
	p.steps = []func(){func() {
		p.window.surface.blitErr = errors.New("context lost")
		app.OnNewFrameReady()
	}}

	err := app.run()
	if err == nil {
		t.Fatal("run() = nil, want fatal GPU error")
	}
	if eng.shutdowns != 1 {
		t.Errorf("engine shutdowns = %d, want 1", eng.shutdowns)
	}
}

// ============================================================================
// Console message routing
// ============================================================================

func TestConsolePrefixRoutesToCallback(t *testing.T) {
	var got []string
	app, _, _ := newTestApp(t, Config{OnMessage: func(p string) { got = append(got, p) }})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}

	app.OnConsoleMessage(engine.LogInfo, MessagePrefix+"hello controller")
	app.OnConsoleMessage(engine.LogInfo, "plain diagnostic line")
	app.OnConsoleMessage(engine.LogError, "PW_MSG without colon is not the prefix")

	want := []string{"hello controller"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payloads mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleCallbackAbsentIsDropped(t *testing.T) {
	app, _, _ := newTestApp(t, Config{})
	if err := app.resume(); err != nil {
		t.Fatal(err)
	}
	// Must not panic with no registered callback.
	app.OnConsoleMessage(engine.LogInfo, MessagePrefix+"dropped")
}

// ============================================================================
// Full loop
// ============================================================================

func TestRunObservesCommandsInPostOrder(t *testing.T) {
	app, p, _ := newTestApp(t, Config{Width: 800, Height: 600})

	s := app.box.Sender()
	if err := s.Post(cmdResize{width: 1024, height: 768}); err != nil {
		t.Fatal(err)
	}
	if err := s.Post(cmdSetTitle{title: "A"}); err != nil {
		t.Fatal(err)
	}

	if err := app.run(); err != nil {
		t.Fatalf("run() = %v", err)
	}

	want := []string{"resize 1024x768", "title A"}
	if diff := cmp.Diff(want, p.window.ops); diff != "" {
		t.Errorf("operation order mismatch (-want +got):\n%s", diff)
	}
	if p.window.requestedW != 1024 || p.window.requestedH != 768 {
		t.Errorf("final requested size = %dx%d", p.window.requestedW, p.window.requestedH)
	}
	if p.window.title != "A" {
		t.Errorf("final title = %q", p.window.title)
	}
}

func TestRunShutsDownEngine(t *testing.T) {
	app, _, eng := newTestApp(t, Config{})
	if err := app.run(); err != nil {
		t.Fatalf("run() = %v", err)
	}
	if eng.shutdowns != 1 {
		t.Errorf("engine shutdowns = %d, want 1", eng.shutdowns)
	}
}
