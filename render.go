package shell

import (
	"fmt"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Render bridge: the two GPU surfaces of the dual-surface pipeline. The
// engine paints into the offscreen render target; each repaint blits that
// target into the visible swap surface and presents it. A context must be
// made current on the UI thread before its target is bound; no other
// thread ever touches either surface.

// renderTarget is the offscreen surface the engine paints into.
type renderTarget interface {
	MakeCurrent() error
	// Bind prepares the target to accept the engine's draw output.
	Bind() error
	Resize(width, height int)
}

// swapSurface is the visible surface presented to the user.
type swapSurface interface {
	MakeCurrent() error
	// Bind prepares the visible framebuffer for drawing.
	Bind() error
	Resize(width, height int)
	// Blit copies the offscreen target's contents into the visible
	// surface at the window's pixel rectangle, origin (0,0).
	Blit(width, height int) error
	Present() error
}

// ============================================================================
// GLFW/OpenGL implementations
// ============================================================================

// offscreenTarget is a framebuffer object with an RGBA color attachment,
// sharing the window's GL context.
type offscreenTarget struct {
	win           *glfw.Window
	fbo, tex      uint32
	width, height int
}

func newOffscreenTarget(win *glfw.Window, width, height int) (*offscreenTarget, error) {
	t := &offscreenTarget{win: win, width: width, height: height}

	gl.GenFramebuffers(1, &t.fbo)
	gl.GenTextures(1, &t.tex)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return nil, fmt.Errorf("render: offscreen framebuffer incomplete: 0x%x", status)
	}
	return t, nil
}

func (t *offscreenTarget) MakeCurrent() error {
	t.win.MakeContextCurrent()
	return nil
}

func (t *offscreenTarget) Bind() error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("render: offscreen framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (t *offscreenTarget) Resize(width, height int) {
	if width == t.width && height == t.height {
		return
	}
	t.width, t.height = width, height
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
}

// windowSurface is the window's default framebuffer.
type windowSurface struct {
	win           *glfw.Window
	target        *offscreenTarget
	width, height int
}

func newWindowSurface(win *glfw.Window, target *offscreenTarget, width, height int) *windowSurface {
	return &windowSurface{win: win, target: target, width: width, height: height}
}

func (s *windowSurface) MakeCurrent() error {
	s.win.MakeContextCurrent()
	return nil
}

func (s *windowSurface) Bind() error {
	drainGLErrors(gl.GetError)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(s.width), int32(s.height))
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("render: bind window framebuffer: GL error 0x%x", err)
	}
	return nil
}

func (s *windowSurface) Resize(width, height int) {
	s.width, s.height = width, height
}

func (s *windowSurface) Blit(width, height int) error {
	drainGLErrors(gl.GetError)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.target.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(
		0, 0, int32(width), int32(height),
		0, 0, int32(width), int32(height),
		gl.COLOR_BUFFER_BIT, gl.NEAREST,
	)
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("render: blit: GL error 0x%x", err)
	}
	return nil
}

func (s *windowSurface) Present() error {
	s.win.SwapBuffers()
	return nil
}

// glErrorDrainCap bounds the drain: a lost context can report the same
// error flag forever.
const glErrorDrainCap = 64

// drainGLErrors clears error flags accumulated by earlier GL calls on the
// shared context (the engine paints with it too), so the error check after
// a bind or blit is attributed to that call alone.
func drainGLErrors(getError func() uint32) {
	for i := 0; i < glErrorDrainCap; i++ {
		if getError() == gl.NO_ERROR {
			return
		}
	}
}
