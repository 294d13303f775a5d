//go:build darwin

package shell

import (
	"github.com/ebitengine/purego/objc"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// forceSRGBColorSpace pins the NSWindow to the sRGB color space. Without
// it, wide-gamut displays re-interpret the engine's sRGB output and
// colors come out oversaturated.
func forceSRGBColorSpace(win *glfw.Window) {
	nsWindow := objc.ID(uintptr(win.GetCocoaWindow()))
	if nsWindow == 0 {
		return
	}
	colorSpace := objc.ID(objc.GetClass("NSColorSpace")).Send(objc.RegisterName("sRGBColorSpace"))
	nsWindow.Send(objc.RegisterName("setColorSpace:"), colorSpace)
}
