//go:build !darwin

package shell

import "github.com/go-gl/glfw/v3.3/glfw"

// forceSRGBColorSpace is only needed on macOS.
func forceSRGBColorSpace(_ *glfw.Window) {}
