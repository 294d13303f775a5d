package shell

import (
	"github.com/pywire/pywire-shell/internal/engine"
)

// Input translation: pure mapping from backend window events to the
// engine's semantic input vocabulary. All state (last pointer position,
// modifier set) is owned by the UI loop and passed in explicitly.

func translateMouseButton(b rawMouseButton) engine.MouseButton {
	switch b {
	case rawButtonRight:
		return engine.MouseRight
	case rawButtonMiddle:
		return engine.MouseMiddle
	case rawButtonBack:
		return engine.MouseBack
	case rawButtonForward:
		return engine.MouseForward
	default:
		return engine.MouseLeft
	}
}

func translateModifiers(m rawModifiers) engine.Modifiers {
	var out engine.Modifiers
	if m&rawModShift != 0 {
		out |= engine.ModShift
	}
	if m&rawModControl != 0 {
		out |= engine.ModControl
	}
	if m&rawModAlt != 0 {
		out |= engine.ModAlt
	}
	if m&rawModSuper != 0 {
		out |= engine.ModSuper
	}
	return out
}

// buildMouseMove reports the pointer at a position in physical pixels.
func buildMouseMove(x, y float32) engine.MouseMoveEvent {
	return engine.MouseMoveEvent{X: x, Y: y}
}

// buildMouseButton attaches the last known pointer position to a button
// transition. Buttons carry no position of their own on most backends.
func buildMouseButton(ev eventMouseButton, lastX, lastY float32) engine.MouseButtonEvent {
	action := engine.ButtonUp
	if ev.down {
		action = engine.ButtonDown
	}
	return engine.MouseButtonEvent{
		Action: action,
		Button: translateMouseButton(ev.button),
		X:      lastX,
		Y:      lastY,
	}
}

// buildWheel converts a scroll event to pixel deltas. Line-unit deltas are
// scaled by lineSize; pixel deltas pass through unchanged.
func buildWheel(ev eventScroll, lineSize float64, lastX, lastY float32) engine.WheelEvent {
	dx, dy := ev.deltaX, ev.deltaY
	if ev.lineUnits {
		dx *= lineSize
		dy *= lineSize
	}
	return engine.WheelEvent{
		DeltaX: dx,
		DeltaY: dy,
		Mode:   engine.WheelPixel,
		X:      lastX,
		Y:      lastY,
	}
}

// buildKey attaches the current modifier state to a key transition.
func buildKey(ev eventKey, mods engine.Modifiers) engine.KeyEvent {
	state := engine.KeyUp
	if ev.down {
		state = engine.KeyDown
	}
	return engine.KeyEvent{
		Key:       ev.key,
		Code:      ev.code,
		State:     state,
		Modifiers: mods,
	}
}
