package engine

// InputEvent is one semantic input event in the engine's vocabulary.
type InputEvent interface {
	isInputEvent()
}

// MouseMoveEvent reports the pointer position in physical pixels.
type MouseMoveEvent struct {
	X, Y float32
}

// MouseButtonEvent reports a button press or release at a position.
type MouseButtonEvent struct {
	Action ButtonAction
	Button MouseButton
	X, Y   float32
}

// WheelEvent reports scroll deltas, already converted to pixels, at the
// last known pointer position.
type WheelEvent struct {
	DeltaX, DeltaY float64
	Mode           WheelMode
	X, Y           float32
}

// KeyEvent reports a key press or release with the modifier state that was
// active when it occurred.
type KeyEvent struct {
	// Key is the semantic key value ("a", "Enter", "ArrowLeft", ...).
	Key string
	// Code is the positional code ("KeyA", "Enter", ...), when known.
	Code string
	State     KeyState
	Modifiers Modifiers
}

func (MouseMoveEvent) isInputEvent()   {}
func (MouseButtonEvent) isInputEvent() {}
func (WheelEvent) isInputEvent()       {}
func (KeyEvent) isInputEvent()         {}

// ButtonAction distinguishes press from release.
type ButtonAction int32

const (
	ButtonDown ButtonAction = iota
	ButtonUp
)

// MouseButton identifies a pointer button.
type MouseButton int32

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	MouseBack
	MouseForward
)

// WheelMode describes the unit of a wheel delta after translation.
type WheelMode int32

const (
	// WheelPixel deltas are in physical pixels. The translator converts
	// line-unit deltas to pixels before they reach the engine, so this is
	// the only mode the engine currently sees.
	WheelPixel WheelMode = iota
	WheelLine
)

// KeyState distinguishes key press from key release.
type KeyState int32

const (
	KeyDown KeyState = iota
	KeyUp
)

// Modifiers is the active keyboard modifier set, as a bitmask.
type Modifiers uint32

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// Has reports whether all modifiers in m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }
