package shell

// Mailbox command payloads. Each is produced on a controller thread (or,
// for cmdWake, by the engine's wake notifier) and consumed exactly once by
// the UI loop.

type cmdWake struct{}

type cmdExecuteScript struct {
	script string
}

type cmdSetTitle struct {
	title string
}

type cmdResize struct {
	width, height uint32
}
