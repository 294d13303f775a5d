package shell

// Controller-facing status codes. These values are part of the foreign
// ABI and must stay stable across releases.
const (
	// StatusOK reports success.
	StatusOK int32 = 0

	// StatusInvalidArgument reports a null pointer or invalid UTF-8 text
	// argument. Nothing was posted to the mailbox.
	StatusInvalidArgument int32 = -1

	// StatusSendFailed reports that the UI loop has shut down and no
	// longer accepts commands.
	StatusSendFailed int32 = -2

	// StatusNotReady reports that StartApp has not yet published the
	// mailbox.
	StatusNotReady int32 = -3

	// StatusInternalError reports a fatal fault inside StartApp: missing
	// resources, engine or GPU construction failure, or a recovered
	// panic.
	StatusInternalError int32 = -4
)
