// Command pywire-shell opens a standalone host window without an external
// controller. Useful for smoke-testing an engine build: messages the page
// emits through the reserved console prefix are logged to stderr.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	shell "github.com/pywire/pywire-shell"
)

func main() {
	title := flag.String("title", "PyWire Shell", "window title")
	url := flag.String("url", "about:blank", "initial page URL")
	width := flag.Uint("width", 800, "window width in logical pixels")
	height := flag.Uint("height", 600, "window height in logical pixels")
	version := flag.Bool("version", false, "print the host version and exit")
	flag.Parse()

	if *version {
		fmt.Println(shell.Version)
		return
	}

	status := shell.StartApp(shell.Config{
		Title:  *title,
		URL:    *url,
		Width:  uint32(*width),
		Height: uint32(*height),
		OnMessage: func(payload string) {
			log.Printf("[pywire-shell] message: %s", payload)
		},
	})
	if status != shell.StatusOK {
		log.Printf("[pywire-shell] StartApp returned status %d", status)
		os.Exit(1)
	}
}
