package shell

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the controller-supplied startup configuration. It is consumed
// once by StartApp and never mutated afterwards.
type Config struct {
	// Title is the window title. Empty means "untitled".
	Title string

	// URL is the initial page. Empty or unparsable values fall back to
	// about:blank.
	URL string

	// Width and Height are the initial window size in logical pixels.
	Width, Height uint32

	// OnMessage receives payloads emitted by page script through the
	// reserved console prefix. It runs synchronously on the UI thread
	// inside the engine's delivery path, so it must not block. Nil means
	// outbound messages are dropped.
	OnMessage func(payload string)
}

// DefaultConfig returns the defaults used for absent Config fields.
func DefaultConfig() Config {
	return Config{
		Title:  "untitled",
		URL:    "about:blank",
		Width:  800,
		Height: 600,
	}
}

// withDefaults fills absent fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Width == 0 {
		c.Width = def.Width
	}
	if c.Height == 0 {
		c.Height = def.Height
	}
	c.URL = normalizeURL(c.URL)
	return c
}

// normalizeURL validates the initial URL. Anything without a scheme, or
// that does not parse at all, becomes about:blank; a bad URL is a data
// error, not a startup failure.
func normalizeURL(raw string) string {
	if raw == "" {
		return "about:blank"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "about:blank"
	}
	return raw
}

// HostConfig is the optional host-side configuration file (pywire.toml).
// It tunes the embedding host itself, not the page; controllers never see
// it.
type HostConfig struct {
	// EnginePath overrides the engine library discovery chain.
	EnginePath string `toml:"engine_path"`

	// ResourcesPath overrides the PYWIRE_RESOURCES_PATH environment
	// variable.
	ResourcesPath string `toml:"resources_path"`

	// ScrollLineSize is the pixel size of one wheel line unit.
	ScrollLineSize float64 `toml:"scroll_line_size"`

	// Quiet suppresses per-event diagnostic logging.
	Quiet bool `toml:"quiet"`
}

// DefaultHostConfig returns the built-in host tuning.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		ScrollLineSize: 76.0,
	}
}

// loadHostConfig reads pywire.toml (or $PYWIRE_CONFIG) when present. A
// missing file is normal; a malformed one is logged and ignored so a bad
// config cannot keep the host from starting.
func loadHostConfig() HostConfig {
	path := os.Getenv("PYWIRE_CONFIG")
	if path == "" {
		path = "pywire.toml"
	}
	host := DefaultHostConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return host
	}
	if err := toml.Unmarshal(data, &host); err != nil {
		log.Printf("[shell] ignoring malformed %s: %v", path, err)
		return DefaultHostConfig()
	}
	if host.ScrollLineSize <= 0 {
		host.ScrollLineSize = DefaultHostConfig().ScrollLineSize
	}
	return host
}

// resolveResourcesPath returns the engine's static resource directory.
// Its absence is a fatal startup error: nothing meaningful can run
// without resources.
func resolveResourcesPath(host HostConfig) (string, error) {
	path := host.ResourcesPath
	if path == "" {
		path = os.Getenv("PYWIRE_RESOURCES_PATH")
	}
	if path == "" {
		return "", fmt.Errorf("shell: PYWIRE_RESOURCES_PATH must be set")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("shell: resources path %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("shell: resources path %s is not a directory", path)
	}
	return path, nil
}
