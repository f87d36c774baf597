package browser

import (
	"fmt"
	"time"
)

// Options configures a browser session.
type Options struct {
	// Driver is "playwright", "chromedp" or "rod".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Headless runs the browser without UI.
	Headless bool `json:"headless" yaml:"headless"`

	// NoSandbox disables the Chrome sandbox (needed in some containers).
	NoSandbox bool `json:"noSandbox,omitempty" yaml:"noSandbox,omitempty"`

	// ExecutablePath overrides auto-detection of Chrome.
	ExecutablePath string `json:"executablePath,omitempty" yaml:"executablePath,omitempty"`

	// Viewport is the page size in CSS pixels.
	Viewport Viewport `json:"viewport,omitempty" yaml:"viewport,omitempty"`

	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration `json:"navigationTimeout,omitempty" yaml:"navigationTimeout,omitempty"`
}

// Viewport is a page size.
type Viewport struct {
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// DefaultOptions returns headless Playwright options.
func DefaultOptions() Options {
	return Options{
		Driver:   DefaultDriver,
		Headless: true,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		NavigationTimeout: DefaultNavigationTimeout,
	}
}

// ResolveOptions fills zero values with defaults and validates the driver.
func ResolveOptions(opts Options) (Options, error) {
	resolved := opts

	if resolved.Driver == "" {
		resolved.Driver = DefaultDriver
	}
	if !IsKnownDriver(resolved.Driver) {
		return resolved, fmt.Errorf("unknown driver: %s (valid: %v)", resolved.Driver, Drivers())
	}

	if resolved.Viewport.Width <= 0 {
		resolved.Viewport.Width = DefaultViewportWidth
	}
	if resolved.Viewport.Height <= 0 {
		resolved.Viewport.Height = DefaultViewportHeight
	}

	if resolved.NavigationTimeout <= 0 {
		resolved.NavigationTimeout = DefaultNavigationTimeout
	}

	return resolved, nil
}

// chromeArgs returns the extra command-line switches shared by all backends.
func chromeArgs(opts Options) []string {
	args := []string{
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-sync",
		"--disable-background-networking",
		"--disable-component-update",
		"--disable-features=Translate,MediaRouter",
		"--disable-dev-shm-usage",
		// file:// pages may load sibling scripts and styles
		"--allow-file-access-from-files",
	}
	if opts.NoSandbox {
		args = append(args, "--no-sandbox", "--disable-setuid-sandbox")
	}
	return args
}
