// Package browser drives a headless Chromium for page verification.
// Three backends are available: Playwright (default), chromedp and rod.
package browser

import "time"

// Driver names
const (
	// DriverPlaywright drives Chromium through playwright-go.
	DriverPlaywright = "playwright"

	// DriverChromedp drives Chromium directly over CDP with chromedp.
	DriverChromedp = "chromedp"

	// DriverRod drives Chromium over CDP with go-rod.
	DriverRod = "rod"
)

// Defaults applied by ResolveOptions.
const (
	DefaultDriver = DriverPlaywright

	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	DefaultNavigationTimeout = 30 * time.Second

	// DefaultVisibleTimeout matches Playwright's default expect timeout.
	DefaultVisibleTimeout = 5 * time.Second
)

// Drivers lists the supported driver names.
func Drivers() []string {
	return []string{DriverPlaywright, DriverChromedp, DriverRod}
}

// IsKnownDriver reports whether name is a supported driver.
func IsKnownDriver(name string) bool {
	for _, d := range Drivers() {
		if d == name {
			return true
		}
	}
	return false
}
