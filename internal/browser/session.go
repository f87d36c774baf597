package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Session is an open browser page.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitVisible polls until the located element is visible or timeout
	// elapses. Failures are returned as *VisibilityError.
	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error

	// BoundingBox returns the document box of the located element, or nil
	// when nothing visible matches.
	BoundingBox(ctx context.Context, loc Locator) (*Box, error)

	// Screenshot captures the page as PNG.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Snapshot returns a text rendering of the page for diagnostics.
	Snapshot(ctx context.Context) (string, error)

	// ConsoleErrors returns console errors and uncaught exceptions seen so far.
	ConsoleErrors() []ConsoleMessage

	// Close releases the page and the browser process.
	Close() error

	// Driver returns the backend name.
	Driver() string
}

// ConsoleMessage represents a browser console message.
type ConsoleMessage struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// VisibilityError reports that a locator did not become visible in time.
type VisibilityError struct {
	Locator Locator
	Timeout time.Duration
	Err     error
}

func (e *VisibilityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s not visible after %s", e.Locator, e.Timeout)
	}
	return fmt.Sprintf("%s not visible after %s: %v", e.Locator, e.Timeout, e.Err)
}

func (e *VisibilityError) Unwrap() error { return e.Err }

// IsVisibilityError reports whether err is (or wraps) a *VisibilityError.
func IsVisibilityError(err error) bool {
	var ve *VisibilityError
	return errors.As(err, &ve)
}

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// Opener starts a session for resolved options.
type Opener func(ctx context.Context, opts Options) (Session, error)

var openers = map[string]Opener{
	DriverPlaywright: openPlaywright,
	DriverChromedp:   openChromedp,
	DriverRod:        openRod,
}

// Open launches a browser with the configured driver and opens a blank page.
func Open(ctx context.Context, opts Options) (Session, error) {
	resolved, err := ResolveOptions(opts)
	if err != nil {
		return nil, err
	}

	open, ok := openers[resolved.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", resolved.Driver)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := open(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s browser: %w", resolved.Driver, err)
	}
	return session, nil
}

// consoleLog collects console errors for a session.
type consoleLog struct {
	mu       sync.Mutex
	messages []ConsoleMessage
}

// maxConsoleMessages bounds the retained console history.
const maxConsoleMessages = 100

func (c *consoleLog) add(kind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, ConsoleMessage{
		Type:      kind,
		Text:      text,
		Timestamp: time.Now(),
	})

	if len(c.messages) > maxConsoleMessages {
		c.messages = c.messages[len(c.messages)-maxConsoleMessages:]
	}
}

func (c *consoleLog) snapshot() []ConsoleMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ConsoleMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// isErrorLevel reports whether a console message type is worth keeping.
func isErrorLevel(kind string) bool {
	switch kind {
	case "error", "assert", "pageerror", "exception":
		return true
	}
	return false
}
