package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// Playwright driver process, shared by all sessions
	pwMu       sync.Mutex
	pwInstance *playwright.Playwright
)

// Install downloads the Playwright driver and the Chromium build it pins.
func Install() error {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("failed to install playwright browsers: %w", err)
	}
	return nil
}

// getPlaywright returns the shared Playwright instance, starting it on first use.
func getPlaywright() (*playwright.Playwright, error) {
	pwMu.Lock()
	defer pwMu.Unlock()

	if pwInstance != nil {
		return pwInstance, nil
	}

	pw, err := playwright.Run(&playwright.RunOptions{Browsers: []string{"chromium"}})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright (run `pageverify install` first?): %w", err)
	}
	pwInstance = pw
	return pwInstance, nil
}

// Shutdown stops the shared Playwright driver if it was started.
func Shutdown() error {
	pwMu.Lock()
	defer pwMu.Unlock()

	if pwInstance == nil {
		return nil
	}
	err := pwInstance.Stop()
	pwInstance = nil
	return err
}

// playwrightSession wraps a Playwright browser and its single page.
type playwrightSession struct {
	mu sync.Mutex

	opts    Options
	browser playwright.Browser
	page    playwright.Page
	console consoleLog
	closed  bool
}

func openPlaywright(ctx context.Context, opts Options) (Session, error) {
	pw, err := getPlaywright()
	if err != nil {
		return nil, err
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     chromeArgs(opts),
	}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		return nil, err
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s := &playwrightSession{
		opts:    opts,
		browser: browser,
		page:    page,
	}
	s.setupListeners()

	return s, nil
}

func (s *playwrightSession) setupListeners() {
	s.page.OnConsole(func(msg playwright.ConsoleMessage) {
		if isErrorLevel(msg.Type()) {
			s.console.add(msg.Type(), msg.Text())
		}
	})

	s.page.OnPageError(func(err error) {
		s.console.add("pageerror", err.Error())
	})
}

func (s *playwrightSession) Driver() string { return DriverPlaywright }

func (s *playwrightSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Navigate navigates to a URL.
func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   milliseconds(s.opts.NavigationTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitVisible asserts visibility with Playwright's auto-retrying expect.
func (s *playwrightSession) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultVisibleTimeout
	}

	locator, err := s.locator(loc)
	if err != nil {
		return err
	}

	expect := playwright.NewPlaywrightAssertions(float64(timeout.Milliseconds()))
	err = expect.Locator(locator).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return expectError(loc, timeout, err)
	}
	return nil
}

// expectError classifies a failed ToBeVisible. A locator that matches more
// than one element is a broken check, not an invisible fragment.
func expectError(loc Locator, timeout time.Duration, err error) error {
	if strings.Contains(err.Error(), "strict mode violation") {
		return fmt.Errorf("%s matches more than one element: %w", loc, err)
	}
	return &VisibilityError{Locator: loc, Timeout: timeout, Err: err}
}

func (s *playwrightSession) locator(loc Locator) (playwright.Locator, error) {
	switch loc.Kind {
	case LocatorRole:
		return s.page.GetByRole(playwright.AriaRole(loc.Role), playwright.PageGetByRoleOptions{
			Name:  loc.Name,
			Exact: playwright.Bool(loc.Exact),
		}), nil
	case LocatorText:
		return s.page.GetByText(loc.Name, playwright.PageGetByTextOptions{
			Exact: playwright.Bool(loc.Exact),
		}), nil
	default:
		return nil, fmt.Errorf("unknown locator kind: %q", loc.Kind)
	}
}

// Screenshot takes a PNG screenshot.
func (s *playwrightSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

// BoundingBox measures the first match with Playwright and shifts it by the
// scroll offset so it lines up with a full-page screenshot.
func (s *playwrightSession) BoundingBox(ctx context.Context, loc Locator) (*Box, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locator, err := s.locator(loc)
	if err != nil {
		return nil, err
	}
	rect, err := locator.First().BoundingBox(playwright.LocatorBoundingBoxOptions{
		Timeout: milliseconds(DefaultVisibleTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("bounding box %s: %w", loc, err)
	}
	if rect == nil {
		return nil, nil
	}

	box := &Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
	scroll, err := s.page.Evaluate("() => [window.scrollX, window.scrollY]")
	if err != nil {
		return nil, fmt.Errorf("read scroll offset: %w", err)
	}
	if xy, ok := scroll.([]interface{}); ok && len(xy) == 2 {
		box.X += jsNumber(xy[0])
		box.Y += jsNumber(xy[1])
	}
	return box, nil
}

// jsNumber converts a number returned by Evaluate, which arrives as int or
// float64 depending on its value.
func jsNumber(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// Snapshot returns the aria snapshot of the page body.
func (s *playwrightSession) Snapshot(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	snapshot, err := s.page.Locator("body").AriaSnapshot()
	if err != nil {
		return "", fmt.Errorf("aria snapshot failed: %w", err)
	}
	return truncate(snapshot, maxSnapshotChars), nil
}

func (s *playwrightSession) ConsoleErrors() []ConsoleMessage {
	return s.console.snapshot()
}

// Close closes the page and the browser. The shared Playwright driver keeps
// running; see Shutdown.
func (s *playwrightSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	_ = s.page.Close()
	return s.browser.Close()
}

func milliseconds(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
