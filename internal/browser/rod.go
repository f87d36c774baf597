package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession drives one Chrome page through go-rod.
type rodSession struct {
	mu sync.Mutex

	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc
	console  consoleLog
	closed   bool
}

func openRod(ctx context.Context, opts Options) (Session, error) {
	l := launcher.New().Headless(opts.Headless).NoSandbox(opts.NoSandbox)

	bin := opts.ExecutablePath
	if bin == "" {
		if exe, err := FindChromeExecutable(""); err == nil && exe != nil {
			bin = exe.Path
		}
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	for _, arg := range chromeArgs(opts) {
		name, val, hasVal := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	// Session-scoped context; Close cancels it to stop event listeners
	sessCtx, cancel := context.WithCancel(context.Background())

	browser := rod.New().ControlURL(controlURL).Context(sessCtx)
	if err := browser.Connect(); err != nil {
		cancel()
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		cancel()
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		cancel()
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	s := &rodSession{
		opts:     opts,
		launcher: l,
		browser:  browser,
		page:     page,
		cancel:   cancel,
	}

	wait := page.EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			kind := string(ev.Type)
			if isErrorLevel(kind) {
				s.console.add(kind, stringifyConsoleArgs(ev.Args))
			}
		},
		func(ev *proto.RuntimeExceptionThrown) {
			if ev.ExceptionDetails == nil {
				return
			}
			text := ev.ExceptionDetails.Text
			if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
				text = ev.ExceptionDetails.Exception.Description
			}
			s.console.add("pageerror", text)
		},
	)
	go wait()

	return s, nil
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

func (s *rodSession) Driver() string { return DriverRod }

func (s *rodSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	page := s.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (s *rodSession) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if timeout <= 0 {
		timeout = DefaultVisibleTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := s.page.Context(waitCtx)
	el, err := page.ElementX(loc.XPath())
	if err == nil {
		err = el.WaitVisible()
	}
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &VisibilityError{Locator: loc, Timeout: timeout}
	}
	return fmt.Errorf("wait visible %s: %w", loc, err)
}

func (s *rodSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	data, err := s.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (s *rodSession) BoundingBox(ctx context.Context, loc Locator) (*Box, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	res, err := s.page.Context(ctx).Eval("() => " + boundingBoxJS(loc))
	if err != nil {
		return nil, fmt.Errorf("bounding box %s: %w", loc, err)
	}
	if res.Value.Nil() {
		return nil, nil
	}
	var box Box
	if err := res.Value.Unmarshal(&box); err != nil {
		return nil, fmt.Errorf("bounding box %s: %w", loc, err)
	}
	return &box, nil
}

func (s *rodSession) Snapshot(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}

	res, err := s.page.Context(ctx).Eval("() => " + textSnapshotJS)
	if err != nil {
		return "", fmt.Errorf("snapshot failed: %w", err)
	}
	return truncate(normalizeSnapshot(res.Value.Str()), maxSnapshotChars), nil
}

func (s *rodSession) ConsoleErrors() []ConsoleMessage {
	return s.console.snapshot()
}

func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.browser.Close()
	s.cancel()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}
