package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// chromedpSession drives one Chrome tab through chromedp.
type chromedpSession struct {
	mu sync.Mutex

	opts        Options
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	console     consoleLog
	closed      bool
}

func openChromedp(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	for _, arg := range chromeArgs(opts) {
		name, value := splitSwitch(arg)
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}

	if opts.ExecutablePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecutablePath))
	} else if exe, err := FindChromeExecutable(""); err == nil && exe != nil {
		allocOpts = append(allocOpts, chromedp.ExecPath(exe.Path))
	}

	// The browser outlives the Open call; Close tears it down
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	chromedp.ListenTarget(tabCtx, s.handleEvent)

	if err := s.start(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// start launches Chrome. chromedp binds the browser process to the context of
// the first Run, so that call uses tabCtx itself. The caller's ctx and the
// navigation timeout only tear the tab down while the launch is in flight.
func (s *chromedpSession) start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.tabCancel)
	defer stop()

	timer := time.AfterFunc(s.opts.NavigationTimeout, s.tabCancel)
	defer timer.Stop()

	err := chromedp.Run(s.tabCtx,
		chromedp.EmulateViewport(int64(s.opts.Viewport.Width), int64(s.opts.Viewport.Height)),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("start chrome: %w", err)
	}
	return nil
}

func (s *chromedpSession) handleEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		kind := string(ev.Type)
		if !isErrorLevel(kind) {
			return
		}
		parts := make([]string, 0, len(ev.Args))
		for _, arg := range ev.Args {
			parts = append(parts, remoteObjectText(arg))
		}
		s.console.add(kind, strings.Join(parts, " "))

	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails == nil {
			return
		}
		text := ev.ExceptionDetails.Text
		if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
			text = ev.ExceptionDetails.Exception.Description
		}
		s.console.add("pageerror", text)
	}
}

func remoteObjectText(obj *runtime.RemoteObject) string {
	if obj == nil {
		return ""
	}
	if len(obj.Value) > 0 {
		raw := string(obj.Value)
		if unquoted, err := strconv.Unquote(raw); err == nil {
			return unquoted
		}
		return raw
	}
	return obj.Description
}

// run executes actions on the started tab, bounded by timeout and by the
// caller's ctx. It must not be the first Run on tabCtx.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Driver() string { return DriverChromedp }

func (s *chromedpSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	if err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *chromedpSession) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if timeout <= 0 {
		timeout = DefaultVisibleTimeout
	}

	err := s.run(ctx, timeout, chromedp.WaitVisible(loc.XPath(), chromedp.BySearch))
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

func (s *chromedpSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// Quality 100 selects PNG encoding
		action = chromedp.FullScreenshot(&buf, 100)
	}

	if err := s.run(ctx, s.opts.NavigationTimeout, action); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

func (s *chromedpSession) BoundingBox(ctx context.Context, loc Locator) (*Box, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	var box *Box
	if err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Evaluate(boundingBoxJS(loc), &box)); err != nil {
		return nil, fmt.Errorf("bounding box %s: %w", loc, err)
	}
	return box, nil
}

func (s *chromedpSession) Snapshot(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}

	var text string
	if err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Evaluate(textSnapshotJS, &text)); err != nil {
		return "", fmt.Errorf("snapshot failed: %w", err)
	}
	return truncate(normalizeSnapshot(text), maxSnapshotChars), nil
}

func (s *chromedpSession) ConsoleErrors() []ConsoleMessage {
	return s.console.snapshot()
}

func (s *chromedpSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// Cancelling the tab context closes the tab, the allocator kills Chrome
	s.tabCancel()
	s.allocCancel()
	return nil
}

// splitSwitch turns "--name=value" into a chromedp flag pair.
func splitSwitch(arg string) (string, any) {
	arg = strings.TrimPrefix(arg, "--")
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return name, true
	}
	return name, value
}
