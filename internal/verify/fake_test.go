package verify

import (
	"context"
	"sync"
	"time"

	"github.com/neboloop/pageverify/internal/browser"
)

var fakePNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

// fakePage describes what the fake browser renders.
type fakePage struct {
	// appearsAfter maps locator names to the delay before they become
	// visible. Names not present are never visible.
	appearsAfter map[string]time.Duration
	screenshot   []byte
	waitErr      error
	boxErr       error
}

func allVisible() *fakePage {
	page := &fakePage{appearsAfter: map[string]time.Duration{}, screenshot: fakePNG}
	for _, c := range DefaultChecks() {
		page.appearsAfter[c.Name] = 0
	}
	return page
}

type fakeSession struct {
	mu sync.Mutex

	page      *fakePage
	navigated string
	waited    []string
	measured  []string
	shots     int
	closed    bool
}

func (f *fakeSession) Driver() string { return "fake" }

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = url
	return nil
}

func (f *fakeSession) WaitVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, loc.Name)

	if f.page.waitErr != nil {
		return f.page.waitErr
	}
	delay, ok := f.page.appearsAfter[loc.Name]
	if !ok || delay > timeout {
		return &browser.VisibilityError{Locator: loc, Timeout: timeout}
	}
	return nil
}

// BoundingBox stacks visible elements vertically, 40px apart.
func (f *fakeSession) BoundingBox(ctx context.Context, loc browser.Locator) (*browser.Box, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.measured = append(f.measured, loc.Name)

	if f.page.boxErr != nil {
		return nil, f.page.boxErr
	}
	if _, ok := f.page.appearsAfter[loc.Name]; !ok {
		return nil, nil
	}
	y := float64(len(f.measured)-1) * 40
	return &browser.Box{X: 10, Y: y, Width: 200, Height: 30}, nil
}

func (f *fakeSession) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shots++
	return f.page.screenshot, nil
}

func (f *fakeSession) Snapshot(ctx context.Context) (string, error) {
	return "- heading \"Secure Scribble IDE\"", nil
}

func (f *fakeSession) ConsoleErrors() []browser.ConsoleMessage {
	return []browser.ConsoleMessage{{Type: "error", Text: "boom"}}
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeOpener hands out sessions rendering page and remembers them.
type fakeOpener struct {
	page     *fakePage
	err      error
	sessions []*fakeSession
}

func (o *fakeOpener) open(ctx context.Context, opts browser.Options) (browser.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeSession{page: o.page}
	o.sessions = append(o.sessions, s)
	return s, nil
}

func (o *fakeOpener) last() *fakeSession {
	if len(o.sessions) == 0 {
		return nil
	}
	return o.sessions[len(o.sessions)-1]
}
