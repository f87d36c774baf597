package browser

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptionsDefaults(t *testing.T) {
	resolved, err := ResolveOptions(Options{})
	require.NoError(t, err)

	assert.Equal(t, DriverPlaywright, resolved.Driver)
	assert.Equal(t, DefaultViewportWidth, resolved.Viewport.Width)
	assert.Equal(t, DefaultViewportHeight, resolved.Viewport.Height)
	assert.Equal(t, DefaultNavigationTimeout, resolved.NavigationTimeout)
}

func TestResolveOptionsKeepsOverrides(t *testing.T) {
	resolved, err := ResolveOptions(Options{
		Driver:            DriverRod,
		Viewport:          Viewport{Width: 800, Height: 600},
		NavigationTimeout: 3 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, DriverRod, resolved.Driver)
	assert.Equal(t, Viewport{Width: 800, Height: 600}, resolved.Viewport)
	assert.Equal(t, 3*time.Second, resolved.NavigationTimeout)
}

func TestResolveOptionsUnknownDriver(t *testing.T) {
	_, err := ResolveOptions(Options{Driver: "webdriver"})
	assert.ErrorContains(t, err, "unknown driver")
}

func TestChromeArgsSandbox(t *testing.T) {
	assert.NotContains(t, chromeArgs(Options{}), "--no-sandbox")
	assert.Contains(t, chromeArgs(Options{NoSandbox: true}), "--no-sandbox")
}

func TestSplitSwitch(t *testing.T) {
	name, value := splitSwitch("--disable-features=Translate,MediaRouter")
	assert.Equal(t, "disable-features", name)
	assert.Equal(t, "Translate,MediaRouter", value)

	name, value = splitSwitch("--no-first-run")
	assert.Equal(t, "no-first-run", name)
	assert.Equal(t, true, value)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab\n... (truncated)", truncate("abc", 2))
}

func TestConsoleLogBounded(t *testing.T) {
	var log consoleLog
	for i := 0; i < maxConsoleMessages+10; i++ {
		log.add("error", "boom")
	}
	assert.Len(t, log.snapshot(), maxConsoleMessages)
}

func TestExpectErrorClassification(t *testing.T) {
	loc := Text("Protocol Editor")

	err := expectError(loc, 5*time.Second, errors.New("Locator expected to be visible\nActual value: None"))
	assert.True(t, IsVisibilityError(err))

	strict := errors.New(`strict mode violation: getByText("Protocol Editor") resolved to 2 elements`)
	err = expectError(loc, 5*time.Second, strict)
	assert.False(t, IsVisibilityError(err))
	assert.ErrorIs(t, err, strict)
	assert.Contains(t, err.Error(), "matches more than one element")
}

func TestBoundingBoxJSQuotesXPath(t *testing.T) {
	loc := Text(`Say "hi" to O'Brien`)
	js := boundingBoxJS(loc)

	quoted, err := json.Marshal(loc.XPath())
	require.NoError(t, err)
	assert.Contains(t, js, string(quoted))
	assert.Contains(t, js, "window.scrollY")
}

func TestBox(t *testing.T) {
	assert.True(t, Box{Width: 10}.Empty())
	assert.False(t, Box{Width: 10, Height: 2}.Empty())
	assert.Equal(t, "10x2+3+4", Box{X: 3, Y: 4, Width: 10, Height: 2}.String())
}

func TestJSNumber(t *testing.T) {
	assert.Equal(t, 12.0, jsNumber(12))
	assert.Equal(t, 1.5, jsNumber(1.5))
	assert.Zero(t, jsNumber("x"))
}
