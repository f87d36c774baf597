package verify

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/neboloop/pageverify/internal/browser"
)

func TestDefaultPlan(t *testing.T) {
	want := Plan{
		Name:           "secure-scribble-ide",
		Input:          "index.html",
		Output:         filepath.Join("jules-scratch", "verification", "verification.png"),
		FullPage:       true,
		DefaultTimeout: 5 * time.Second,
		Checks: []Check{
			{Locator: browser.Locator{Kind: browser.LocatorRole, Role: "heading", Name: "Secure Scribble IDE"}},
			{Locator: browser.Locator{Kind: browser.LocatorText, Name: "Test Suite Status"}},
			{Locator: browser.Locator{Kind: browser.LocatorText, Name: "Protocol Editor"}},
			{Locator: browser.Locator{Kind: browser.LocatorText, Name: "Role Projections"}},
			{Locator: browser.Locator{Kind: browser.LocatorRole, Role: "heading", Name: "Failed Tests"}, Timeout: 10 * time.Second},
		},
	}

	if diff := cmp.Diff(want, DefaultPlan()); diff != "" {
		t.Errorf("DefaultPlan() mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, DefaultPlan().Validate())
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantErr string
	}{
		{"no input", func(p *Plan) { p.Input = "" }, "input is required"},
		{"no output", func(p *Plan) { p.Output = "" }, "output is required"},
		{"no checks", func(p *Plan) { p.Checks = nil }, "no checks"},
		{"negative default", func(p *Plan) { p.DefaultTimeout = -time.Second }, "negative default timeout"},
		{"negative check timeout", func(p *Plan) { p.Checks[1].Timeout = -1 }, "check 2: negative timeout"},
		{"blank name", func(p *Plan) { p.Checks[2].Name = "" }, "check 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := DefaultPlan()
			tt.mutate(&plan)
			assert.ErrorContains(t, plan.Validate(), tt.wantErr)
		})
	}
}

func TestTimeoutFor(t *testing.T) {
	plan := DefaultPlan()
	assert.Equal(t, 5*time.Second, plan.TimeoutFor(plan.Checks[0]))
	assert.Equal(t, 10*time.Second, plan.TimeoutFor(plan.Checks[4]))

	plan.DefaultTimeout = 0
	assert.Equal(t, browser.DefaultVisibleTimeout, plan.TimeoutFor(plan.Checks[0]))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitAssertion, ExitCode(&AssertionError{Index: 1}))
	assert.Equal(t, ExitEnvironment, ExitCode(assert.AnError))
}

func TestFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "file:///C:/work/index.html", FileURL(`C:\work\index.html`))
		return
	}
	assert.Equal(t, "file:///work/index.html", FileURL("/work/index.html"))
	assert.Equal(t, "file:///work/my%20site/index.html", FileURL("/work/my site/index.html"))
}
