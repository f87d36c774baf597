// Package verify runs a verification plan against a local HTML page: load
// the page, assert that named fragments are visible in order, and capture a
// screenshot only when every assertion holds.
package verify

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/neboloop/pageverify/internal/browser"
)

// Defaults for the Secure Scribble IDE verification.
const (
	DefaultPlanName = "secure-scribble-ide"
	DefaultInput    = "index.html"

	// FailedTestsTimeout is how long the "Failed Tests" heading may take to render.
	FailedTestsTimeout = 10 * time.Second
)

// DefaultOutput is the screenshot path, relative to the working directory.
var DefaultOutput = filepath.Join("jules-scratch", "verification", "verification.png")

// Check is one visibility assertion.
type Check struct {
	browser.Locator `yaml:",inline"`

	// Timeout bounds the visibility poll. Zero uses the plan default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Plan is an ordered list of checks against one page.
type Plan struct {
	Name           string        `json:"name" yaml:"name"`
	Input          string        `json:"input" yaml:"input"`
	Output         string        `json:"output" yaml:"output"`
	FullPage       bool          `json:"fullPage" yaml:"fullPage"`
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`
	Checks         []Check       `json:"checks" yaml:"checks"`
}

// DefaultChecks returns the Secure Scribble IDE assertions in order.
func DefaultChecks() []Check {
	return []Check{
		{Locator: browser.Heading("Secure Scribble IDE")},
		{Locator: browser.Text("Test Suite Status")},
		{Locator: browser.Text("Protocol Editor")},
		{Locator: browser.Text("Role Projections")},
		{Locator: browser.Heading("Failed Tests"), Timeout: FailedTestsTimeout},
	}
}

// DefaultPlan returns the Secure Scribble IDE verification plan.
func DefaultPlan() Plan {
	return Plan{
		Name:           DefaultPlanName,
		Input:          DefaultInput,
		Output:         DefaultOutput,
		FullPage:       true,
		DefaultTimeout: browser.DefaultVisibleTimeout,
		Checks:         DefaultChecks(),
	}
}

// Validate checks the plan before any browser is started.
func (p Plan) Validate() error {
	if p.Input == "" {
		return fmt.Errorf("plan %q: input is required", p.Name)
	}
	if p.Output == "" {
		return fmt.Errorf("plan %q: output is required", p.Name)
	}
	if p.DefaultTimeout < 0 {
		return fmt.Errorf("plan %q: negative default timeout", p.Name)
	}
	if len(p.Checks) == 0 {
		return fmt.Errorf("plan %q: no checks", p.Name)
	}
	for i, c := range p.Checks {
		if err := c.Locator.Validate(); err != nil {
			return fmt.Errorf("plan %q: check %d: %w", p.Name, i+1, err)
		}
		if c.Timeout < 0 {
			return fmt.Errorf("plan %q: check %d: negative timeout", p.Name, i+1)
		}
	}
	return nil
}

// TimeoutFor returns the effective visibility timeout for c.
func (p Plan) TimeoutFor(c Check) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	if p.DefaultTimeout > 0 {
		return p.DefaultTimeout
	}
	return browser.DefaultVisibleTimeout
}
