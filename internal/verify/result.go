package verify

import (
	"time"

	"github.com/neboloop/pageverify/internal/browser"
)

// Status is the outcome of a run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed" // an assertion failed
	StatusError  Status = "error"  // the environment failed
)

// CheckStatus is the outcome of one check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// CheckResult records one evaluated (or skipped) check.
type CheckResult struct {
	Check    Check         `json:"check"`
	Status   CheckStatus   `json:"status"`
	Timeout  time.Duration `json:"timeout"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`

	// Box is where the element sat in the screenshot; set on passed runs.
	Box *browser.Box `json:"box,omitempty"`
}

// Result is the record of one run.
type Result struct {
	ID         string    `json:"id"`
	Plan       string    `json:"plan"`
	Input      string    `json:"input"`
	URL        string    `json:"url,omitempty"`
	Driver     string    `json:"driver"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Checks []CheckResult `json:"checks"`

	// Screenshot is set only when the run passed.
	Screenshot      string `json:"screenshot,omitempty"`
	ScreenshotBytes int    `json:"screenshot_bytes,omitempty"`

	Error    string                   `json:"error,omitempty"`
	Snapshot string                   `json:"snapshot,omitempty"`
	Console  []browser.ConsoleMessage `json:"console,omitempty"`
}

// Passed reports whether every check passed and the screenshot was written.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedCheck returns the failed check, or nil.
func (r *Result) FailedCheck() *CheckResult {
	for i := range r.Checks {
		if r.Checks[i].Status == CheckFailed {
			return &r.Checks[i]
		}
	}
	return nil
}

// Counts returns the number of passed, failed and skipped checks.
func (r *Result) Counts() (passed, failed, skipped int) {
	for _, c := range r.Checks {
		switch c.Status {
		case CheckPassed:
			passed++
		case CheckFailed:
			failed++
		case CheckSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
