package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/logging"
)

// diagnosticsTimeout bounds snapshot collection after a failed check.
const diagnosticsTimeout = 5 * time.Second

// Runner executes plans. Runs are serialised: concurrent callers (watch and
// schedule triggers) wait for the previous run to finish.
type Runner struct {
	mu sync.Mutex

	opts browser.Options
	open browser.Opener
	now  func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithOpener replaces the browser launcher.
func WithOpener(open browser.Opener) Option {
	return func(r *Runner) { r.open = open }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner that opens browsers with opts.
func NewRunner(opts browser.Options, options ...Option) *Runner {
	r := &Runner{
		opts: opts,
		open: browser.Open,
		now:  time.Now,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes plan and always returns a non-nil Result. The error is nil on
// success, an *AssertionError when a check fails, or an environment error.
func (r *Runner) Run(ctx context.Context, plan Plan) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := &Result{
		ID:        uuid.New().String(),
		Plan:      plan.Name,
		Input:     plan.Input,
		Driver:    r.opts.Driver,
		StartedAt: r.now(),
	}
	if res.Driver == "" {
		res.Driver = browser.DefaultDriver
	}
	log := logging.With(zap.String("run_id", res.ID[:8]), zap.String("driver", res.Driver))

	err := r.run(ctx, plan, res, log)
	res.FinishedAt = r.now()

	switch {
	case err == nil:
		res.Status = StatusPassed
		log.Info("verification passed",
			zap.String("screenshot", res.Screenshot),
			zap.Int("bytes", res.ScreenshotBytes),
			zap.Duration("took", res.Duration()))
	case errors.Is(err, ErrAssertion):
		res.Status = StatusFailed
		res.Error = err.Error()
		log.Error("verification failed", zap.Error(err))
	default:
		res.Status = StatusError
		res.Error = err.Error()
		log.Error("verification error", zap.Error(err))
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, plan Plan, res *Result, log *zap.Logger) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	res.Checks = make([]CheckResult, len(plan.Checks))
	for i, c := range plan.Checks {
		res.Checks[i] = CheckResult{Check: c, Status: CheckSkipped, Timeout: plan.TimeoutFor(c)}
	}

	abs, err := filepath.Abs(plan.Input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file: %s is a directory", abs)
	}
	res.Input = abs
	res.URL = FileURL(abs)

	session, err := r.open(ctx, r.opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("failed to close browser", zap.Error(cerr))
		}
	}()
	res.Driver = session.Driver()

	log.Debug("navigating", zap.String("url", res.URL))
	if err := session.Navigate(ctx, res.URL); err != nil {
		return err
	}

	for i, check := range plan.Checks {
		cr := &res.Checks[i]
		start := r.now()

		err := session.WaitVisible(ctx, check.Locator, cr.Timeout)
		cr.Duration = r.now().Sub(start)

		if err != nil {
			cr.Error = err.Error()
			if !browser.IsVisibilityError(err) {
				// Cancellation or a driver failure is not an assertion result
				return fmt.Errorf("check %d %s: %w", i+1, check.Locator, err)
			}
			cr.Status = CheckFailed
			r.collectDiagnostics(ctx, session, res, log)
			return &AssertionError{Index: i + 1, Check: check, Err: err}
		}

		cr.Status = CheckPassed
		log.Debug("check passed", zap.Int("index", i+1), zap.Stringer("locator", check.Locator),
			zap.Duration("took", cr.Duration))
	}

	r.measure(ctx, session, res, log)

	data, err := session.Screenshot(ctx, plan.FullPage)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("screenshot is empty")
	}
	if err := writeFileAtomic(plan.Output, data); err != nil {
		return err
	}
	res.Screenshot = plan.Output
	res.ScreenshotBytes = len(data)
	res.Console = session.ConsoleErrors()

	return nil
}

// measure records where each check's element sits once the page has
// settled, for the annotated screenshot. Failures are logged and skipped.
func (r *Runner) measure(ctx context.Context, session browser.Session, res *Result, log *zap.Logger) {
	for i := range res.Checks {
		cr := &res.Checks[i]
		box, err := session.BoundingBox(ctx, cr.Check.Locator)
		if err != nil {
			log.Debug("failed to measure check", zap.Int("index", i+1), zap.Error(err))
			continue
		}
		cr.Box = box
	}
}

// collectDiagnostics attaches a page snapshot and console errors to a failed
// result. Failures here are logged and otherwise ignored.
func (r *Runner) collectDiagnostics(ctx context.Context, session browser.Session, res *Result, log *zap.Logger) {
	res.Console = session.ConsoleErrors()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnosticsTimeout)
	defer cancel()

	snapshot, err := session.Snapshot(dctx)
	if err != nil {
		log.Warn("failed to capture page snapshot", zap.Error(err))
		return
	}
	res.Snapshot = snapshot
}
