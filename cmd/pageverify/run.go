package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neboloop/pageverify/internal/config"
	"github.com/neboloop/pageverify/internal/history"
	"github.com/neboloop/pageverify/internal/logging"
	"github.com/neboloop/pageverify/internal/report"
	"github.com/neboloop/pageverify/internal/verify"
)

// RunCmd creates the run command
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Verify the page once",
		Long: `Load the page, assert every check in order and write the screenshot.

Examples:
  pageverify run
  pageverify run --input dist/index.html --driver rod
  pageverify run --headed --report jules-scratch/verification/report.md`,
		Args: cobra.NoArgs,
		RunE: runVerification,
	}
	addRunFlags(cmd)
	return cmd
}

func runVerification(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c := AppConfig

	store := openHistory(ctx, c)
	if store != nil {
		defer store.Close()
	}

	runner := verify.NewRunner(c.Browser)
	_, err := verifyOnce(ctx, cmd.OutOrStdout(), runner, c, store)
	return err
}

// verifyOnce runs the plan, prints the outcome, and records the run.
// History and report failures are logged and never change the outcome.
func verifyOnce(ctx context.Context, out io.Writer, runner *verify.Runner, c *config.Config, store *history.Store) (*verify.Result, error) {
	res, err := runner.Run(ctx, c.Plan)
	printResult(out, res)

	if store != nil {
		// Record even when ctx was cancelled mid-run
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if herr := store.Record(recCtx, res); herr != nil {
			logging.Warn("failed to record run", zap.String("run_id", res.ID), zap.Error(herr))
		}
		cancel()
	}

	if c.Report.Path != "" {
		if rerr := report.WriteFile(c.Report.Path, res, c.Report.HTML); rerr != nil {
			logging.Warn("failed to write report", zap.String("path", c.Report.Path), zap.Error(rerr))
		} else {
			fmt.Fprintf(out, "%s\n", dimStyle.Render("Report: "+c.Report.Path))
		}
	}

	return res, err
}

// openHistory opens the history store, or returns nil when history is
// disabled or unavailable.
func openHistory(ctx context.Context, c *config.Config) *history.Store {
	if !c.History.Enabled {
		return nil
	}
	store, err := history.Open(ctx, c.HistoryPath())
	if err != nil {
		logging.Warn("run history unavailable", zap.Error(err))
		return nil
	}
	return store
}

func printResult(out io.Writer, res *verify.Result) {
	fmt.Fprintf(out, "%s %s %s\n", titleStyle.Render("Verifying"), res.Input, dimStyle.Render("("+res.Driver+")"))

	for _, c := range res.Checks {
		switch c.Status {
		case verify.CheckPassed:
			fmt.Fprintf(out, "  %s %s %s\n", markOK, c.Check.Locator, dimStyle.Render(c.Duration.Round(time.Millisecond).String()))
		case verify.CheckFailed:
			fmt.Fprintf(out, "  %s %s\n", markErr, c.Check.Locator)
			fmt.Fprintf(out, "    %s\n", errStyle.Render(c.Error))
		default:
			fmt.Fprintf(out, "  %s %s\n", markSkip, dimStyle.Render(c.Check.Locator.String()+" skipped"))
		}
	}

	if len(res.Console) > 0 {
		fmt.Fprintf(out, "  %s %d console error(s)\n", markWarn, len(res.Console))
	}

	switch res.Status {
	case verify.StatusPassed:
		fmt.Fprintf(out, "%s Screenshot written: %s (%d bytes)\n", markOK, res.Screenshot, res.ScreenshotBytes)
	case verify.StatusFailed:
		fmt.Fprintf(out, "%s Verification failed in %s\n", markErr, res.Duration().Round(time.Millisecond))
	default:
		fmt.Fprintf(out, "%s Verification could not run\n", markErr)
	}
}
