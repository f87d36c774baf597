package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/config"
	"github.com/neboloop/pageverify/internal/history"
)

// DoctorCmd creates the doctor command for health checks
func DoctorCmd() *cobra.Command {
	var skipLaunch bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment and diagnose issues",
		Long: `Run diagnostics on your pageverify setup.

Checks:
  - Configuration
  - Input page
  - Screenshot directory
  - Chrome executable
  - Browser launch
  - Run history

Examples:
  pageverify doctor
  pageverify doctor --driver rod
  pageverify doctor --skip-launch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, AppConfig, skipLaunch)
		},
	}

	addRunFlags(cmd)
	cmd.Flags().BoolVar(&skipLaunch, "skip-launch", false, "do not start a browser")

	return cmd
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(cmd *cobra.Command, c *config.Config, skipLaunch bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("pageverify doctor"))
	fmt.Fprintln(out, "=================")
	fmt.Fprintln(out)

	var results []checkResult
	results = append(results, checkConfig(c))
	results = append(results, checkInput(c))
	results = append(results, checkOutputDir(c))
	results = append(results, checkChrome(c))
	if !skipLaunch {
		results = append(results, checkLaunch(cmd.Context(), c))
	}
	results = append(results, checkHistory(cmd.Context(), c))

	okCount, warnCount, errorCount := 0, 0, 0
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Fprintf(out, "%s %s: %s\n", markOK, r.name, r.message)
			okCount++
		case "warn":
			fmt.Fprintf(out, "%s %s: %s\n", markWarn, r.name, r.message)
			warnCount++
		case "error":
			fmt.Fprintf(out, "%s %s: %s\n", markErr, r.name, r.message)
			errorCount++
		}
	}

	// Summary
	fmt.Fprintln(out)
	fmt.Fprint(out, "Summary:")
	fmt.Fprint(out, okStyle.Render(fmt.Sprintf("  %d passed", okCount)))
	if warnCount > 0 {
		fmt.Fprint(out, warnStyle.Render(fmt.Sprintf("  %d warnings", warnCount)))
	}
	if errorCount > 0 {
		fmt.Fprint(out, errStyle.Render(fmt.Sprintf("  %d errors", errorCount)))
	}
	fmt.Fprintln(out)

	if errorCount > 0 {
		return fmt.Errorf("doctor found %d error(s)", errorCount)
	}
	return nil
}

func checkConfig(c *config.Config) checkResult {
	source := configSource()

	if err := c.Validate(); err != nil {
		return checkResult{"Config", "error", fmt.Sprintf("%s: %v", source, err)}
	}
	return checkResult{"Config", "ok", fmt.Sprintf("%s (%d checks)", source, len(c.Checks))}
}

func checkInput(c *config.Config) checkResult {
	abs, err := filepath.Abs(c.Input)
	if err != nil {
		return checkResult{"Input", "error", err.Error()}
	}
	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		return checkResult{"Input", "warn", abs + " not found (run from the page's directory or pass --input)"}
	case err != nil:
		return checkResult{"Input", "error", err.Error()}
	case info.IsDir():
		return checkResult{"Input", "error", abs + " is a directory"}
	}
	return checkResult{"Input", "ok", abs}
}

func checkOutputDir(c *config.Config) checkResult {
	dir, err := filepath.Abs(filepath.Dir(c.Output))
	if err != nil {
		return checkResult{"Screenshot Directory", "error", err.Error()}
	}

	// Walk up to the nearest existing ancestor; nothing is created here
	existing := dir
	for {
		info, err := os.Stat(existing)
		if err == nil {
			if !info.IsDir() {
				return checkResult{"Screenshot Directory", "error", existing + " is not a directory"}
			}
			break
		}
		if !os.IsNotExist(err) {
			return checkResult{"Screenshot Directory", "error", err.Error()}
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return checkResult{"Screenshot Directory", "error", "no existing parent for " + dir}
		}
		existing = parent
	}

	if err := checkWritable(existing); err != nil {
		return checkResult{"Screenshot Directory", "error", fmt.Sprintf("%s not writable: %v", existing, err)}
	}
	if existing != dir {
		return checkResult{"Screenshot Directory", "ok", dir + " (will be created)"}
	}
	return checkResult{"Screenshot Directory", "ok", dir}
}

// checkWritable creates and removes a temp file in dir.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".pageverify-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func checkChrome(c *config.Config) checkResult {
	exe, err := browser.FindChromeExecutable(c.Browser.ExecutablePath)
	status := "warn"
	if c.Browser.Driver != browser.DriverPlaywright && c.Browser.Driver != "" {
		// chromedp and rod need a system browser
		status = "error"
	}

	switch {
	case err != nil:
		return checkResult{"Chrome", status, err.Error()}
	case exe == nil:
		msg := fmt.Sprintf("no Chrome or Chromium found (set %s or browser.executablePath)", browser.ChromeEnvVar)
		return checkResult{"Chrome", status, msg}
	}
	return checkResult{"Chrome", "ok", fmt.Sprintf("%s (%s)", exe.Path, exe.Kind)}
}

func checkLaunch(ctx context.Context, c *config.Config) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	sess, err := browser.Open(ctx, c.Browser)
	if err != nil {
		msg := err.Error()
		if c.Browser.Driver == browser.DriverPlaywright || c.Browser.Driver == "" {
			msg += " (try 'pageverify install')"
		}
		return checkResult{"Browser Launch", "error", msg}
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, "about:blank"); err != nil {
		return checkResult{"Browser Launch", "error", err.Error()}
	}
	return checkResult{"Browser Launch", "ok", fmt.Sprintf("%s in %s", sess.Driver(), time.Since(start).Round(time.Millisecond))}
}

func checkHistory(ctx context.Context, c *config.Config) checkResult {
	if !c.History.Enabled {
		return checkResult{"History", "ok", "disabled"}
	}
	if _, err := os.Stat(c.HistoryPath()); os.IsNotExist(err) {
		return checkResult{"History", "ok", c.HistoryPath() + " (no runs recorded yet)"}
	}
	store, err := history.Open(ctx, c.HistoryPath())
	if err != nil {
		return checkResult{"History", "warn", err.Error()}
	}
	defer store.Close()

	runs, err := store.List(ctx, 1)
	if err != nil {
		return checkResult{"History", "warn", err.Error()}
	}
	msg := c.HistoryPath()
	if len(runs) > 0 {
		msg += fmt.Sprintf(" (last run %s, %s)", runs[0].StartedAt.Local().Format(time.DateTime), runs[0].Status)
	}
	return checkResult{"History", "ok", msg}
}
