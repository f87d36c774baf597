package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/pageverify/internal/config"
	"github.com/neboloop/pageverify/internal/logging"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile   string
	verbose   bool
	input     string
	output    string
	driver    string
	headed    bool
	noSandbox bool
	timeout   time.Duration
	reportArg string
	noHistory bool
)

// AppConfig holds the effective configuration. main seeds it with the
// embedded defaults; prepare replaces it with the loaded config files.
var AppConfig *config.Config

// skipConfigLoad marks commands that run on the embedded defaults alone,
// so a broken user config cannot block them.
const skipConfigLoad = "pageverify/skip-config-load"

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	AppConfig = c

	rootCmd := &cobra.Command{
		Use:   "pageverify",
		Short: "pageverify - headless page verification",
		Long: `pageverify loads a local HTML page in a headless browser, asserts that
the expected UI fragments are visible, and captures a screenshot.

Just type 'pageverify' in a directory containing index.html to run the
default Secure Scribble IDE checks and write
jules-scratch/verification/verification.png.

Exit status: 0 passed, 1 an assertion failed, 2 the environment failed.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: prepare,
		RunE:              runVerification,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: user config directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	addRunFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(WatchCmd())
	rootCmd.AddCommand(HistoryCmd())
	rootCmd.AddCommand(InstallCmd())
	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(ConfigCmd())

	return rootCmd
}

// addRunFlags registers the flags that override the verification plan.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "HTML file to verify (default index.html)")
	f.StringVarP(&output, "output", "o", "", "screenshot path")
	f.StringVarP(&driver, "driver", "d", "", "browser driver: playwright, chromedp or rod")
	f.BoolVar(&headed, "headed", false, "show the browser window")
	f.BoolVar(&noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	f.DurationVar(&timeout, "timeout", 0, "visibility timeout for checks without their own")
	f.StringVar(&reportArg, "report", "", "write a Markdown run report to this path")
	f.BoolVar(&noHistory, "no-history", false, "do not record the run in history")
}

// prepare loads the config file (--config, else the user file), applies
// flag overrides and configures logging.
func prepare(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfigLoad] == "" {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		AppConfig = &c
	}
	if AppConfig == nil {
		return fmt.Errorf("configuration not loaded")
	}

	applyFlags(cmd, AppConfig)

	level := AppConfig.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Setup(level, AppConfig.Log.Format); err != nil {
		return err
	}

	return AppConfig.Validate()
}

// applyFlags copies explicitly set flags over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Lookup("input") == nil {
		return
	}
	if f.Changed("input") {
		c.Input = input
	}
	if f.Changed("output") {
		c.Output = output
	}
	if f.Changed("driver") {
		c.Browser.Driver = driver
	}
	if f.Changed("headed") {
		c.Browser.Headless = !headed
	}
	if f.Changed("no-sandbox") {
		c.Browser.NoSandbox = noSandbox
	}
	if f.Changed("timeout") {
		c.DefaultTimeout = timeout
	}
	if f.Changed("report") {
		c.Report.Path = reportArg
	}
	if f.Changed("no-history") {
		c.History.Enabled = !noHistory
	}
}
