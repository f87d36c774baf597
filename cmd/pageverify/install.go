package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/pageverify/internal/browser"
)

// InstallCmd creates the install command
func InstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download the Playwright driver and Chromium",
		Long: `Install the Playwright driver and its Chromium build. Needed once before
using the default playwright driver. The chromedp and rod drivers use a
system Chrome or Chromium instead (see 'pageverify doctor').`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Installing Playwright driver and Chromium...")
			if err := browser.Install(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Playwright ready\n", markOK)
			return nil
		},
	}
}
