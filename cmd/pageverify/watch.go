package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neboloop/pageverify/internal/logging"
	"github.com/neboloop/pageverify/internal/verify"
	"github.com/neboloop/pageverify/internal/watch"
)

// WatchCmd creates the watch command
func WatchCmd() *cobra.Command {
	var cronExpr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-verify when the page changes or on a schedule",
		Long: `Run the verification once, then again whenever the input file changes.
With --cron (or watch.cron in the config) runs are also scheduled.

Examples:
  pageverify watch
  pageverify watch --cron "*/15 * * * *"
  pageverify watch --cron "@every 10m"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			if cmd.Flags().Changed("cron") {
				c.Watch.Cron = cronExpr
			}

			ctx := cmd.Context()
			store := openHistory(ctx, c)
			if store != nil {
				defer store.Close()
			}

			runner := verify.NewRunner(c.Browser)
			out := cmd.OutOrStdout()

			opts := watch.Options{
				Paths:      []string{c.Input},
				Debounce:   c.Watch.Debounce,
				Cron:       c.Watch.Cron,
				RunOnStart: true,
			}
			return watch.Run(ctx, opts, func(ctx context.Context, trigger watch.Trigger) {
				logging.Info("verification triggered", zap.String("trigger", string(trigger)))
				if _, err := verifyOnce(ctx, out, runner, c, store); err != nil {
					logging.Warn("verification failed", zap.String("trigger", string(trigger)), zap.Error(err))
				}
			})
		},
	}

	addRunFlags(cmd)
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression for scheduled runs")

	return cmd
}
