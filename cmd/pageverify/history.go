package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/neboloop/pageverify/internal/history"
	"github.com/neboloop/pageverify/internal/report"
	"github.com/neboloop/pageverify/internal/verify"
)

// HistoryCmd creates the history command
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one",
		Long: `Without arguments lists the most recent runs. With a run id prints the
report for that run.

Examples:
  pageverify history
  pageverify history --limit 50
  pageverify history 4f1c2d7e-0b7a-4d47-9c8e-2f3a1b5c6d7e`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := history.Open(ctx, AppConfig.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return showRun(cmd, run)
			}

			runs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of runs to list")

	return cmd
}

func runsTable(runs []history.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		passed := 0
		for _, c := range r.Checks {
			if c.Status == verify.CheckPassed {
				passed++
			}
		}
		rows[i] = []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(r.Status),
			strconv.Itoa(passed) + "/" + strconv.Itoa(len(r.Checks)),
			r.Driver,
			r.Duration().Round(time.Millisecond).String(),
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "STATUS", "CHECKS", "DRIVER", "DURATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 2 {
				switch verify.Status(rows[row][2]) {
				case verify.StatusPassed:
					return s.Inherit(okStyle)
				case verify.StatusFailed:
					return s.Inherit(errStyle)
				default:
					return s.Inherit(warnStyle)
				}
			}
			return s
		}).
		String()
}

func showRun(cmd *cobra.Command, run history.Run) error {
	md, err := report.Markdown(run.Result())
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
