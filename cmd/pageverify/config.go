package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neboloop/pageverify/internal/defaults"
)

// ConfigCmd creates the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())

	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Long: `Write the default configuration to the user config directory.
Existing files are kept unless --force is given, which also repairs a
config file that no longer parses.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := defaults.ListDefaults()
			if err != nil {
				return err
			}

			dir := defaults.ConfigDir()
			existed := make(map[string]bool, len(names))
			for _, name := range names {
				if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
					existed[name] = true
				}
			}

			if _, err := defaults.EnsureConfigDir(); err != nil {
				return err
			}
			if force {
				if err := defaults.Reset(dir); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				path := filepath.Join(dir, name)
				if existed[name] && !force {
					fmt.Fprintf(out, "%s %s %s\n", markSkip, path, dimStyle.Render("(exists, use --force to overwrite)"))
					continue
				}
				fmt.Fprintf(out, "%s %s\n", markOK, path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config files")

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := AppConfig.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", configSource(), data)
			return nil
		},
	}
}

// configSource names where AppConfig was read from.
func configSource() string {
	if AppConfig != nil && AppConfig.Source != "" {
		return AppConfig.Source
	}
	return "embedded defaults"
}
